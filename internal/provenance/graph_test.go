package provenance

import "testing"

func (g *Graph) findNode(t *testing.T, id string) GraphNode {
	t.Helper()
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %s not in graph", id)
	return GraphNode{}
}

func (g *Graph) hasEdge(source, target, label string) bool {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target && e.Label == label {
			return true
		}
	}
	return false
}

func TestGetGraphDataProjection(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")

	upload := mustActivity(t, svc, "document_upload", alice.ID, Payload{"document_id": "doc-1"})
	doc := mustEntity(t, svc, EntityInput{
		EntityType: "document",
		ActivityID: upload.ID,
		Value:      Payload{"document_id": "doc-1", "title": "Field Notes"},
	})

	g, err := svc.GetGraphData(GraphFilter{DocumentID: "doc-1"})
	if err != nil {
		t.Fatalf("get graph: %v", err)
	}
	if g.Stats.EntityCount != 1 || g.Stats.ActivityCount != 1 || g.Stats.AgentCount != 1 {
		t.Fatalf("unexpected stats %+v", g.Stats)
	}
	if !g.hasEdge(doc.ID, upload.ID, RelWasGeneratedBy) {
		t.Fatalf("missing wasGeneratedBy edge")
	}
	if !g.hasEdge(upload.ID, alice.ID, RelWasAssociatedWith) {
		t.Fatalf("missing wasAssociatedWith edge")
	}
	if got := g.findNode(t, doc.ID).Label; got != "Field Notes" {
		t.Fatalf("expected title label, got %q", got)
	}
}

func TestGetGraphDataDeduplicatesSharedAgent(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")

	for i := 0; i < 3; i++ {
		act := mustActivity(t, svc, "term_edit", alice.ID, Payload{"experiment_id": "exp-1"})
		mustEntity(t, svc, EntityInput{EntityType: "term", ActivityID: act.ID})
	}

	g, err := svc.GetGraphData(GraphFilter{ExperimentID: "exp-1"})
	if err != nil {
		t.Fatalf("get graph: %v", err)
	}
	if g.Stats.AgentCount != 1 {
		t.Fatalf("expected single agent node, got %d", g.Stats.AgentCount)
	}
	if g.Stats.ActivityCount != 3 || g.Stats.EntityCount != 3 {
		t.Fatalf("unexpected stats %+v", g.Stats)
	}
	// Three distinct wasAssociatedWith edges, one per activity.
	if g.Stats.EdgeCount != 6 {
		t.Fatalf("expected 6 edges, got %d", g.Stats.EdgeCount)
	}
}

func TestGetGraphDataOriginPinnedOutsideWindow(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")

	upload := mustActivity(t, svc, "document_upload", alice.ID, Payload{"document_id": "doc-1"})
	root := mustEntity(t, svc, EntityInput{
		EntityType: "document",
		ActivityID: upload.ID,
		Value:      Payload{"document_id": "doc-1"},
	})
	version := mustActivity(t, svc, "document_version", alice.ID, Payload{"document_id": "doc-1"})
	mustEntity(t, svc, EntityInput{
		EntityType:          "document",
		ActivityID:          version.ID,
		DerivedFromEntityID: root.ID,
		Value:               Payload{"document_id": "doc-1"},
	})

	// Limit 1 keeps only the newest activity in the window; the upload root
	// must still appear, marked as origin.
	g, err := svc.GetGraphData(GraphFilter{DocumentID: "doc-1", Limit: 1})
	if err != nil {
		t.Fatalf("get graph: %v", err)
	}
	rootNode := g.findNode(t, root.ID)
	if !rootNode.IsOrigin {
		t.Fatalf("expected root entity pinned as origin")
	}
	g.findNode(t, upload.ID)
	if !g.hasEdge(root.ID, upload.ID, RelWasGeneratedBy) {
		t.Fatalf("missing origin wasGeneratedBy edge")
	}
}

func TestGetGraphDataDerivationSourceSurfacedNotExpanded(t *testing.T) {
	svc := newTestService(t)
	bot := mustAgent(t, svc, AgentSoftwareAgent, "importer")
	alice := mustAgent(t, svc, AgentPerson, "alice")

	importAct := mustActivity(t, svc, "metadata_extraction", bot.ID, nil)
	source := mustEntity(t, svc, EntityInput{EntityType: "metadata", ActivityID: importAct.ID})

	create := mustActivity(t, svc, "term_creation", alice.ID, Payload{"term_id": "term-1"})
	term := mustEntity(t, svc, EntityInput{
		EntityType:          "term",
		ActivityID:          create.ID,
		DerivedFromEntityID: source.ID,
		Value:               Payload{"term_id": "term-1"},
	})

	g, err := svc.GetGraphData(GraphFilter{TermID: "term-1"})
	if err != nil {
		t.Fatalf("get graph: %v", err)
	}
	g.findNode(t, source.ID)
	if !g.hasEdge(term.ID, source.ID, RelWasDerivedFrom) {
		t.Fatalf("missing wasDerivedFrom edge to source")
	}
	// The source's own generating activity stays outside the projection.
	for _, n := range g.Nodes {
		if n.ID == importAct.ID {
			t.Fatalf("derivation source activity should not be expanded")
		}
	}
}

func TestGetGraphDataInvalidatedHiddenByDefault(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")

	act := mustActivity(t, svc, "term_creation", alice.ID, Payload{"term_id": "term-1"})
	e := mustEntity(t, svc, EntityInput{
		EntityType: "term",
		ActivityID: act.ID,
		Value:      Payload{"term_id": "term-1"},
	})
	if _, err := svc.DeleteOrInvalidateEntity(e.ID, ModeInvalidate); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	g, err := svc.GetGraphData(GraphFilter{TermID: "term-1"})
	if err != nil {
		t.Fatalf("get graph: %v", err)
	}
	if g.Stats.EntityCount != 0 {
		t.Fatalf("expected invalidated entity hidden, got %d entity nodes", g.Stats.EntityCount)
	}

	g, err = svc.GetGraphData(GraphFilter{TermID: "term-1", IncludeInvalidated: true})
	if err != nil {
		t.Fatalf("get graph with invalidated: %v", err)
	}
	if !g.findNode(t, e.ID).Invalidated {
		t.Fatalf("expected entity node flagged invalidated")
	}
}
