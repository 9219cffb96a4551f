package provenance

import "testing"

func TestGetTimelineExperimentFilter(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")

	first := mustActivity(t, svc, "experiment_run", alice.ID, Payload{"experiment_id": "exp-1"})
	second := mustActivity(t, svc, "experiment_run", alice.ID, Payload{"experiment_id": "exp-1"})
	mustActivity(t, svc, "experiment_run", alice.ID, Payload{"experiment_id": "exp-2"})

	entries, err := svc.GetTimeline(TimelineFilter{ExperimentID: "exp-1"})
	if err != nil {
		t.Fatalf("get timeline: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Activity.ID != second.ID || entries[1].Activity.ID != first.ID {
		t.Fatalf("expected newest-first order")
	}
	for _, e := range entries {
		if e.Agent == nil || e.Agent.Name != "alice" {
			t.Fatalf("expected associated agent resolved, got %+v", e.Agent)
		}
	}
}

func TestGetTimelineUserFilter(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")
	bob := mustAgent(t, svc, AgentPerson, "bob")

	mustActivity(t, svc, "term_edit", alice.ID, nil)
	mustActivity(t, svc, "term_edit", bob.ID, nil)

	entries, err := svc.GetTimeline(TimelineFilter{UserID: bob.ID})
	if err != nil {
		t.Fatalf("get timeline: %v", err)
	}
	if len(entries) != 1 || entries[0].Agent.ID != bob.ID {
		t.Fatalf("expected only bob's activity, got %d entries", len(entries))
	}
}

func TestGetTimelineInvalidatedEntities(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")

	act := mustActivity(t, svc, "document_upload", alice.ID, Payload{"document_id": "doc-1"})
	e := mustEntity(t, svc, EntityInput{
		EntityType: "document",
		ActivityID: act.ID,
		Value:      Payload{"document_id": "doc-1"},
	})
	if _, err := svc.DeleteOrInvalidateEntity(e.ID, ModeInvalidate); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	entries, err := svc.GetTimeline(TimelineFilter{DocumentID: "doc-1"})
	if err != nil {
		t.Fatalf("get timeline: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the activity to remain visible, got %d entries", len(entries))
	}
	if len(entries[0].GeneratedEntities) != 0 {
		t.Fatalf("expected invalidated entity hidden by default")
	}

	entries, err = svc.GetTimeline(TimelineFilter{DocumentID: "doc-1", IncludeInvalidated: true})
	if err != nil {
		t.Fatalf("get timeline with invalidated: %v", err)
	}
	if len(entries[0].GeneratedEntities) != 1 {
		t.Fatalf("expected invalidated entity included")
	}
	if !entries[0].GeneratedEntities[0].Invalidated() {
		t.Fatalf("expected entity flagged invalidated")
	}
}

func TestGetTimelineDerivedFromAlwaysIncluded(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")

	upload := mustActivity(t, svc, "document_upload", alice.ID, Payload{"document_id": "doc-1"})
	original := mustEntity(t, svc, EntityInput{
		EntityType: "document",
		ActivityID: upload.ID,
		Value:      Payload{"document_id": "doc-1"},
	})
	version := mustActivity(t, svc, "document_version", alice.ID, Payload{"document_id": "doc-1"})
	mustEntity(t, svc, EntityInput{
		EntityType:          "document",
		ActivityID:          version.ID,
		DerivedFromEntityID: original.ID,
		Value:               Payload{"document_id": "doc-1"},
	})

	// Invalidate the ancestor: it must still show up as derivation context.
	if _, err := svc.DeleteOrInvalidateEntity(original.ID, ModeInvalidate); err != nil {
		t.Fatalf("invalidate ancestor: %v", err)
	}

	entries, err := svc.GetTimeline(TimelineFilter{DocumentID: "doc-1"})
	if err != nil {
		t.Fatalf("get timeline: %v", err)
	}
	var versionEntry *TimelineEntry
	for i := range entries {
		if entries[i].Activity.ID == version.ID {
			versionEntry = &entries[i]
		}
	}
	if versionEntry == nil {
		t.Fatalf("version activity missing from timeline")
	}
	if len(versionEntry.DerivedFromEntities) != 1 {
		t.Fatalf("expected invalidated ancestor in derivation context")
	}
	if !versionEntry.DerivedFromEntities[0].Invalidated() {
		t.Fatalf("expected ancestor to carry its invalidation state")
	}
}

func TestGetTimelineUsedEntities(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")

	upload := mustActivity(t, svc, "document_upload", alice.ID, nil)
	doc := mustEntity(t, svc, EntityInput{EntityType: "document", ActivityID: upload.ID})

	run := mustActivity(t, svc, "experiment_run", alice.ID, Payload{"experiment_id": "exp-1"})
	mustEntity(t, svc, EntityInput{EntityType: "experiment_result", ActivityID: run.ID, Value: Payload{"experiment_id": "exp-1"}})
	if _, err := svc.CreateRelationship(RelUsed, RoleActivity, run.ID, RoleEntity, doc.ID, nil); err != nil {
		t.Fatalf("create used relationship: %v", err)
	}

	entries, err := svc.GetTimeline(TimelineFilter{ExperimentID: "exp-1"})
	if err != nil {
		t.Fatalf("get timeline: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if len(entries[0].UsedEntities) != 1 || entries[0].UsedEntities[0].ID != doc.ID {
		t.Fatalf("expected used entity %s, got %+v", doc.ID, entries[0].UsedEntities)
	}
}

func TestGetTimelineTermUpstreamExpansion(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")
	wiktionary := mustAgent(t, svc, AgentSoftwareAgent, "wiktionary")

	// External source event: its parameters never mention the term id.
	sourceAct := mustActivity(t, svc, "metadata_extraction", wiktionary.ID, Payload{"source": "wiktionary"})
	sourceEntity := mustEntity(t, svc, EntityInput{
		EntityType: "metadata",
		ActivityID: sourceAct.ID,
		Value:      Payload{"headword": "saudade"},
	})

	// Term creation derives its entity from the source entity.
	createAct := mustActivity(t, svc, "term_creation", alice.ID, Payload{"term_id": "term-1"})
	mustEntity(t, svc, EntityInput{
		EntityType:          "term",
		ActivityID:          createAct.ID,
		DerivedFromEntityID: sourceEntity.ID,
		Value:               Payload{"term_id": "term-1"},
	})

	entries, err := svc.GetTimeline(TimelineFilter{TermID: "term-1"})
	if err != nil {
		t.Fatalf("get timeline: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected term activity plus upstream source event, got %d", len(entries))
	}
	if entries[0].Activity.ID != createAct.ID || entries[1].Activity.ID != sourceAct.ID {
		t.Fatalf("expected [creation, source] newest-first, got [%s, %s]", entries[0].Activity.ID, entries[1].Activity.ID)
	}

	// The expansion is a separately toggleable rule.
	direct, err := svc.GetTimeline(TimelineFilter{TermID: "term-1", SkipTermUpstream: true})
	if err != nil {
		t.Fatalf("get timeline without expansion: %v", err)
	}
	if len(direct) != 1 || direct[0].Activity.ID != createAct.ID {
		t.Fatalf("expected only the direct term activity, got %d entries", len(direct))
	}

	// The rule is term-only: a document filter gets no such expansion.
	docEntries, err := svc.GetTimeline(TimelineFilter{DocumentID: "doc-none"})
	if err != nil {
		t.Fatalf("get timeline for document: %v", err)
	}
	if len(docEntries) != 0 {
		t.Fatalf("expected empty document timeline, got %d", len(docEntries))
	}
}

func TestGetTimelineDocumentIDsParameter(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")

	// Activity referencing several documents through a document_ids array.
	merge := mustActivity(t, svc, "document_version", alice.ID, Payload{
		"document_ids": []any{"doc-1", "doc-2"},
	})

	entries, err := svc.GetTimeline(TimelineFilter{DocumentID: "doc-2"})
	if err != nil {
		t.Fatalf("get timeline: %v", err)
	}
	if len(entries) != 1 || entries[0].Activity.ID != merge.ID {
		t.Fatalf("expected array-parameter match, got %d entries", len(entries))
	}
}
