package provenance

import "testing"

// buildChain creates a 4-hop derivation chain A ← B ← C ← D and returns the
// entities oldest first.
func buildChain(t *testing.T, svc *Service) []*Entity {
	t.Helper()
	agent := mustAgent(t, svc, AgentPerson, "alice")

	var chain []*Entity
	prev := ""
	for _, name := range []string{"A", "B", "C", "D"} {
		act := mustActivity(t, svc, "document_version", agent.ID, nil)
		e := mustEntity(t, svc, EntityInput{
			EntityType:          "document",
			ActivityID:          act.ID,
			DerivedFromEntityID: prev,
			Value:               Payload{"name": name},
		})
		chain = append(chain, e)
		prev = e.ID
	}
	return chain
}

func TestGetLineageChain(t *testing.T) {
	svc := newTestService(t)
	chain := buildChain(t, svc)
	a, b, c, d := chain[0], chain[1], chain[2], chain[3]

	lineage, err := svc.GetLineage(d.ID)
	if err != nil {
		t.Fatalf("get lineage: %v", err)
	}
	want := []string{d.ID, c.ID, b.ID, a.ID}
	if len(lineage) != len(want) {
		t.Fatalf("expected %d entities, got %d", len(want), len(lineage))
	}
	for i, id := range want {
		if lineage[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, lineage[i].ID)
		}
	}
}

func TestGetLineageTerminatesOnCycle(t *testing.T) {
	svc := newTestService(t)
	chain := buildChain(t, svc)
	a, d := chain[0], chain[3]

	// Force a cycle A → D that could never arise through CreateEntity.
	if _, err := svc.DB().Exec(`UPDATE entities SET derived_from_entity_id = ? WHERE id = ?`, d.ID, a.ID); err != nil {
		t.Fatalf("introduce cycle: %v", err)
	}

	lineage, err := svc.GetLineage(d.ID)
	if err != nil {
		t.Fatalf("get lineage: %v", err)
	}
	if len(lineage) != 4 {
		t.Fatalf("expected partial chain of 4, got %d", len(lineage))
	}
}

func TestGetLineageUnknownEntity(t *testing.T) {
	svc := newTestService(t)

	lineage, err := svc.GetLineage("no-such-entity")
	if err != nil {
		t.Fatalf("get lineage: %v", err)
	}
	if len(lineage) != 0 {
		t.Fatalf("expected empty lineage, got %d", len(lineage))
	}
}
