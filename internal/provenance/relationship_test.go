package provenance

import (
	"errors"
	"testing"
)

func TestCreateRelationshipKinds(t *testing.T) {
	svc := newTestService(t)
	agent := mustAgent(t, svc, AgentPerson, "alice")
	act := mustActivity(t, svc, "experiment_run", agent.ID, nil)
	e := mustEntity(t, svc, EntityInput{EntityType: "experiment_result", ActivityID: act.ID})

	kinds := []string{
		RelWasGeneratedBy, RelWasAssociatedWith, RelWasDerivedFrom,
		RelWasInformedBy, RelActedOnBehalfOf, RelWasAttributedTo,
		RelUsed, RelWasStartedBy, RelWasEndedBy,
	}
	for _, kind := range kinds {
		if _, err := svc.CreateRelationship(kind, RoleActivity, act.ID, RoleEntity, e.ID, nil); err != nil {
			t.Fatalf("kind %s rejected: %v", kind, err)
		}
	}

	rels, err := svc.ListRelationshipsFor(act.ID)
	if err != nil {
		t.Fatalf("list relationships: %v", err)
	}
	if len(rels) != len(kinds) {
		t.Fatalf("expected %d relationships, got %d", len(kinds), len(rels))
	}
}

func TestCreateRelationshipRejectsInvalid(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.CreateRelationship("wasSeenBy", RoleEntity, "a", RoleAgent, "b", nil); !errors.Is(err, ErrInvalidRelationshipType) {
		t.Fatalf("expected ErrInvalidRelationshipType, got %v", err)
	}
	if _, err := svc.CreateRelationship(RelUsed, "document", "a", RoleEntity, "b", nil); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole for subject, got %v", err)
	}
	if _, err := svc.CreateRelationship(RelUsed, RoleActivity, "a", "file", "b", nil); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole for object, got %v", err)
	}

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Relationships != 0 {
		t.Fatalf("expected no relationship written, got %d", stats.Relationships)
	}
}
