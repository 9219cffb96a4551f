package provenance

import (
	"errors"
	"testing"
)

func TestActivityLifecycle(t *testing.T) {
	svc := newTestService(t)
	agent := mustAgent(t, svc, AgentPerson, "alice")

	act, err := svc.BeginActivity("document_upload", agent.ID, Payload{"document_id": "doc-1"})
	if err != nil {
		t.Fatalf("begin activity: %v", err)
	}
	if act.Status != StatusActive {
		t.Fatalf("expected active status, got %s", act.Status)
	}
	if act.EndedAt != nil {
		t.Fatalf("expected no ended_at on open activity")
	}

	if err := svc.CompleteActivity(act.ID, StatusCompleted); err != nil {
		t.Fatalf("complete activity: %v", err)
	}
	closed, err := svc.GetActivity(act.ID)
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	if closed.Status != StatusCompleted || closed.EndedAt == nil {
		t.Fatalf("expected completed with ended_at, got %+v", closed)
	}

	// Activities are never re-opened or re-closed.
	if err := svc.CompleteActivity(act.ID, StatusFailed); err == nil {
		t.Fatalf("expected second completion to fail")
	}
}

func TestCompleteActivityRejectsBadStatus(t *testing.T) {
	svc := newTestService(t)
	agent := mustAgent(t, svc, AgentPerson, "alice")
	act := mustActivity(t, svc, "term_edit", agent.ID, nil)

	err := svc.CompleteActivity(act.ID, "done")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestListActivitiesFilters(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")
	bob := mustAgent(t, svc, AgentPerson, "bob")

	mustActivity(t, svc, "document_upload", alice.ID, Payload{"document_id": "doc-1"})
	mustActivity(t, svc, "term_edit", alice.ID, Payload{"term_id": "term-1"})
	mustActivity(t, svc, "document_upload", bob.ID, Payload{"document_id": "doc-2"})

	byType, err := svc.ListActivities(ActivityFilter{ActivityType: "document_upload"})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if len(byType) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(byType))
	}
	// Ordered newest first.
	if !byType[0].StartedAt.After(byType[1].StartedAt) {
		t.Fatalf("expected descending started_at order")
	}

	byAgent, err := svc.ListActivities(ActivityFilter{AgentID: bob.ID})
	if err != nil {
		t.Fatalf("list by agent: %v", err)
	}
	if len(byAgent) != 1 || byAgent[0].ActivityType != "document_upload" {
		t.Fatalf("unexpected agent filter result: %+v", byAgent)
	}

	byParam, err := svc.ListActivities(ActivityFilter{Params: map[string]string{"term_id": "term-1"}})
	if err != nil {
		t.Fatalf("list by param: %v", err)
	}
	if len(byParam) != 1 || byParam[0].ActivityType != "term_edit" {
		t.Fatalf("unexpected param filter result: %+v", byParam)
	}

	none, err := svc.ListActivities(ActivityFilter{Params: map[string]string{"document_id": "missing"}})
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty result, got %d", len(none))
	}
}

func TestListActivitiesRejectsNonIdentifierParamKeys(t *testing.T) {
	svc := newTestService(t)
	alice := mustAgent(t, svc, AgentPerson, "alice")
	mustActivity(t, svc, "document_upload", alice.ID, Payload{"document_id": "doc-1"})

	// Param keys end up inside the json_extract path expression, so
	// anything beyond a plain identifier is refused.
	for _, key := range []string{"", "doc id", "doc'--", "1doc", "a.b"} {
		if _, err := svc.ListActivities(ActivityFilter{Params: map[string]string{key: "x"}}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}

	ok, err := svc.ListActivities(ActivityFilter{Params: map[string]string{"document_id": "doc-1"}})
	if err != nil {
		t.Fatalf("list with valid key: %v", err)
	}
	if len(ok) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(ok))
	}
}
