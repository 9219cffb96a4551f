package provenance

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// TimelineFilter selects activities for GetTimeline. Exactly which key is
// matched inside the parameters payload depends on the field: experiment_id,
// term_id, and document_id / document_ids are payload keys; UserID matches
// the activity's associated agent.
type TimelineFilter struct {
	ExperimentID string
	UserID       string
	ActivityType string
	TermID       string
	DocumentID   string
	DocumentIDs  []string
	Limit        int

	// IncludeInvalidated keeps soft-deleted entities in the generated/used
	// lists. Ancestor context ignores it either way.
	IncludeInvalidated bool

	// SkipTermUpstream disables the one-hop upstream expansion for term
	// filters (see termUpstreamActivities). Off by default so a term's
	// timeline shows the external source event that seeded it.
	SkipTermUpstream bool
}

// TimelineEntry is one activity joined with its actor and the entities it
// touched, for chronological presentation.
type TimelineEntry struct {
	Activity          Activity `json:"activity"`
	Agent             *Agent   `json:"agent,omitempty"`
	GeneratedEntities []Entity `json:"generated_entities,omitempty"`
	UsedEntities      []Entity `json:"used_entities,omitempty"`

	// DerivedFromEntities holds the immediate ancestor of each generated
	// entity. Always included regardless of invalidation — hiding ancestor
	// context would make the displayed chain misleading — with each
	// ancestor carrying its own invalidation state.
	DerivedFromEntities []Entity `json:"derived_from_entities,omitempty"`
}

// GetTimeline returns filtered activities, newest first, each joined with
// its agent and generated/used/ancestor entities. Returns an empty slice
// when nothing matches.
func (s *Service) GetTimeline(f TimelineFilter) ([]TimelineEntry, error) {
	activities, err := s.filterTimelineActivities(f)
	if err != nil {
		return nil, fmt.Errorf("timeline activities: %w", err)
	}

	if f.TermID != "" && !f.SkipTermUpstream {
		upstream, err := s.termUpstreamActivities(f.TermID)
		if err != nil {
			return nil, fmt.Errorf("term upstream expansion: %w", err)
		}
		activities = mergeActivities(activities, upstream, f.Limit)
	}

	entries := make([]TimelineEntry, 0, len(activities))
	for _, act := range activities {
		entry, err := s.buildTimelineEntry(act, f.IncludeInvalidated)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (s *Service) filterTimelineActivities(f TimelineFilter) ([]Activity, error) {
	query := activitySelect + ` WHERE 1=1`
	args := []any{}

	if f.ExperimentID != "" {
		query += ` AND json_extract(parameters, '$.experiment_id') = ?`
		args = append(args, f.ExperimentID)
	}
	if f.UserID != "" {
		query += ` AND associated_agent_id = ?`
		args = append(args, f.UserID)
	}
	if f.ActivityType != "" {
		query += ` AND activity_type = ?`
		args = append(args, f.ActivityType)
	}
	if f.TermID != "" {
		query += ` AND json_extract(parameters, '$.term_id') = ?`
		args = append(args, f.TermID)
	}
	if docIDs := gatherDocumentIDs(f); len(docIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(docIDs)), ",")
		// Match a single document_id key or membership in a document_ids
		// array parameter.
		query += ` AND (json_extract(parameters, '$.document_id') IN (` + placeholders + `)` +
			` OR EXISTS (SELECT 1 FROM json_each(activities.parameters, '$.document_ids') WHERE json_each.value IN (` + placeholders + `)))`
		for i := 0; i < 2; i++ {
			for _, id := range docIDs {
				args = append(args, id)
			}
		}
	}

	query += ` ORDER BY started_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivities(rows)
}

func gatherDocumentIDs(f TimelineFilter) []string {
	ids := append([]string{}, f.DocumentIDs...)
	if f.DocumentID != "" {
		ids = append(ids, f.DocumentID)
	}
	return ids
}

// termUpstreamActivities applies the one-hop upstream expansion rule for
// term timelines: alongside activities whose parameters reference the term,
// include the single activity that generated the source entity the term's
// own entity was derived from. This lets a term's timeline show the external
// source event that seeded it even though that event's parameters never
// mention the term id. The rule is term-only on purpose; it is not applied
// to document or experiment filters.
func (s *Service) termUpstreamActivities(termID string) ([]Activity, error) {
	rows, err := s.db.Query(`
		SELECT a.id, a.activity_type, a.started_at, a.ended_at, COALESCE(a.associated_agent_id,''), COALESCE(a.parameters,'{}'), a.status, a.created_at
		FROM activities a
		JOIN entities src ON src.generated_by_activity_id = a.id
		JOIN entities term ON term.derived_from_entity_id = src.id
		WHERE json_extract(term.value, '$.term_id') = ?
	`, termID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivities(rows)
}

// mergeActivities unions two activity sets, dedupes by id, re-sorts newest
// first, and re-applies the limit.
func mergeActivities(base, extra []Activity, limit int) []Activity {
	seen := make(map[string]bool, len(base))
	merged := append([]Activity{}, base...)
	for _, a := range base {
		seen[a.ID] = true
	}
	for _, a := range extra {
		if !seen[a.ID] {
			seen[a.ID] = true
			merged = append(merged, a)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].StartedAt.After(merged[j].StartedAt)
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func (s *Service) buildTimelineEntry(act Activity, includeInvalidated bool) (*TimelineEntry, error) {
	entry := &TimelineEntry{Activity: act}

	if act.AssociatedAgentID != "" {
		agent, err := getAgent(s.db, act.AssociatedAgentID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("timeline agent: %w", err)
		}
		entry.Agent = agent
	}

	generated, err := s.entitiesGeneratedBy(act.ID, includeInvalidated)
	if err != nil {
		return nil, fmt.Errorf("timeline generated entities: %w", err)
	}
	entry.GeneratedEntities = generated

	used, err := s.entitiesUsedBy(act.ID, includeInvalidated)
	if err != nil {
		return nil, fmt.Errorf("timeline used entities: %w", err)
	}
	entry.UsedEntities = used

	seen := map[string]bool{}
	for _, e := range generated {
		if e.DerivedFromEntityID == "" || seen[e.DerivedFromEntityID] {
			continue
		}
		seen[e.DerivedFromEntityID] = true
		ancestor, err := getEntity(s.db, e.DerivedFromEntityID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("timeline ancestor entity: %w", err)
		}
		entry.DerivedFromEntities = append(entry.DerivedFromEntities, *ancestor)
	}
	return entry, nil
}

func (s *Service) entitiesGeneratedBy(activityID string, includeInvalidated bool) ([]Entity, error) {
	query := entitySelect + ` WHERE generated_by_activity_id = ?`
	if !includeInvalidated {
		query += ` AND invalidated_at IS NULL`
	}
	query += ` ORDER BY generated_at ASC`

	rows, err := s.db.Query(query, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntities(rows)
}

func (s *Service) entitiesUsedBy(activityID string, includeInvalidated bool) ([]Entity, error) {
	query := `
		SELECT e.id, e.entity_type, e.generated_at, e.invalidated_at, e.generated_by_activity_id, COALESCE(e.attributed_to_agent_id,''), COALESCE(e.derived_from_entity_id,''), COALESCE(e.value,'{}'), COALESCE(e.metadata,'{}'), e.character_start, e.character_end
		FROM entities e
		JOIN relationships r ON r.object_id = e.id
		WHERE r.relationship_type = ? AND r.subject_id = ?`
	if !includeInvalidated {
		query += ` AND e.invalidated_at IS NULL`
	}
	query += ` ORDER BY r.created_at ASC`

	rows, err := s.db.Query(query, RelUsed, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntities(rows)
}
