package provenance

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BeginActivity opens an activity in the "active" state with started_at set
// to now. The activity stays active until CompleteActivity closes it; an
// activity whose operation crashed before completing stays active forever.
func (s *Service) BeginActivity(activityType, agentID string, parameters Payload) (*Activity, error) {
	return beginActivity(s.db, activityType, agentID, parameters)
}

// BeginActivity is the transactional variant of Service.BeginActivity.
func (t *Tx) BeginActivity(activityType, agentID string, parameters Payload) (*Activity, error) {
	return beginActivity(t.tx, activityType, agentID, parameters)
}

func beginActivity(q dbtx, activityType, agentID string, parameters Payload) (*Activity, error) {
	if activityType == "" {
		return nil, fmt.Errorf("activity type is required")
	}
	paramsJSON, err := marshalPayload(parameters)
	if err != nil {
		return nil, fmt.Errorf("marshal activity parameters: %w", err)
	}

	id := uuid.NewString()
	started := time.Now().UTC()
	_, err = q.Exec(`
		INSERT INTO activities (id, activity_type, started_at, associated_agent_id, parameters, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
	`, id, activityType, started, nullable(agentID), paramsJSON, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return getActivity(q, id)
}

// CompleteActivity closes an activity exactly once, stamping ended_at and
// the terminal status (completed or failed). Activities are never re-opened.
func (s *Service) CompleteActivity(activityID, status string) error {
	return completeActivity(s.db, activityID, status)
}

// CompleteActivity is the transactional variant of Service.CompleteActivity.
func (t *Tx) CompleteActivity(activityID, status string) error {
	return completeActivity(t.tx, activityID, status)
}

func completeActivity(q dbtx, activityID, status string) error {
	if status != StatusCompleted && status != StatusFailed {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	res, err := q.Exec(`
		UPDATE activities SET ended_at = ?, status = ? WHERE id = ? AND status = ?
	`, time.Now().UTC(), status, activityID, StatusActive)
	if err != nil {
		return fmt.Errorf("complete activity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete activity: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("complete activity: no active activity %s", activityID)
	}
	return nil
}

// GetActivity returns an activity by ID.
func (s *Service) GetActivity(id string) (*Activity, error) {
	return getActivity(s.db, id)
}

// ActivityFilter selects activities for ListActivities. Params entries
// compile to equality checks on top-level keys inside the parameters
// payload.
type ActivityFilter struct {
	ActivityType string
	AgentID      string
	Params       map[string]string
	Limit        int
}

// ListActivities returns activities matching the filter, ordered by
// started_at descending for chronological presentation.
func (s *Service) ListActivities(filter ActivityFilter) ([]Activity, error) {
	query := activitySelect + ` WHERE 1=1`
	args := []any{}

	if filter.ActivityType != "" {
		query += " AND activity_type = ?"
		args = append(args, filter.ActivityType)
	}
	if filter.AgentID != "" {
		query += " AND associated_agent_id = ?"
		args = append(args, filter.AgentID)
	}
	for key, val := range filter.Params {
		if !validParamKey(key) {
			return nil, fmt.Errorf("invalid parameter key %q", key)
		}
		query += " AND json_extract(parameters, '$." + key + "') = ?"
		args = append(args, val)
	}

	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivities(rows)
}

// validParamKey restricts payload filter keys to plain identifiers, since
// the key becomes part of the json_extract path expression.
func validParamKey(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

const activitySelect = `SELECT id, activity_type, started_at, ended_at, COALESCE(associated_agent_id,''), COALESCE(parameters,'{}'), status, created_at FROM activities`

func getActivity(q dbtx, id string) (*Activity, error) {
	return scanActivityFields(q.QueryRow(activitySelect+` WHERE id = ?`, id))
}

func scanActivityFields(sc rowScanner) (*Activity, error) {
	var a Activity
	var ended sql.NullTime
	var paramsJSON string
	if err := sc.Scan(&a.ID, &a.ActivityType, &a.StartedAt, &ended, &a.AssociatedAgentID, &paramsJSON, &a.Status, &a.CreatedAt); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		a.EndedAt = &t
	}
	a.Parameters = unmarshalPayload(paramsJSON)
	return &a, nil
}

func collectActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		a, err := scanActivityFields(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}
