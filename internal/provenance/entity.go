package provenance

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityInput describes an entity to create. ActivityID is the one hard
// requirement of the whole engine: an entity with no recorded cause must
// never exist.
type EntityInput struct {
	EntityType          string
	ActivityID          string
	AttributedToAgentID string
	DerivedFromEntityID string
	Value               Payload
	Metadata            Payload
	CharStart           *int
	CharEnd             *int
}

// CreateEntity records an artifact produced by an activity. Fails before
// writing anything when the generating activity is missing or the character
// span violates its ordering invariant.
func (s *Service) CreateEntity(in EntityInput) (*Entity, error) {
	return createEntity(s.db, in)
}

// CreateEntity is the transactional variant of Service.CreateEntity.
func (t *Tx) CreateEntity(in EntityInput) (*Entity, error) {
	return createEntity(t.tx, in)
}

func createEntity(q dbtx, in EntityInput) (*Entity, error) {
	if in.ActivityID == "" {
		return nil, ErrNoGeneratingActivity
	}
	if in.EntityType == "" {
		return nil, fmt.Errorf("entity type is required")
	}
	if err := validateCharSpan(in.CharStart, in.CharEnd); err != nil {
		return nil, err
	}

	valueJSON, err := marshalPayload(in.Value)
	if err != nil {
		return nil, fmt.Errorf("marshal entity value: %w", err)
	}
	metaJSON, err := marshalPayload(in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal entity metadata: %w", err)
	}

	id := uuid.NewString()
	_, err = q.Exec(`
		INSERT INTO entities
		(id, entity_type, generated_at, generated_by_activity_id, attributed_to_agent_id, derived_from_entity_id, value, metadata, character_start, character_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		in.EntityType,
		time.Now().UTC(),
		in.ActivityID,
		nullable(in.AttributedToAgentID),
		nullable(in.DerivedFromEntityID),
		valueJSON,
		metaJSON,
		nullableInt(in.CharStart),
		nullableInt(in.CharEnd),
	)
	if err != nil {
		return nil, fmt.Errorf("insert entity: %w", err)
	}
	return getEntity(q, id)
}

func validateCharSpan(start, end *int) error {
	switch {
	case start == nil && end == nil:
		return nil
	case start == nil || end == nil:
		return fmt.Errorf("%w: both bounds must be set", ErrInvalidCharSpan)
	case *start > *end:
		return fmt.Errorf("%w: start %d > end %d", ErrInvalidCharSpan, *start, *end)
	}
	return nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// GetEntity returns an entity by ID, including invalidated ones.
func (s *Service) GetEntity(id string) (*Entity, error) {
	return getEntity(s.db, id)
}

const entitySelect = `SELECT id, entity_type, generated_at, invalidated_at, generated_by_activity_id, COALESCE(attributed_to_agent_id,''), COALESCE(derived_from_entity_id,''), COALESCE(value,'{}'), COALESCE(metadata,'{}'), character_start, character_end FROM entities`

func getEntity(q dbtx, id string) (*Entity, error) {
	return scanEntityFields(q.QueryRow(entitySelect+` WHERE id = ?`, id))
}

func scanEntityFields(sc rowScanner) (*Entity, error) {
	var e Entity
	var invalidated sql.NullTime
	var valueJSON, metaJSON string
	var start, end sql.NullInt64
	if err := sc.Scan(&e.ID, &e.EntityType, &e.GeneratedAt, &invalidated, &e.GeneratedByActivityID, &e.AttributedToAgentID, &e.DerivedFromEntityID, &valueJSON, &metaJSON, &start, &end); err != nil {
		return nil, err
	}
	if invalidated.Valid {
		t := invalidated.Time
		e.InvalidatedAt = &t
	}
	e.Value = unmarshalPayload(valueJSON)
	e.Metadata = unmarshalPayload(metaJSON)
	if start.Valid {
		v := int(start.Int64)
		e.CharStart = &v
	}
	if end.Valid {
		v := int(end.Int64)
		e.CharEnd = &v
	}
	return &e, nil
}

func collectEntities(rows *sql.Rows) ([]Entity, error) {
	var entities []Entity
	for rows.Next() {
		e, err := scanEntityFields(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, *e)
	}
	return entities, rows.Err()
}
