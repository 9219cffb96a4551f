package provenance

import (
	"fmt"

	"github.com/google/uuid"
)

// CreateRelationship records a typed edge between two records. The relation
// kind and both endpoint roles are validated against their closed sets; the
// kind's conventional subject/object pairing is documented in schema.go but
// deliberately not enforced — a mismatched pairing is a caller error.
func (s *Service) CreateRelationship(relType, subjectType, subjectID, objectType, objectID string, metadata Payload) (*Relationship, error) {
	return createRelationship(s.db, relType, subjectType, subjectID, objectType, objectID, metadata)
}

// CreateRelationship is the transactional variant of
// Service.CreateRelationship.
func (t *Tx) CreateRelationship(relType, subjectType, subjectID, objectType, objectID string, metadata Payload) (*Relationship, error) {
	return createRelationship(t.tx, relType, subjectType, subjectID, objectType, objectID, metadata)
}

func createRelationship(q dbtx, relType, subjectType, subjectID, objectType, objectID string, metadata Payload) (*Relationship, error) {
	if !validRelationshipType(relType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRelationshipType, relType)
	}
	if !validRole(subjectType) {
		return nil, fmt.Errorf("%w: subject %q", ErrInvalidRole, subjectType)
	}
	if !validRole(objectType) {
		return nil, fmt.Errorf("%w: object %q", ErrInvalidRole, objectType)
	}
	if subjectID == "" || objectID == "" {
		return nil, fmt.Errorf("relationship subject and object ids are required")
	}

	metaJSON, err := marshalPayload(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal relationship metadata: %w", err)
	}
	id := uuid.NewString()
	_, err = q.Exec(`
		INSERT INTO relationships (id, relationship_type, subject_type, subject_id, object_type, object_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`, id, relType, subjectType, subjectID, objectType, objectID, metaJSON)
	if err != nil {
		return nil, fmt.Errorf("insert relationship: %w", err)
	}
	return getRelationship(q, id)
}

// ListRelationshipsFor returns every relationship where the given record
// appears as subject or object, oldest first.
func (s *Service) ListRelationshipsFor(recordID string) ([]Relationship, error) {
	rows, err := s.db.Query(relationshipSelect+` WHERE subject_id = ? OR object_id = ? ORDER BY created_at ASC`, recordID, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []Relationship
	for rows.Next() {
		r, err := scanRelationshipFields(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, *r)
	}
	return rels, rows.Err()
}

const relationshipSelect = `SELECT id, relationship_type, subject_type, subject_id, object_type, object_id, COALESCE(metadata,'{}'), created_at FROM relationships`

func getRelationship(q dbtx, id string) (*Relationship, error) {
	return scanRelationshipFields(q.QueryRow(relationshipSelect+` WHERE id = ?`, id))
}

func scanRelationshipFields(sc rowScanner) (*Relationship, error) {
	var r Relationship
	var metaJSON string
	if err := sc.Scan(&r.ID, &r.RelationshipType, &r.SubjectType, &r.SubjectID, &r.ObjectType, &r.ObjectID, &metaJSON, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Metadata = unmarshalPayload(metaJSON)
	return &r, nil
}

func validRelationshipType(t string) bool {
	switch t {
	case RelWasGeneratedBy, RelWasAssociatedWith, RelWasDerivedFrom,
		RelWasInformedBy, RelActedOnBehalfOf, RelWasAttributedTo,
		RelUsed, RelWasStartedBy, RelWasEndedBy:
		return true
	}
	return false
}

func validRole(r string) bool {
	switch r {
	case RoleEntity, RoleActivity, RoleAgent:
		return true
	}
	return false
}
