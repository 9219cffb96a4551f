package provenance

import (
	"fmt"
	"strings"
)

// DeleteMode selects the deletion semantics.
type DeleteMode string

const (
	// ModePurge removes rows and every relationship edge touching them.
	ModePurge DeleteMode = "purge"
	// ModeInvalidate stamps invalidated_at, retaining rows for audit.
	ModeInvalidate DeleteMode = "invalidate"
	// ModeDefault resolves to the purge_on_delete setting.
	ModeDefault DeleteMode = ""
)

// DeleteResult reports the outcome of a deletion call. A missing target is a
// structured failure (OK=false) rather than an error, so cascading callers
// can report partial progress without aborting.
type DeleteResult struct {
	OK                   bool       `json:"ok"`
	Reason               string     `json:"reason,omitempty"`
	Mode                 DeleteMode `json:"mode"`
	EntitiesDeleted      int        `json:"entities_deleted"`
	EntitiesInvalidated  int        `json:"entities_invalidated"`
	RelationshipsDeleted int        `json:"relationships_deleted"`
}

func (s *Service) resolveMode(mode DeleteMode) DeleteMode {
	if mode != ModeDefault {
		return mode
	}
	if s.PurgeOnDelete() {
		return ModePurge
	}
	return ModeInvalidate
}

// DeleteOrInvalidateEntity purges or invalidates a single entity. With
// ModeDefault the purge_on_delete setting decides.
func (s *Service) DeleteOrInvalidateEntity(entityID string, mode DeleteMode) (*DeleteResult, error) {
	mode = s.resolveMode(mode)

	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entities WHERE id = ?`, entityID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check entity: %w", err)
	}
	if exists == 0 {
		return &DeleteResult{OK: false, Reason: "entity not found", Mode: mode}, nil
	}
	return s.applyDeletion([]string{entityID}, mode)
}

// DeleteDocumentFamily purges or invalidates every entity whose value
// payload references any of the given document ids.
func (s *Service) DeleteDocumentFamily(documentIDs []string, mode DeleteMode) (*DeleteResult, error) {
	mode = s.resolveMode(mode)
	if len(documentIDs) == 0 {
		return &DeleteResult{OK: true, Mode: mode}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(documentIDs)), ",")
	query := `SELECT id FROM entities WHERE json_extract(value, '$.document_id') IN (` + placeholders + `)` +
		` OR EXISTS (SELECT 1 FROM json_each(entities.value, '$.document_ids') WHERE json_each.value IN (` + placeholders + `))`
	args := make([]any, 0, 2*len(documentIDs))
	for i := 0; i < 2; i++ {
		for _, id := range documentIDs {
			args = append(args, id)
		}
	}
	ids, err := s.collectIDs(query, args...)
	if err != nil {
		return nil, fmt.Errorf("resolve document family: %w", err)
	}
	return s.applyDeletion(ids, mode)
}

// DeleteTermRecords purges or invalidates every entity whose value payload
// references the term.
func (s *Service) DeleteTermRecords(termID string, mode DeleteMode) (*DeleteResult, error) {
	mode = s.resolveMode(mode)
	ids, err := s.collectIDs(`SELECT id FROM entities WHERE json_extract(value, '$.term_id') = ?`, termID)
	if err != nil {
		return nil, fmt.Errorf("resolve term records: %w", err)
	}
	return s.applyDeletion(ids, mode)
}

// DeleteExperimentRecords purges or invalidates every entity whose value
// payload references the experiment.
func (s *Service) DeleteExperimentRecords(experimentID string, mode DeleteMode) (*DeleteResult, error) {
	mode = s.resolveMode(mode)
	ids, err := s.collectIDs(`SELECT id FROM entities WHERE json_extract(value, '$.experiment_id') = ?`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("resolve experiment records: %w", err)
	}
	return s.applyDeletion(ids, mode)
}

func (s *Service) collectIDs(query string, args ...any) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// applyDeletion runs the whole batch inside one transaction: either every
// target is removed/invalidated or none are.
func (s *Service) applyDeletion(entityIDs []string, mode DeleteMode) (*DeleteResult, error) {
	result := &DeleteResult{OK: true, Mode: mode}
	if len(entityIDs) == 0 {
		return result, nil
	}

	err := s.WithTx(func(tx *Tx) error {
		if mode == ModeInvalidate {
			n, err := invalidateEntities(tx.tx, entityIDs)
			if err != nil {
				return err
			}
			result.EntitiesInvalidated = n
			return nil
		}
		for _, id := range entityIDs {
			rels, err := purgeEntity(tx.tx, id)
			if err != nil {
				return err
			}
			result.EntitiesDeleted++
			result.RelationshipsDeleted += rels
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func invalidateEntities(q dbtx, ids []string) (int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := q.Exec(`UPDATE entities SET invalidated_at = datetime('now') WHERE id IN (`+placeholders+`) AND invalidated_at IS NULL`, args...)
	if err != nil {
		return 0, fmt.Errorf("invalidate entities: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("invalidate entities: %w", err)
	}
	return int(n), nil
}

// purgeEntity hard-deletes one entity in two phases: first clear incoming
// derivation pointers and drop every relationship edge mentioning the
// entity, then delete the row. Clearing pointers first is what keeps sibling
// entities from holding a dangling derived_from reference.
func purgeEntity(q dbtx, entityID string) (relationshipsDeleted int, err error) {
	if _, err := q.Exec(`UPDATE entities SET derived_from_entity_id = NULL WHERE derived_from_entity_id = ?`, entityID); err != nil {
		return 0, fmt.Errorf("clear derivation pointers: %w", err)
	}
	res, err := q.Exec(`DELETE FROM relationships WHERE subject_id = ? OR object_id = ?`, entityID, entityID)
	if err != nil {
		return 0, fmt.Errorf("delete relationships: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete relationships: %w", err)
	}
	if _, err := q.Exec(`DELETE FROM entities WHERE id = ?`, entityID); err != nil {
		return 0, fmt.Errorf("delete entity: %w", err)
	}
	return int(n), nil
}
