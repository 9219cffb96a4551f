package provenance

import (
	"database/sql"
	"errors"
)

// GetLineage returns the ancestor chain of an entity, most-recent-first,
// starting with the entity itself and following derived_from pointers until
// an entity with no predecessor. Derivation pointers form a DAG by
// construction, but traversal tracks visited ids and stops on a repeat, so
// an artificially introduced cycle yields the partial chain instead of a
// hang. An unknown id yields an empty chain, not an error.
func (s *Service) GetLineage(entityID string) ([]Entity, error) {
	var chain []Entity
	visited := map[string]bool{}

	id := entityID
	for id != "" && !visited[id] {
		visited[id] = true
		e, err := getEntity(s.db, id)
		if errors.Is(err, sql.ErrNoRows) {
			break
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, *e)
		id = e.DerivedFromEntityID
	}
	return chain, nil
}
