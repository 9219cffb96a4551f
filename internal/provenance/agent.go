package provenance

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GetOrCreateAgent returns the agent with the given type and name, creating
// it on first reference. If an agent already exists under the same name but
// a different type, its type is corrected in place rather than creating a
// duplicate. Concurrent creation races resolve through the UNIQUE(agent_type,
// name) constraint: the losing insert falls back to a lookup.
func (s *Service) GetOrCreateAgent(agentType, name string, metadata Payload) (*Agent, error) {
	return getOrCreateAgent(s.db, agentType, name, metadata)
}

// GetOrCreateAgent is the transactional variant of Service.GetOrCreateAgent.
func (t *Tx) GetOrCreateAgent(agentType, name string, metadata Payload) (*Agent, error) {
	return getOrCreateAgent(t.tx, agentType, name, metadata)
}

func getOrCreateAgent(q dbtx, agentType, name string, metadata Payload) (*Agent, error) {
	if !validAgentType(agentType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAgentType, agentType)
	}
	if name == "" {
		return nil, fmt.Errorf("agent name is required")
	}

	if a, err := lookupAgent(q, agentType, name); err == nil {
		return a, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup agent: %w", err)
	}

	// A known canonical name recorded under the wrong type is corrected in
	// place instead of duplicated.
	if a, err := lookupAgentByName(q, name); err == nil {
		_, err := q.Exec(`UPDATE agents SET agent_type = ?, updated_at = datetime('now') WHERE id = ?`, agentType, a.ID)
		if err != nil {
			return nil, fmt.Errorf("correct agent type: %w", err)
		}
		a.AgentType = agentType
		return a, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup agent by name: %w", err)
	}

	metaJSON, err := marshalPayload(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal agent metadata: %w", err)
	}
	id := uuid.NewString()
	_, err = q.Exec(`
		INSERT INTO agents (id, agent_type, name, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'), datetime('now'))
	`, id, agentType, name, metaJSON)
	if err != nil {
		// Lost a concurrent creation race: the unique constraint fired, so
		// the winner's row is there to fetch.
		if a, lookupErr := lookupAgent(q, agentType, name); lookupErr == nil {
			return a, nil
		}
		return nil, fmt.Errorf("insert agent: %w", err)
	}
	return lookupAgent(q, agentType, name)
}

// GetAgent returns an agent by ID.
func (s *Service) GetAgent(id string) (*Agent, error) {
	return scanAgent(s.db.QueryRow(agentSelect+` WHERE id = ?`, id))
}

// ListAgents returns all agents sorted by name.
func (s *Service) ListAgents() ([]Agent, error) {
	rows, err := s.db.Query(agentSelect + ` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		a, err := scanAgentRow(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

const agentSelect = `SELECT id, agent_type, name, COALESCE(email,''), COALESCE(url,''), COALESCE(metadata,'{}'), created_at, updated_at FROM agents`

func lookupAgent(q dbtx, agentType, name string) (*Agent, error) {
	return scanAgent(q.QueryRow(agentSelect+` WHERE agent_type = ? AND name = ?`, agentType, name))
}

func lookupAgentByName(q dbtx, name string) (*Agent, error) {
	return scanAgent(q.QueryRow(agentSelect+` WHERE name = ? LIMIT 1`, name))
}

func getAgent(q dbtx, id string) (*Agent, error) {
	return scanAgent(q.QueryRow(agentSelect+` WHERE id = ?`, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgentFields(sc rowScanner) (*Agent, error) {
	var a Agent
	var metaJSON string
	var created, updated time.Time
	if err := sc.Scan(&a.ID, &a.AgentType, &a.Name, &a.Email, &a.URL, &metaJSON, &created, &updated); err != nil {
		return nil, err
	}
	a.Metadata = unmarshalPayload(metaJSON)
	a.CreatedAt = created
	a.UpdatedAt = updated
	return &a, nil
}

func scanAgent(row *sql.Row) (*Agent, error)      { return scanAgentFields(row) }
func scanAgentRow(rows *sql.Rows) (*Agent, error) { return scanAgentFields(rows) }

func validAgentType(t string) bool {
	switch t {
	case AgentPerson, AgentOrganization, AgentSoftwareAgent:
		return true
	}
	return false
}
