package provenance

import (
	"database/sql"
	"errors"
	"fmt"
)

// Node kinds in the projected graph.
const (
	NodeEntity   = "entity"
	NodeActivity = "activity"
	NodeAgent    = "agent"
)

const defaultGraphActivityLimit = 50

// GraphFilter selects the activity window the graph is projected from.
type GraphFilter struct {
	ExperimentID       string
	DocumentID         string
	TermID             string
	ActivityType       string
	Limit              int
	IncludeInvalidated bool
}

// GraphNode is one node in the node-link projection.
type GraphNode struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	IsOrigin    bool   `json:"is_origin,omitempty"`
	Invalidated bool   `json:"invalidated,omitempty"`
}

// GraphEdge is a directed edge labeled with its PROV relation kind.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// GraphStats summarizes the projection.
type GraphStats struct {
	EntityCount   int `json:"entity_count"`
	ActivityCount int `json:"activity_count"`
	AgentCount    int `json:"agent_count"`
	EdgeCount     int `json:"edge_count"`
}

// Graph is the node-link projection returned to visualization clients.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Stats GraphStats  `json:"stats"`
}

// graphBuilder accumulates deduped nodes and edges.
type graphBuilder struct {
	nodes []GraphNode
	edges []GraphEdge
	seen  map[string]bool
}

func (b *graphBuilder) addNode(n GraphNode) {
	if b.seen[n.ID] {
		return
	}
	b.seen[n.ID] = true
	b.nodes = append(b.nodes, n)
}

func (b *graphBuilder) addEdge(source, target, label string) {
	key := "edge:" + source + ">" + target + ":" + label
	if b.seen[key] {
		return
	}
	b.seen[key] = true
	b.edges = append(b.edges, GraphEdge{Source: source, Target: target, Label: label})
}

// GetGraphData projects the filtered activity set into nodes and edges for
// interactive visualization: one node per distinct agent/activity/entity
// touched, with wasGeneratedBy (entity→activity), wasAssociatedWith
// (activity→agent), and one-hop wasDerivedFrom (entity→entity) edges. A
// derivation source outside the filtered window is surfaced as a node but
// not expanded further. When a single document is filtered, the document's
// root upload entity/activity/agent is always seeded as a pinned origin so
// the graph never appears to start mid-history.
func (s *Service) GetGraphData(f GraphFilter) (*Graph, error) {
	if f.Limit <= 0 {
		f.Limit = defaultGraphActivityLimit
	}

	activities, err := s.filterTimelineActivities(TimelineFilter{
		ExperimentID: f.ExperimentID,
		DocumentID:   f.DocumentID,
		TermID:       f.TermID,
		ActivityType: f.ActivityType,
		Limit:        f.Limit,
		// The graph never walks term upstream; that rule is timeline-only.
		SkipTermUpstream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("graph activities: %w", err)
	}

	b := &graphBuilder{seen: map[string]bool{}}

	if f.DocumentID != "" {
		if err := s.seedDocumentOrigin(b, f.DocumentID); err != nil {
			return nil, fmt.Errorf("graph origin: %w", err)
		}
	}

	for _, act := range activities {
		if err := s.projectActivity(b, act, f.IncludeInvalidated); err != nil {
			return nil, err
		}
	}

	g := &Graph{Nodes: b.nodes, Edges: b.edges}
	if g.Nodes == nil {
		g.Nodes = []GraphNode{}
	}
	if g.Edges == nil {
		g.Edges = []GraphEdge{}
	}
	for _, n := range g.Nodes {
		switch n.Kind {
		case NodeEntity:
			g.Stats.EntityCount++
		case NodeActivity:
			g.Stats.ActivityCount++
		case NodeAgent:
			g.Stats.AgentCount++
		}
	}
	g.Stats.EdgeCount = len(g.Edges)
	return g, nil
}

func (s *Service) projectActivity(b *graphBuilder, act Activity, includeInvalidated bool) error {
	b.addNode(GraphNode{
		ID:    act.ID,
		Kind:  NodeActivity,
		Label: nodeLabel(act.Parameters, act.ActivityType),
		Type:  act.ActivityType,
	})

	if act.AssociatedAgentID != "" {
		agent, err := getAgent(s.db, act.AssociatedAgentID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("graph agent: %w", err)
		}
		if agent != nil {
			b.addNode(GraphNode{ID: agent.ID, Kind: NodeAgent, Label: agent.Name, Type: agent.AgentType})
			b.addEdge(act.ID, agent.ID, RelWasAssociatedWith)
		}
	}

	generated, err := s.entitiesGeneratedBy(act.ID, includeInvalidated)
	if err != nil {
		return fmt.Errorf("graph generated entities: %w", err)
	}
	for _, e := range generated {
		b.addNode(GraphNode{
			ID:          e.ID,
			Kind:        NodeEntity,
			Label:       nodeLabel(e.Value, e.EntityType),
			Type:        e.EntityType,
			Invalidated: e.Invalidated(),
		})
		b.addEdge(e.ID, act.ID, RelWasGeneratedBy)

		if e.DerivedFromEntityID == "" {
			continue
		}
		// One derivation hop: the source is surfaced even when its own
		// generating activity falls outside the window, but not expanded.
		src, err := getEntity(s.db, e.DerivedFromEntityID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("graph derivation source: %w", err)
		}
		b.addNode(GraphNode{
			ID:          src.ID,
			Kind:        NodeEntity,
			Label:       nodeLabel(src.Value, src.EntityType),
			Type:        src.EntityType,
			Invalidated: src.Invalidated(),
		})
		b.addEdge(e.ID, src.ID, RelWasDerivedFrom)
	}
	return nil
}

// seedDocumentOrigin pins the document's root upload entity, its generating
// activity, and that activity's agent, flagging the entity node IsOrigin.
func (s *Service) seedDocumentOrigin(b *graphBuilder, documentID string) error {
	root, err := scanEntityFields(s.db.QueryRow(entitySelect+`
		WHERE json_extract(value, '$.document_id') = ? AND derived_from_entity_id IS NULL
		ORDER BY generated_at ASC LIMIT 1
	`, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	b.addNode(GraphNode{
		ID:          root.ID,
		Kind:        NodeEntity,
		Label:       nodeLabel(root.Value, root.EntityType),
		Type:        root.EntityType,
		IsOrigin:    true,
		Invalidated: root.Invalidated(),
	})

	act, err := getActivity(s.db, root.GeneratedByActivityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	b.addNode(GraphNode{
		ID:    act.ID,
		Kind:  NodeActivity,
		Label: nodeLabel(act.Parameters, act.ActivityType),
		Type:  act.ActivityType,
	})
	b.addEdge(root.ID, act.ID, RelWasGeneratedBy)

	if act.AssociatedAgentID != "" {
		agent, err := getAgent(s.db, act.AssociatedAgentID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if agent != nil {
			b.addNode(GraphNode{ID: agent.ID, Kind: NodeAgent, Label: agent.Name, Type: agent.AgentType})
			b.addEdge(act.ID, agent.ID, RelWasAssociatedWith)
		}
	}
	return nil
}

// nodeLabel picks a readable label: a title-like payload field first, then a
// document/term identifier, then the raw type string.
func nodeLabel(p Payload, fallbackType string) string {
	for _, key := range []string{"title", "name", "headword", "document_id", "term_id", "experiment_id"} {
		if v := p.String(key); v != "" {
			return v
		}
	}
	return fallbackType
}
