package provenance

import (
	"time"
)

// Agent types per the PROV-O vocabulary.
const (
	AgentPerson        = "Person"
	AgentOrganization  = "Organization"
	AgentSoftwareAgent = "SoftwareAgent"
)

// Activity statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Subject/object roles a relationship endpoint may take.
const (
	RoleEntity   = "entity"
	RoleActivity = "activity"
	RoleAgent    = "agent"
)

// The nine recognized PROV-O relation kinds.
//
// Conventional subject/object pairings (reference only, not enforced —
// callers are trusted to pair correctly):
//
//	wasGeneratedBy    entity   → activity
//	wasAssociatedWith activity → agent
//	wasDerivedFrom    entity   → entity
//	wasInformedBy     activity → activity
//	actedOnBehalfOf   agent    → agent
//	wasAttributedTo   entity   → agent
//	used              activity → entity
//	wasStartedBy      activity → entity
//	wasEndedBy        activity → entity
const (
	RelWasGeneratedBy    = "wasGeneratedBy"
	RelWasAssociatedWith = "wasAssociatedWith"
	RelWasDerivedFrom    = "wasDerivedFrom"
	RelWasInformedBy     = "wasInformedBy"
	RelActedOnBehalfOf   = "actedOnBehalfOf"
	RelWasAttributedTo   = "wasAttributedTo"
	RelUsed              = "used"
	RelWasStartedBy      = "wasStartedBy"
	RelWasEndedBy        = "wasEndedBy"
)

// Agent is an actor (person, organization, or software) responsible for
// activities. Created once via dedup-by-name, never deleted by this engine.
type Agent struct {
	ID        string    `json:"id"`
	AgentType string    `json:"agent_type"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	URL       string    `json:"url,omitempty"`
	Metadata  Payload   `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Activity is a time-bounded action. Opened as "active" and closed exactly
// once; an activity that is never completed stays active forever, which
// still satisfies the causality invariant for anything it generated.
type Activity struct {
	ID                string     `json:"id"`
	ActivityType      string     `json:"activity_type"`
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	AssociatedAgentID string     `json:"associated_agent_id,omitempty"`
	Parameters        Payload    `json:"parameters,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Entity is an artifact produced by an activity. Immutable once generated
// except for invalidation. GeneratedByActivityID is never empty.
type Entity struct {
	ID                    string     `json:"id"`
	EntityType            string     `json:"entity_type"`
	GeneratedAt           time.Time  `json:"generated_at"`
	InvalidatedAt         *time.Time `json:"invalidated_at,omitempty"`
	GeneratedByActivityID string     `json:"generated_by_activity_id"`
	AttributedToAgentID   string     `json:"attributed_to_agent_id,omitempty"`
	DerivedFromEntityID   string     `json:"derived_from_entity_id,omitempty"`
	Value                 Payload    `json:"value,omitempty"`
	Metadata              Payload    `json:"metadata,omitempty"`
	CharStart             *int       `json:"character_start,omitempty"`
	CharEnd               *int       `json:"character_end,omitempty"`
}

// Invalidated reports whether the entity has been soft-deleted.
func (e *Entity) Invalidated() bool { return e.InvalidatedAt != nil }

// Relationship is an explicit typed edge between two records, for relations
// not already implied by Entity's own FK columns (chiefly "used" and
// "wasInformedBy"). Append-only; purge is the only operation that removes
// relationships.
type Relationship struct {
	ID               string    `json:"id"`
	RelationshipType string    `json:"relationship_type"`
	SubjectType      string    `json:"subject_type"`
	SubjectID        string    `json:"subject_id"`
	ObjectType       string    `json:"object_type"`
	ObjectID         string    `json:"object_id"`
	Metadata         Payload   `json:"metadata,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Stats holds row counts for the status command.
type Stats struct {
	Agents              int `json:"agents"`
	Activities          int `json:"activities"`
	ActiveActivities    int `json:"active_activities"`
	FailedActivities    int `json:"failed_activities"`
	Entities            int `json:"entities"`
	InvalidatedEntities int `json:"invalidated_entities"`
	Relationships       int `json:"relationships"`
}

const Schema = `
CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	agent_type TEXT NOT NULL,
	name TEXT NOT NULL,
	email TEXT DEFAULT '',
	url TEXT DEFAULT '',
	metadata TEXT DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(agent_type, name)
);
CREATE INDEX IF NOT EXISTS idx_agents_name ON agents(name);

CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	activity_type TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	ended_at DATETIME,
	associated_agent_id TEXT REFERENCES agents(id),
	parameters TEXT DEFAULT '{}',
	status TEXT NOT NULL DEFAULT 'active',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_activities_started ON activities(started_at);
CREATE INDEX IF NOT EXISTS idx_activities_type ON activities(activity_type);
CREATE INDEX IF NOT EXISTS idx_activities_agent ON activities(associated_agent_id);

CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	generated_at DATETIME NOT NULL,
	invalidated_at DATETIME,
	generated_by_activity_id TEXT NOT NULL REFERENCES activities(id),
	attributed_to_agent_id TEXT REFERENCES agents(id),
	derived_from_entity_id TEXT REFERENCES entities(id),
	value TEXT DEFAULT '{}',
	metadata TEXT DEFAULT '{}',
	character_start INTEGER,
	character_end INTEGER
);
CREATE INDEX IF NOT EXISTS idx_entities_activity ON entities(generated_by_activity_id);
CREATE INDEX IF NOT EXISTS idx_entities_derived ON entities(derived_from_entity_id);
CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(entity_type);

CREATE TABLE IF NOT EXISTS relationships (
	id TEXT PRIMARY KEY,
	relationship_type TEXT NOT NULL,
	subject_type TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	object_type TEXT NOT NULL,
	object_id TEXT NOT NULL,
	metadata TEXT DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_relationships_subject ON relationships(subject_id);
CREATE INDEX IF NOT EXISTS idx_relationships_object ON relationships(object_id);
CREATE INDEX IF NOT EXISTS idx_relationships_type ON relationships(relationship_type);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT,
	updated_at DATETIME
);
`
