// Package track provides feature-facing tracking helpers: one call per
// consequential action (document upload, metadata extraction, term edit,
// LLM enhancement, experiment run). Each helper resolves the responsible
// agent and records the full activity/entity/relationship group atomically,
// so a failed step never leaves an orphan activity behind.
package track

import (
	"log/slog"

	"github.com/provgraph/provgraph/internal/provenance"
)

// Activity types recorded by the helpers.
const (
	ActivityDocumentUpload     = "document_upload"
	ActivityDocumentVersion    = "document_version"
	ActivityMetadataExtraction = "metadata_extraction"
	ActivityTermCreation       = "term_creation"
	ActivityTermEdit           = "term_edit"
	ActivityEnhancement        = "llm_enhancement"
	ActivityExperimentRun      = "experiment_run"
)

// Entity types recorded by the helpers.
const (
	EntityDocument         = "document"
	EntityMetadata         = "metadata"
	EntityTerm             = "term"
	EntityTermRevision     = "term_revision"
	EntityEnhancement      = "enhancement"
	EntityExperimentResult = "experiment_result"
)

// Tracker wraps the provenance engine write API for feature code.
type Tracker struct {
	svc *provenance.Service
}

// New returns a tracker over the given engine.
func New(svc *provenance.Service) *Tracker {
	return &Tracker{svc: svc}
}

// RecordDocumentUpload records a user uploading a new document and returns
// the document entity.
func (t *Tracker) RecordDocumentUpload(userName, documentID, title string) (*provenance.Entity, error) {
	var entity *provenance.Entity
	err := t.svc.WithTx(func(tx *provenance.Tx) error {
		agent, err := tx.GetOrCreateAgent(provenance.AgentPerson, userName, nil)
		if err != nil {
			return err
		}
		act, err := tx.BeginActivity(ActivityDocumentUpload, agent.ID, provenance.Payload{
			"document_id": documentID,
			"title":       title,
		})
		if err != nil {
			return err
		}

		value := provenance.Payload{"document_id": documentID, "title": title}
		OriginalVersion().apply(value)
		entity, err = tx.CreateEntity(provenance.EntityInput{
			EntityType:          EntityDocument,
			ActivityID:          act.ID,
			AttributedToAgentID: agent.ID,
			Value:               value,
		})
		if err != nil {
			return err
		}
		return tx.CompleteActivity(act.ID, provenance.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Tracked document upload", "document", documentID, "user", userName)
	return entity, nil
}

// RecordDocumentVersion records a new version of a document derived from an
// earlier document entity. The version variant lands in the entity value and
// the generating activity records a "used" edge to the source entity.
func (t *Tracker) RecordDocumentVersion(userName, documentID, title string, version Version, sourceEntityID string) (*provenance.Entity, error) {
	var entity *provenance.Entity
	err := t.svc.WithTx(func(tx *provenance.Tx) error {
		agent, err := tx.GetOrCreateAgent(provenance.AgentPerson, userName, nil)
		if err != nil {
			return err
		}
		act, err := tx.BeginActivity(ActivityDocumentVersion, agent.ID, provenance.Payload{
			"document_id": documentID,
			"title":       title,
		})
		if err != nil {
			return err
		}

		value := provenance.Payload{"document_id": documentID, "title": title}
		version.apply(value)
		entity, err = tx.CreateEntity(provenance.EntityInput{
			EntityType:          EntityDocument,
			ActivityID:          act.ID,
			AttributedToAgentID: agent.ID,
			DerivedFromEntityID: sourceEntityID,
			Value:               value,
		})
		if err != nil {
			return err
		}
		if sourceEntityID != "" {
			if _, err := tx.CreateRelationship(provenance.RelUsed, provenance.RoleActivity, act.ID, provenance.RoleEntity, sourceEntityID, nil); err != nil {
				return err
			}
		}
		return tx.CompleteActivity(act.ID, provenance.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Tracked document version", "document", documentID, "kind", version.Kind)
	return entity, nil
}

// RecordMetadataExtraction records metadata pulled from a named external
// source (a bibliographic API, a dictionary service) for a document. Credit
// goes to the source's software agent, which may differ from the activity's
// actor.
func (t *Tracker) RecordMetadataExtraction(sourceName, documentID string, fields provenance.Payload, documentEntityID string) (*provenance.Entity, error) {
	var entity *provenance.Entity
	err := t.svc.WithTx(func(tx *provenance.Tx) error {
		source, err := tx.GetOrCreateAgent(provenance.AgentSoftwareAgent, sourceName, nil)
		if err != nil {
			return err
		}
		act, err := tx.BeginActivity(ActivityMetadataExtraction, source.ID, provenance.Payload{
			"document_id": documentID,
			"source":      sourceName,
		})
		if err != nil {
			return err
		}

		value := provenance.Payload{"document_id": documentID, "source": sourceName}
		for k, v := range fields {
			value[k] = v
		}
		entity, err = tx.CreateEntity(provenance.EntityInput{
			EntityType:          EntityMetadata,
			ActivityID:          act.ID,
			AttributedToAgentID: source.ID,
			DerivedFromEntityID: documentEntityID,
			Value:               value,
		})
		if err != nil {
			return err
		}
		if documentEntityID != "" {
			if _, err := tx.CreateRelationship(provenance.RelUsed, provenance.RoleActivity, act.ID, provenance.RoleEntity, documentEntityID, nil); err != nil {
				return err
			}
		}
		return tx.CompleteActivity(act.ID, provenance.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Tracked metadata extraction", "document", documentID, "source", sourceName)
	return entity, nil
}

// RecordTermCreation records a term seeded from a source entity (typically a
// metadata or document entity produced by an external source event). The
// derivation pointer is what later lets the term's timeline surface that
// upstream event.
func (t *Tracker) RecordTermCreation(userName, termID, headword, sourceEntityID string) (*provenance.Entity, error) {
	var entity *provenance.Entity
	err := t.svc.WithTx(func(tx *provenance.Tx) error {
		agent, err := tx.GetOrCreateAgent(provenance.AgentPerson, userName, nil)
		if err != nil {
			return err
		}
		act, err := tx.BeginActivity(ActivityTermCreation, agent.ID, provenance.Payload{
			"term_id":  termID,
			"headword": headword,
		})
		if err != nil {
			return err
		}
		entity, err = tx.CreateEntity(provenance.EntityInput{
			EntityType:          EntityTerm,
			ActivityID:          act.ID,
			AttributedToAgentID: agent.ID,
			DerivedFromEntityID: sourceEntityID,
			Value:               provenance.Payload{"term_id": termID, "headword": headword},
		})
		if err != nil {
			return err
		}
		if sourceEntityID != "" {
			if _, err := tx.CreateRelationship(provenance.RelUsed, provenance.RoleActivity, act.ID, provenance.RoleEntity, sourceEntityID, nil); err != nil {
				return err
			}
		}
		return tx.CompleteActivity(act.ID, provenance.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Tracked term creation", "term", termID, "user", userName)
	return entity, nil
}

// RecordTermEdit records an edit to a term with a before/after diff, derived
// from the term's previous revision entity.
func (t *Tracker) RecordTermEdit(userName, termID, field, before, after, previousEntityID string) (*provenance.Entity, error) {
	var entity *provenance.Entity
	err := t.svc.WithTx(func(tx *provenance.Tx) error {
		agent, err := tx.GetOrCreateAgent(provenance.AgentPerson, userName, nil)
		if err != nil {
			return err
		}
		act, err := tx.BeginActivity(ActivityTermEdit, agent.ID, provenance.Payload{
			"term_id": termID,
			"field":   field,
		})
		if err != nil {
			return err
		}
		entity, err = tx.CreateEntity(provenance.EntityInput{
			EntityType:          EntityTermRevision,
			ActivityID:          act.ID,
			AttributedToAgentID: agent.ID,
			DerivedFromEntityID: previousEntityID,
			Value: provenance.Payload{
				"term_id": termID,
				"field":   field,
				"before":  before,
				"after":   after,
			},
		})
		if err != nil {
			return err
		}
		return tx.CompleteActivity(act.ID, provenance.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Tracked term edit", "term", termID, "field", field)
	return entity, nil
}

// RecordEnhancement records an LLM-assisted enhancement of a field. The
// model is the activity's software agent; the enhanced entity derives from
// the entity the model rewrote.
func (t *Tracker) RecordEnhancement(modelName, documentID, field, before, after, sourceEntityID string) (*provenance.Entity, error) {
	var entity *provenance.Entity
	err := t.svc.WithTx(func(tx *provenance.Tx) error {
		model, err := tx.GetOrCreateAgent(provenance.AgentSoftwareAgent, modelName, nil)
		if err != nil {
			return err
		}
		act, err := tx.BeginActivity(ActivityEnhancement, model.ID, provenance.Payload{
			"document_id": documentID,
			"field":       field,
			"model":       modelName,
		})
		if err != nil {
			return err
		}
		entity, err = tx.CreateEntity(provenance.EntityInput{
			EntityType:          EntityEnhancement,
			ActivityID:          act.ID,
			AttributedToAgentID: model.ID,
			DerivedFromEntityID: sourceEntityID,
			Value: provenance.Payload{
				"document_id": documentID,
				"field":       field,
				"before":      before,
				"after":       after,
			},
		})
		if err != nil {
			return err
		}
		if sourceEntityID != "" {
			if _, err := tx.CreateRelationship(provenance.RelUsed, provenance.RoleActivity, act.ID, provenance.RoleEntity, sourceEntityID, nil); err != nil {
				return err
			}
		}
		return tx.CompleteActivity(act.ID, provenance.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Tracked enhancement", "document", documentID, "model", modelName)
	return entity, nil
}

// RecordExperimentRun records an experiment run over a set of input
// entities, producing a result entity and a "used" edge per input.
func (t *Tracker) RecordExperimentRun(userName, experimentID, name string, inputEntityIDs []string, results provenance.Payload) (*provenance.Entity, error) {
	var entity *provenance.Entity
	err := t.svc.WithTx(func(tx *provenance.Tx) error {
		agent, err := tx.GetOrCreateAgent(provenance.AgentPerson, userName, nil)
		if err != nil {
			return err
		}
		act, err := tx.BeginActivity(ActivityExperimentRun, agent.ID, provenance.Payload{
			"experiment_id": experimentID,
			"name":          name,
		})
		if err != nil {
			return err
		}

		value := provenance.Payload{"experiment_id": experimentID, "name": name}
		for k, v := range results {
			value[k] = v
		}
		entity, err = tx.CreateEntity(provenance.EntityInput{
			EntityType:          EntityExperimentResult,
			ActivityID:          act.ID,
			AttributedToAgentID: agent.ID,
			Value:               value,
		})
		if err != nil {
			return err
		}
		for _, inputID := range inputEntityIDs {
			if _, err := tx.CreateRelationship(provenance.RelUsed, provenance.RoleActivity, act.ID, provenance.RoleEntity, inputID, nil); err != nil {
				return err
			}
		}
		return tx.CompleteActivity(act.ID, provenance.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Tracked experiment run", "experiment", experimentID, "inputs", len(inputEntityIDs))
	return entity, nil
}
