package track

import "github.com/provgraph/provgraph/internal/provenance"

// VersionKind tags how a document version came to exist. Modeled as an
// explicit variant instead of probing payloads for the presence of source
// pointers.
type VersionKind string

const (
	VersionOriginal     VersionKind = "original"
	VersionDerived      VersionKind = "derived"
	VersionExperimental VersionKind = "experimental"
	VersionComposite    VersionKind = "composite"
)

// Version is the tagged variant: exactly the fields the kind calls for are
// set.
type Version struct {
	Kind         VersionKind
	SourceID     string   // Derived: the single upstream document
	ExperimentID string   // Experimental: the producing experiment
	SourceIDs    []string // Composite: every merged upstream document
}

// OriginalVersion tags a first upload with no predecessor.
func OriginalVersion() Version {
	return Version{Kind: VersionOriginal}
}

// DerivedVersion tags a version produced from one earlier document.
func DerivedVersion(sourceID string) Version {
	return Version{Kind: VersionDerived, SourceID: sourceID}
}

// ExperimentalVersion tags a version produced by an experiment run.
func ExperimentalVersion(experimentID string) Version {
	return Version{Kind: VersionExperimental, ExperimentID: experimentID}
}

// CompositeVersion tags a version merged from several earlier documents.
func CompositeVersion(sourceIDs ...string) Version {
	return Version{Kind: VersionComposite, SourceIDs: sourceIDs}
}

// apply writes the variant into an entity value payload.
func (v Version) apply(p provenance.Payload) {
	p["version_kind"] = string(v.Kind)
	switch v.Kind {
	case VersionDerived:
		p["source_id"] = v.SourceID
	case VersionExperimental:
		p["experiment_id"] = v.ExperimentID
	case VersionComposite:
		ids := make([]any, len(v.SourceIDs))
		for i, id := range v.SourceIDs {
			ids[i] = id
		}
		p["source_ids"] = ids
	}
}
