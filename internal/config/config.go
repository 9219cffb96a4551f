// Package config provides configuration types and loading for provgraph.
package config

// Config is the root configuration struct.
type Config struct {
	Paths PathsConfig `json:"paths"`
	Query QueryConfig `json:"query"`
}

// PathsConfig groups filesystem path settings. Fields carry no envconfig
// name tag: a named tag doubles as an unprefixed fallback key, which for
// Home would let the ambient HOME variable override the config.
type PathsConfig struct {
	// Home is the provgraph data directory. PROVGRAPH_PATHS_HOME.
	Home string `json:"home"`
	// Database is the SQLite database path. Defaults to
	// <home>/provenance.db when empty. PROVGRAPH_PATHS_DATABASE.
	Database string `json:"database"`
}

// QueryConfig groups read-side defaults.
type QueryConfig struct {
	// TimelineLimit caps timeline entries when the caller passes no limit.
	// PROVGRAPH_QUERY_TIMELINE_LIMIT.
	TimelineLimit int `json:"timelineLimit" split_words:"true"`
	// GraphActivityLimit caps the activity window of graph projections.
	// PROVGRAPH_QUERY_GRAPH_ACTIVITY_LIMIT.
	GraphActivityLimit int `json:"graphActivityLimit" split_words:"true"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Query: QueryConfig{
			TimelineLimit:      100,
			GraphActivityLimit: 50,
		},
	}
}
