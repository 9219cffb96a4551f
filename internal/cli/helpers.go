package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/provgraph/provgraph/internal/config"
	"github.com/provgraph/provgraph/internal/provenance"
)

// openService loads the config and opens the provenance database.
// Callers must Close the returned service.
func openService() (*provenance.Service, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.Database), 0o755); err != nil {
		return nil, nil, err
	}
	svc, err := provenance.Open(cfg.Paths.Database)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// splitCSV is used by flag values that accept comma-separated ids.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
