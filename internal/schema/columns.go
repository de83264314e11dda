package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Columns maps a fully-qualified table name to its ordered column list.
// Loaded once at startup and never mutated afterwards; the sanitizer
// reads it to expand wildcard projections.
type Columns map[string][]string

// Catalog is the static schema knowledge the pipeline carries: the
// column map plus the ordered guideline list injected into the SQL
// generation prompt.
type Catalog struct {
	Tables     Columns  `yaml:"tables"`
	Guidelines []string `yaml:"guidelines"`
}

// Default returns the compiled-in catalog for the Argo float database.
// Used when no schema file is configured or the file cannot be read.
func Default() *Catalog {
	return &Catalog{
		Tables: Columns{
			"public.profiles": {
				"profile_id", "file_name", "platform_number", "cycle_number",
				"data_mode", "profile_time", "latitude", "longitude",
			},
			"public.measurements": {
				"measurement_id", "profile_id", "level_index", "pres", "temp",
				"psal", "pres_qc", "temp_qc", "psal_qc", "pres_error", "temp_error", "psal_error",
			},
		},
		Guidelines: []string{
			"Use valid PostgreSQL syntax.",
			"Avoid SELECT * on large tables; select key columns.",
			"Return only SQL, no explanation.",
			"Use fully-qualified table names.",
			"Columns exactly as in schema.",
			"platform_number identifies floats; profile_id links profiles and measurements.",
		},
	}
}

// Load reads a catalog from a YAML file. Missing sections fall back to
// the compiled-in default so a partial file stays usable.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema catalog: %w", err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse schema catalog: %w", err)
	}
	def := Default()
	if len(cat.Tables) == 0 {
		cat.Tables = def.Tables
	}
	if len(cat.Guidelines) == 0 {
		cat.Guidelines = def.Guidelines
	}
	return &cat, nil
}
