// Package config defines the JSON-serializable pipeline configuration for the
// parsenumber runner. Pipelines are loaded from disk and passed through the
// program without additional glue code.
//
// Example:
//
//	{
//	  "job":      "parse-values",
//	  "source":   { "kind": "file", "file": { "path": "in.csv" } },
//	  "parser":   { "kind": "csv", "options": { "has_header": true } },
//	  "operator": { "kind": "parse_number", "options": { "column": "Value", "type": "Int" } },
//	  "storage":  { "kind": "sqlite", "db": { "dsn": "out.db", "table": "values", "auto_create_table": true } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline describes the full run: where rows come from, which operator
// rewrites them, and where the result goes.
type Pipeline struct {
	// Job names the run; it labels metrics and log lines.
	Job string `json:"job"`

	Source   Source        `json:"source"`
	Parser   Parser        `json:"parser"`
	Operator Operator      `json:"operator"`
	Storage  Storage       `json:"storage"`
	Runtime  RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls batching and channel buffer sizes.
type RuntimeConfig struct {
	BatchSize     int `json:"batch_size"`
	ChannelBuffer int `json:"channel_buffer"`
}

// Source identifies the data source. Kinds: "file", "http".
type Source struct {
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind. Path "-" reads
// stdin.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`

	// TimeoutSeconds bounds the whole download; 0 means 30s.
	TimeoutSeconds     int  `json:"timeout_seconds"`
	MaxRetries         int  `json:"max_retries"`
	InsecureSkipVerify bool `json:"insecure_skip_verify"`
}

// Parser selects how raw bytes become rows. Kinds: "csv", "json".
type Parser struct {
	Kind string `json:"kind"`

	// Options is interpreted by the parser implementation. For CSV:
	//   has_header (bool), comma (string), trim_space (bool),
	//   lazy_quotes (bool), header_map (object)
	// For JSON:
	//   ndjson (bool)
	Options Options `json:"options"`
}

// Operator selects the row-set operator and its argument values. Option
// keys are the operator's argument keys; values are strings.
type Operator struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Storage selects the sink for rewritten rows.
type Storage struct {
	// Kind is one of "sqlite", "postgres", "mssql", "mysql", "csv".
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the sink.
type DBConfig struct {
	// DSN is the driver connection string. For the "csv" sink it is the
	// output path; empty or "-" writes to stdout.
	DSN string `json:"dsn"`

	// Table is the destination table name (e.g. "public.values").
	Table string `json:"table"`

	// AutoCreateTable creates the destination table from the rewritten
	// header when it does not exist.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Load reads and decodes the pipeline file at path.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p Pipeline
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// Options is a small helper to fetch typed values from free-form JSON maps.
// It performs minimal coercion and returns the provided default when a key
// is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns the string-valued entries of the object at key. Returns
// an empty map when the key is missing or not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// Strings returns the top-level string-valued entries of o.
func (o Options) Strings() map[string]string {
	res := make(map[string]string, len(o))
	for k, v := range o {
		if s, ok := v.(string); ok {
			res[k] = s
		}
	}
	return res
}

// UnmarshalJSON decodes a missing or null options object to an empty,
// non-nil Options.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
