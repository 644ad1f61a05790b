// Package datasource opens the raw input stream of a run.
package datasource

import (
	"context"
	"fmt"
	"io"
	"time"

	"parsenumber/internal/config"
	"parsenumber/internal/datasource/file"
	"parsenumber/internal/datasource/httpds"
)

// Source yields the raw bytes of the input.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the input in log lines.
	Name() string
}

// New builds the Source configured by s.
func New(s config.Source) (Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		return httpds.New(httpds.Config{
			URL:                s.HTTP.URL,
			Headers:            s.HTTP.Headers,
			Timeout:            time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
		}), nil
	default:
		return nil, fmt.Errorf("datasource: unsupported kind %q", s.Kind)
	}
}
