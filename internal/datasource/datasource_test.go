package datasource

import (
	"testing"

	"parsenumber/internal/config"
)

func TestNew(t *testing.T) {
	src, err := New(config.Source{Kind: "file", File: config.SourceFile{Path: "in.csv"}})
	if err != nil {
		t.Fatalf("New(file): %v", err)
	}
	if src.Name() != "in.csv" {
		t.Fatalf("Name() = %q; want in.csv", src.Name())
	}
	src, err = New(config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: "https://example.com/in.csv"}})
	if err != nil {
		t.Fatalf("New(http): %v", err)
	}
	if src.Name() != "https://example.com/in.csv" {
		t.Fatalf("Name() = %q; want the URL", src.Name())
	}
	if _, err := New(config.Source{Kind: "s3"}); err == nil {
		t.Fatalf("New(s3) error = nil; want unsupported kind")
	}
}
