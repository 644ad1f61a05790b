package parser

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"parsenumber/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind  string
		input string
		want  []string
	}{
		{"csv", "id,Value\n1,2\n", []string{"id", "Value"}},
		{"json", `[{"Value":"2"}]`, []string{"Value"}},
	}
	for _, tt := range tests {
		r, err := New(config.Parser{Kind: tt.kind, Options: config.Options{}}, io.NopCloser(strings.NewReader(tt.input)))
		if err != nil {
			t.Fatalf("New(%s): %v", tt.kind, err)
		}
		if diff := cmp.Diff(tt.want, r.Header().Names()); diff != "" {
			t.Fatalf("%s header mismatch (-want +got):\n%s", tt.kind, diff)
		}
	}

	if _, err := New(config.Parser{Kind: "xml"}, io.NopCloser(strings.NewReader(""))); err == nil {
		t.Fatalf("New(xml) error = nil; want unsupported kind")
	}
}
