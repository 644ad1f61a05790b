package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"parsenumber/internal/metrics/datadog"
	"parsenumber/internal/metrics/prompush"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("METRICS_BACKEND", "")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

/* TestRoot_RunsPipelineToCSV verifies the CLI reads a CSV file and writes the rewritten rows. */
func TestRoot_RunsPipelineToCSV(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", "Name,Value\na,42\nb,foo\nc,-7\nd,\n")
	out := filepath.Join(dir, "out.csv")
	cfg := writeFile(t, dir, "pipeline.json", `{
  "job": "cli",
  "source":   {"kind": "file", "file": {"path": "`+in+`"}},
  "parser":   {"kind": "csv", "options": {"has_header": true}},
  "operator": {"kind": "parse_number", "options": {"column": "Value", "type": "Int"}},
  "storage":  {"kind": "csv", "db": {"dsn": "`+out+`"}}
}`)

	if logs, err := execute(t, "-c", cfg); err != nil {
		t.Fatalf("execute: %v\n%s", err, logs)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "Name,INT(Value)\na,42\nb,\nc,-7\nd,\n"
	if got := string(b); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRoot_ValidateOnly(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "pipeline.json", `{
  "job": "cli",
  "source":   {"kind": "file", "file": {"path": "does-not-exist.csv"}},
  "parser":   {"kind": "csv"},
  "operator": {"kind": "parse_number", "options": {"column": "Value", "type": "Double"}},
  "storage":  {"kind": "csv"}
}`)
	logs, err := execute(t, "--validate", "-c", cfg)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, logs)
	}
	if !strings.Contains(logs, "configuration is valid") {
		t.Fatalf("got logs %q want a validity message", logs)
	}
}

func TestRoot_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "pipeline.json", `{
  "job": "",
  "source":   {"kind": "file", "file": {"path": "in.csv"}},
  "parser":   {"kind": "csv"},
  "operator": {"kind": "parse_number", "options": {}},
  "storage":  {"kind": "csv"}
}`)
	logs, err := execute(t, "-c", cfg)
	if err == nil {
		t.Fatalf("expected error for invalid config")
	}
	for _, want := range []string{"error: job:", "error: operator.options.column:"} {
		if !strings.Contains(logs, want) {
			t.Fatalf("got logs %q want %q", logs, want)
		}
	}
}

/* TestRoot_SetupErrorFails verifies an unknown column fails the run. */
func TestRoot_SetupErrorFails(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", "a\n1\n")
	cfg := writeFile(t, dir, "pipeline.json", `{
  "job": "cli",
  "source":   {"kind": "file", "file": {"path": "`+in+`"}},
  "parser":   {"kind": "csv"},
  "operator": {"kind": "parse_number", "options": {"column": "missing"}},
  "storage":  {"kind": "csv", "db": {"dsn": "`+filepath.Join(dir, "out.csv")+`"}}
}`)
	if _, err := execute(t, "-c", cfg); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("got %v want unknown column error", err)
	}
}

/* TestProbe_PrintsColumns verifies the probe subcommand samples the input and prints a table. */
func TestProbe_PrintsColumns(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", "Name,Value\na,1\nb,2.5\n")
	cfg := writeFile(t, dir, "pipeline.json", `{
  "job": "cli",
  "source": {"kind": "file", "file": {"path": "`+in+`"}},
  "parser": {"kind": "csv"}
}`)
	out, err := execute(t, "probe", "-c", cfg, "--rows", "5")
	if err != nil {
		t.Fatalf("probe: %v\n%s", err, out)
	}
	for _, want := range []string{"rows sampled: 2", "Name", "Value", "Double"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestNewMetricsBackend(t *testing.T) {
	t.Setenv("METRICS_BACKEND", "")

	b, err := newMetricsBackend(options{}, "job")
	if err != nil || b != nil {
		t.Fatalf("default: got %v, %v want nil, nil", b, err)
	}

	b, err = newMetricsBackend(options{metricsBackend: "pushgateway", pushgatewayURL: "http://127.0.0.1:1"}, "job")
	if err != nil {
		t.Fatalf("pushgateway: %v", err)
	}
	if _, ok := b.(*prompush.Backend); !ok {
		t.Fatalf("got %T want *prompush.Backend", b)
	}

	b, err = newMetricsBackend(options{metricsBackend: "datadog", datadogAddr: "127.0.0.1:8125"}, "job")
	if err != nil {
		t.Fatalf("datadog: %v", err)
	}
	if _, ok := b.(*datadog.Backend); !ok {
		t.Fatalf("got %T want *datadog.Backend", b)
	}
	_ = b.Flush()

	if _, err := newMetricsBackend(options{metricsBackend: "graphite"}, "job"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}

	t.Setenv("METRICS_BACKEND", "none")
	if b, err := newMetricsBackend(options{}, "job"); err != nil || b != nil {
		t.Fatalf("env none: got %v, %v", b, err)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Fatalf("got %q want b", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Fatalf("got %q want empty", got)
	}
}
