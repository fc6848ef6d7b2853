package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefault spot-checks the stock configuration.
func TestDefault(t *testing.T) {
	t.Parallel()

	p := Default()
	if p.Source.BatchSize != 100_000 {
		t.Errorf("BatchSize = %d, want 100000", p.Source.BatchSize)
	}
	if p.Cleaning.MaxQuantity != 10_000 || p.Cleaning.MinPrice != 0.01 || p.Cleaning.MaxDiscount != 100 {
		t.Errorf("bounds = %+v", p.Cleaning)
	}
	if len(p.Cleaning.DateLayouts) != 9 || p.Cleaning.DateLayouts[0] != "2006-01-02" {
		t.Errorf("DateLayouts = %v", p.Cleaning.DateLayouts)
	}
	if p.Cleaning.RegionSynonyms["n. america"] != "North America" {
		t.Errorf("region synonyms missing n. america")
	}
	if p.Cleaning.CategorySynonyms["apparel"] != "Clothing" {
		t.Errorf("category synonyms missing apparel")
	}
	if p.Aggregate.TopProducts != 10 || p.Aggregate.AnomalyRecords != 5 || p.Aggregate.BatchTopK != 1000 {
		t.Errorf("aggregate defaults = %+v", p.Aggregate)
	}
	if p.Output.Kind != "csv" {
		t.Errorf("Output.Kind = %q, want csv", p.Output.Kind)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadPartial checks a partial file overrides only what it states.
func TestLoadPartial(t *testing.T) {
	t.Parallel()

	p, err := Load(writeConfig(t, `{
		"job": "nightly",
		"source": {"path": "/tmp/in.csv", "batch_size": 500},
		"output": {"kind": "sqlite", "db": {"dsn": "reports.db"}}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if p.Job != "nightly" || p.Source.Path != "/tmp/in.csv" || p.Source.BatchSize != 500 {
		t.Errorf("overrides not applied: %+v", p.Source)
	}
	if p.Output.Kind != "sqlite" || p.Output.DB.DSN != "reports.db" {
		t.Errorf("output override not applied: %+v", p.Output)
	}
	// Untouched sections keep their defaults.
	if p.Cleaning.MaxQuantity != 10_000 {
		t.Errorf("defaults lost: MaxQuantity = %v", p.Cleaning.MaxQuantity)
	}
	if p.Aggregate.BatchTopK != 1000 {
		t.Errorf("defaults lost: BatchTopK = %v", p.Aggregate.BatchTopK)
	}
}

// TestLoadRejectsUnknownFields checks typos in config files fail loudly.
func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, `{"sorce": {"path": "x"}}`))
	if err == nil {
		t.Fatal("Load accepted an unknown field")
	}
}

// TestValidatePipeline covers the error and warning paths.
func TestValidatePipeline(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(Default()); HasErrors(issues) {
		t.Fatalf("default config invalid: %+v", issues)
	}

	cases := []struct {
		name    string
		mutate  func(*Pipeline)
		wantErr bool
	}{
		{"zero batch size", func(p *Pipeline) { p.Source.BatchSize = 0 }, true},
		{"inverted quantity bounds", func(p *Pipeline) { p.Cleaning.MinQuantity = 5; p.Cleaning.MaxQuantity = 1 }, true},
		{"no date layouts", func(p *Pipeline) { p.Cleaning.DateLayouts = nil }, true},
		{"top products zero", func(p *Pipeline) { p.Aggregate.TopProducts = 0 }, true},
		{"pool smaller than report", func(p *Pipeline) { p.Aggregate.BatchTopK = 3; p.Aggregate.AnomalyRecords = 5 }, true},
		{"small pool warns only", func(p *Pipeline) { p.Aggregate.BatchTopK = 20; p.Aggregate.AnomalyRecords = 5 }, false},
		{"unknown sink", func(p *Pipeline) { p.Output.Kind = "kafka" }, true},
		{"sqlite without dsn", func(p *Pipeline) { p.Output.Kind = "sqlite" }, true},
	}
	for _, c := range cases {
		p := Default()
		c.mutate(&p)
		issues := ValidatePipeline(p)
		if got := HasErrors(issues); got != c.wantErr {
			t.Errorf("%s: HasErrors = %v, want %v (issues: %+v)", c.name, got, c.wantErr, issues)
		}
	}

	// The small-pool case still surfaces as a warning.
	p := Default()
	p.Aggregate.BatchTopK = 20
	found := false
	for _, iss := range ValidatePipeline(p) {
		if iss.Severity == SeverityWarning && strings.Contains(iss.Path, "batch_top_k") {
			found = true
		}
	}
	if !found {
		t.Error("small batch_top_k produced no warning")
	}
}
