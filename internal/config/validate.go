package config

import "fmt"

// Severity classifies a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding, addressed by a dotted config path.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline checks a pipeline configuration and returns all findings.
// Errors make the configuration unusable; warnings are advisory.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	errf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, a...)})
	}
	warnf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityWarning, path, fmt.Sprintf(format, a...)})
	}

	if p.Job == "" {
		warnf("job", "job name is empty; logs and metrics will use a blank label")
	}
	if p.Source.Path == "" {
		errf("source.path", "input path is required")
	}
	if p.Source.BatchSize <= 0 {
		errf("source.batch_size", "batch size must be positive, got %d", p.Source.BatchSize)
	}

	c := p.Cleaning
	if c.MinQuantity > c.MaxQuantity {
		errf("cleaning", "min_quantity %v exceeds max_quantity %v", c.MinQuantity, c.MaxQuantity)
	}
	if c.MinPrice > c.MaxPrice {
		errf("cleaning", "min_price %v exceeds max_price %v", c.MinPrice, c.MaxPrice)
	}
	if c.MinDiscount > c.MaxDiscount {
		errf("cleaning", "min_discount %v exceeds max_discount %v", c.MinDiscount, c.MaxDiscount)
	}
	if len(c.DateLayouts) == 0 {
		errf("cleaning.date_layouts", "at least one date layout is required")
	}
	if len(c.RegionSynonyms) == 0 {
		warnf("cleaning.region_synonyms", "empty synonym table; region spellings will pass through unchanged")
	}
	if len(c.CategorySynonyms) == 0 {
		warnf("cleaning.category_synonyms", "empty synonym table; category spellings will pass through unchanged")
	}

	a := p.Aggregate
	if a.TopProducts <= 0 {
		errf("aggregate.top_products", "must be positive, got %d", a.TopProducts)
	}
	if a.AnomalyRecords <= 0 {
		errf("aggregate.anomaly_records", "must be positive, got %d", a.AnomalyRecords)
	}
	if a.BatchTopK < a.AnomalyRecords {
		errf("aggregate.batch_top_k", "batch_top_k %d must be >= anomaly_records %d", a.BatchTopK, a.AnomalyRecords)
	} else if a.AnomalyRecords > 0 && a.BatchTopK < 10*a.AnomalyRecords {
		warnf("aggregate.batch_top_k", "batch_top_k %d is close to anomaly_records %d; global top-N may miss records when one batch holds many winners", a.BatchTopK, a.AnomalyRecords)
	}

	switch p.Output.Kind {
	case "csv":
		if p.Output.Dir == "" {
			errf("output.dir", "output directory is required for the csv sink")
		}
	case "sqlite", "postgres":
		if p.Output.DB.DSN == "" {
			errf("output.db.dsn", "DSN is required for the %s sink", p.Output.Kind)
		}
	default:
		errf("output.kind", "unknown sink kind %q (want csv, sqlite, or postgres)", p.Output.Kind)
	}

	return issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
