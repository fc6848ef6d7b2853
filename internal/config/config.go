// Package config defines the JSON-serializable configuration model for the
// sales pipeline. It is intentionally small, explicit, and dependency-free so
// that pipeline files can be loaded from disk and passed through the program
// without additional glue code.
//
// A pipeline file only needs to state what differs from Default(); decoding
// happens on top of the defaults, so partial files are valid.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for logs and metric labels.
	Job string `json:"job"`

	Source    Source    `json:"source"`
	Cleaning  Cleaning  `json:"cleaning"`
	Aggregate Aggregate `json:"aggregate"`
	Output    Output    `json:"output"`
	Logging   Logging   `json:"logging"`
}

// Source describes the input file and chunking.
type Source struct {
	// Path is the local filesystem path to the input CSV.
	Path string `json:"path"`

	// BatchSize is the number of rows pulled per chunk.
	BatchSize int `json:"batch_size"`
}

// Cleaning holds the validation bounds, accepted date layouts, and synonym
// tables used by the cleaning rules. None of these are hard-coded in the
// rules themselves.
type Cleaning struct {
	MinQuantity float64 `json:"min_quantity"`
	MaxQuantity float64 `json:"max_quantity"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	MinDiscount float64 `json:"min_discount"`
	MaxDiscount float64 `json:"max_discount"`

	// DateLayouts are tried in order; the first successful parse wins.
	DateLayouts []string `json:"date_layouts"`

	// RegionSynonyms and CategorySynonyms map folded (lowercased, trimmed)
	// spellings to canonical labels. Lookup misses leave values unchanged.
	RegionSynonyms   map[string]string `json:"region_synonyms"`
	CategorySynonyms map[string]string `json:"category_synonyms"`
}

// Aggregate controls the report sizes and the per-batch candidate retention.
type Aggregate struct {
	// TopProducts is the N for the top-products report.
	TopProducts int `json:"top_products"`

	// AnomalyRecords is the N for the anomaly report.
	AnomalyRecords int `json:"anomaly_records"`

	// BatchTopK is the number of high-revenue records retained per batch for
	// global top-N selection. The global result is exact only while no single
	// batch contains more than BatchTopK of the eventual winners, so
	// BatchTopK must be >= AnomalyRecords and should be much larger.
	BatchTopK int `json:"batch_top_k"`
}

// Output selects the report sink.
type Output struct {
	// Kind selects the sink implementation: "csv", "sqlite", or "postgres".
	Kind string `json:"kind"`

	// Dir is the output directory for the "csv" sink.
	Dir string `json:"dir"`

	// DB configures the "sqlite" and "postgres" sinks.
	DB DBConfig `json:"db"`
}

// DBConfig configures a database report sink.
type DBConfig struct {
	// DSN is the connection string (a file path or URI for sqlite, a
	// postgresql:// URL for postgres).
	DSN string `json:"dsn"`

	// TablePrefix is prepended to the report table names, e.g. "sales_".
	TablePrefix string `json:"table_prefix"`
}

// Logging configures the logrus setup.
type Logging struct {
	// Level is a logrus level name; the LOG_LEVEL env var wins when set.
	Level string `json:"level"`

	// File, when set, duplicates output into a size-rotated log file.
	File string `json:"file"`

	// MaxSizeMB caps the rotated file size (lumberjack MaxSize).
	MaxSizeMB int `json:"max_size_mb"`

	// JSON switches the formatter to JSON output.
	JSON bool `json:"json"`
}

// Default returns the stock pipeline configuration. Bounds, synonym tables,
// and date layouts match the reference dataset.
func Default() Pipeline {
	return Pipeline{
		Job: "sales_pipeline",
		Source: Source{
			Path:      "data/ecommerce_sales.csv",
			BatchSize: 100_000,
		},
		Cleaning: Cleaning{
			// MinQuantity 0 keeps zero-quantity records (cancellations,
			// returns); set to 1 to keep actual sales only.
			MinQuantity: 0,
			MaxQuantity: 10_000,
			MinPrice:    0.01,
			MaxPrice:    100_000,
			MinDiscount: 0,
			MaxDiscount: 100,
			DateLayouts: []string{
				"2006-01-02",
				"01/02/2006",
				"02/01/2006",
				"2006/01/02",
				"01-02-2006",
				"02-01-2006",
				"20060102",
				"01/02/06",
				"02/01/06",
			},
			RegionSynonyms:   defaultRegionSynonyms(),
			CategorySynonyms: defaultCategorySynonyms(),
		},
		Aggregate: Aggregate{
			TopProducts:    10,
			AnomalyRecords: 5,
			BatchTopK:      1000,
		},
		Output: Output{
			Kind: "csv",
			Dir:  "data/output",
		},
		Logging: Logging{
			Level:     "info",
			MaxSizeMB: 100,
		},
	}
}

// Load decodes a pipeline file on top of Default().
func Load(path string) (Pipeline, error) {
	p := Default()
	f, err := os.Open(path)
	if err != nil {
		return p, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

func defaultRegionSynonyms() map[string]string {
	return map[string]string{
		"north america": "North America",
		"n. america":    "North America",
		"n america":     "North America",
		"northamerica":  "North America",
		"na":            "North America",

		"europe": "Europe",
		"eu":     "Europe",
		"europa": "Europe",

		"asia":  "Asia",
		"asian": "Asia",

		"south america": "South America",
		"s. america":    "South America",
		"s america":     "South America",
		"southamerica":  "South America",
		"sa":            "South America",

		"africa":  "Africa",
		"african": "Africa",

		"oceania":   "Oceania",
		"australia": "Oceania",
		"pacific":   "Oceania",
	}
}

func defaultCategorySynonyms() map[string]string {
	return map[string]string{
		"electronics": "Electronics",
		"electronic":  "Electronics",
		"electrnics":  "Electronics",
		"elctronics":  "Electronics",

		"clothing": "Clothing",
		"clothes":  "Clothing",
		"apparel":  "Clothing",
		"fashion":  "Clothing",

		"home & garden":   "Home & Garden",
		"home and garden": "Home & Garden",
		"home":            "Home & Garden",
		"garden":          "Home & Garden",

		"sports":         "Sports",
		"sport":          "Sports",
		"sporting goods": "Sports",

		"books": "Books",
		"book":  "Books",

		"toys":         "Toys",
		"toy":          "Toys",
		"toys & games": "Toys",

		"food":            "Food & Beverage",
		"beverage":        "Food & Beverage",
		"food & beverage": "Food & Beverage",
	}
}
