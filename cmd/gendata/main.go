package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/gen"
)

// main generates a synthetic sales CSV for pipeline testing and demos.
func main() {
	rows := flag.Int("rows", 1_000_000, "number of rows to generate")
	out := flag.String("out", "data/ecommerce_sales.csv", "output CSV path")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	issueRate := flag.Float64("issue-rate", 0.1, "fraction of rows with an injected quality problem")
	flag.Parse()

	g := gen.New(*seed, *issueRate)
	start := time.Now()
	if err := g.WriteCSV(*out, *rows); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d rows to %s in %s\n", *rows, *out, time.Since(start).Truncate(time.Millisecond))
}
