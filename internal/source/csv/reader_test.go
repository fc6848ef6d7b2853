package csv

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
)

const header = "order_id,product_name,category,quantity,unit_price,discount_percent,region,sale_date,revenue"

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func dataRow(id string) string {
	return id + ",Laptop,Electronics,2,10.50,5,Europe,2024-03-15,"
}

// TestOpenErrors checks each structural failure maps to its error kind.
func TestOpenErrors(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		_, err := Open(filepath.Join(t.TempDir(), "nope.csv"), 10)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("zero bytes", func(t *testing.T) {
		t.Parallel()
		_, err := Open(writeFile(t, ""), 10)
		if !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("err = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("header only", func(t *testing.T) {
		t.Parallel()
		_, err := Open(writeFile(t, header+"\n"), 10)
		if !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("err = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("missing required column", func(t *testing.T) {
		t.Parallel()
		content := "order_id,product_name,category\nORD1,Laptop,Electronics\n"
		_, err := Open(writeFile(t, content), 10)
		if !errors.Is(err, ErrMalformedInput) {
			t.Fatalf("err = %v, want ErrMalformedInput", err)
		}
	})

	t.Run("bad batch size", func(t *testing.T) {
		t.Parallel()
		_, err := Open(writeFile(t, header+"\n"+dataRow("ORD1")+"\n"), 0)
		if err == nil {
			t.Fatal("Open accepted batch size 0")
		}
	})
}

// TestNextBatching checks rows come back in order, in bounded batches, with
// io.EOF at the end.
func TestNextBatching(t *testing.T) {
	t.Parallel()

	content := header + "\n"
	ids := []string{"ORD1", "ORD2", "ORD3", "ORD4", "ORD5"}
	for _, id := range ids {
		content += dataRow(id) + "\n"
	}

	r, err := Open(writeFile(t, content), 2)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx := context.Background()
	var sizes []int
	var got []string
	for {
		batch, err := r.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		sizes = append(sizes, len(batch))
		for _, row := range batch {
			got = append(got, row[records.ColOrderID].(string))
		}
	}

	if !reflect.DeepEqual(sizes, []int{2, 2, 1}) {
		t.Errorf("batch sizes = %v, want [2 2 1]", sizes)
	}
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("row order = %v, want %v", got, ids)
	}

	// Exhausted readers keep returning io.EOF.
	if _, err := r.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Next after EOF = %v, want io.EOF", err)
	}
}

// TestHeaderNormalization checks BOM stripping and header canonicalization.
func TestHeaderNormalization(t *testing.T) {
	t.Parallel()

	content := "\uFEFFOrder ID,Product Name,Category,Quantity,Unit Price,Discount Percent,Region,Sale Date,Revenue\n" +
		dataRow("ORD1") + "\n"
	r, err := Open(writeFile(t, content), 10)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if !reflect.DeepEqual(r.Info().Columns, records.Columns) {
		t.Fatalf("Columns = %v, want %v", r.Info().Columns, records.Columns)
	}
}

// TestNullTokens checks empty cells and textual null spellings become nil.
func TestNullTokens(t *testing.T) {
	t.Parallel()

	content := header + "\n" +
		"ORD1,NULL,null,NA,N/A,,Europe,2024-03-15,\n"
	r, err := Open(writeFile(t, content), 10)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	batch, err := r.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	row := batch[0]
	for _, col := range []string{
		records.ColProductName, records.ColCategory, records.ColQuantity,
		records.ColUnitPrice, records.ColDiscountPercent, records.ColRevenue,
	} {
		if row[col] != nil {
			t.Errorf("%s = %#v, want nil", col, row[col])
		}
	}
	if row[records.ColOrderID] != "ORD1" {
		t.Errorf("order_id = %#v", row[records.ColOrderID])
	}
}

// TestInfo checks the open-time file details.
func TestInfo(t *testing.T) {
	t.Parallel()

	content := header + "\n" + dataRow("ORD1") + "\n"
	path := writeFile(t, content)
	r, err := Open(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	info := r.Info()
	if info.Path != path {
		t.Errorf("Path = %q, want %q", info.Path, path)
	}
	if info.SizeBytes != int64(len(content)) {
		t.Errorf("SizeBytes = %d, want %d", info.SizeBytes, len(content))
	}
}

// TestCancelledContext checks Next honors cancellation between batches.
func TestCancelledContext(t *testing.T) {
	t.Parallel()

	content := header + "\n" + dataRow("ORD1") + "\n"
	r, err := Open(writeFile(t, content), 10)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Next on cancelled ctx = %v, want context.Canceled", err)
	}
}
