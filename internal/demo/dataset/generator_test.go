package dataset

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestGeneratorDeterministicForSeed(t *testing.T) {
	g1 := NewGenerator(42)
	g2 := NewGenerator(42)

	for i := 0; i < 10; i++ {
		r1 := g1.Next()
		r2 := g2.Next()
		if !reflect.DeepEqual(r1, r2) {
			t.Fatalf("row %d differs: %#v vs %#v", i, r1, r2)
		}
	}
}

func TestGeneratorRowsAreInternallyConsistent(t *testing.T) {
	g := NewGenerator(7)
	seen := map[string]struct{}{}

	for i := 1; i <= 200; i++ {
		row := g.Next()

		if row.TransactionID != "TX-"+pad6(i) {
			t.Fatalf("TransactionID = %q, want TX-%s", row.TransactionID, pad6(i))
		}
		if _, ok := seen[row.TransactionID]; ok {
			t.Fatalf("duplicate transaction id: %s", row.TransactionID)
		}
		seen[row.TransactionID] = struct{}{}

		date, err := time.Parse("2006-01-02", row.TransactionDate)
		if err != nil {
			t.Fatalf("TransactionDate = %q: %v", row.TransactionDate, err)
		}
		if int64(date.Year()) != row.FiscalYear {
			t.Fatalf("FiscalYear = %d, date year = %d", row.FiscalYear, date.Year())
		}
		if row.FiscalYear < 2022 || row.FiscalYear > 2025 {
			t.Fatalf("FiscalYear = %d out of range", row.FiscalYear)
		}
		if quarterOf(date) != row.FiscalQuarter {
			t.Fatalf("FiscalQuarter = %q, want %q for %s", row.FiscalQuarter, quarterOf(date), row.TransactionDate)
		}
		if row.UnitsSold < 1 || row.UnitsSold > 50 {
			t.Fatalf("UnitsSold = %d out of range", row.UnitsSold)
		}
		if _, ok := unitPrice[row.ProductCategory]; !ok {
			t.Fatalf("unknown ProductCategory %q", row.ProductCategory)
		}
		if row.TransactionValue <= 0 {
			t.Fatalf("TransactionValue = %f", row.TransactionValue)
		}
	}
}

func TestQuarterOf(t *testing.T) {
	cases := map[string]string{
		"2024-01-15": "Q1",
		"2024-03-31": "Q1",
		"2024-04-01": "Q2",
		"2024-09-30": "Q3",
		"2024-12-25": "Q4",
	}
	for date, want := range cases {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			t.Fatalf("parse %q: %v", date, err)
		}
		if got := quarterOf(parsed); got != want {
			t.Fatalf("quarterOf(%s) = %q, want %q", date, got, want)
		}
	}
}

func pad6(n int) string {
	s := strconv.Itoa(n)
	return strings.Repeat("0", 6-len(s)) + s
}
