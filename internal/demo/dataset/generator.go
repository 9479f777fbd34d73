package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Transaction is one synthetic sales record. Field tags drive the
// parquet writer; CSV headers are assigned separately so the file
// looks like a hand-maintained export.
type Transaction struct {
	TransactionID    string  `parquet:"transaction_id"`
	FiscalYear       int64   `parquet:"fiscal_year"`
	FiscalQuarter    string  `parquet:"fiscal_quarter"`
	TransactionDate  string  `parquet:"transaction_date"`
	Country          string  `parquet:"country"`
	ProductCategory  string  `parquet:"product_category"`
	UnitsSold        int64   `parquet:"units_sold"`
	TransactionValue float64 `parquet:"transaction_value"`
}

type Generator struct {
	rng  *rand.Rand
	next int
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), next: 1}
}

var countries = []string{
	"Germany",
	"France",
	"United Kingdom",
	"Netherlands",
	"Spain",
	"Italy",
	"Sweden",
	"Poland",
}

var categories = []string{"Hardware", "Software", "Services", "Support"}

// unitPrice is the base price band per category; the generated value
// jitters around units * price so aggregates stay plausible.
var unitPrice = map[string]float64{
	"Hardware": 420.0,
	"Software": 180.0,
	"Services": 950.0,
	"Support":  75.0,
}

func (g *Generator) Next() Transaction {
	id := fmt.Sprintf("TX-%06d", g.next)
	g.next++

	year := 2022 + g.rng.Intn(4)
	month := 1 + g.rng.Intn(12)
	day := 1 + g.rng.Intn(28)
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	category := pickOne(g.rng, categories)
	units := int64(1 + g.rng.Intn(50))
	jitter := 0.85 + g.rng.Float64()*0.3
	value := round2(float64(units) * unitPrice[category] * jitter)

	return Transaction{
		TransactionID:    id,
		FiscalYear:       int64(year),
		FiscalQuarter:    quarterOf(date),
		TransactionDate:  date.Format("2006-01-02"),
		Country:          pickOne(g.rng, countries),
		ProductCategory:  category,
		UnitsSold:        units,
		TransactionValue: value,
	}
}

func (g *Generator) Batch(n int) []Transaction {
	rows := make([]Transaction, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, g.Next())
	}
	return rows
}

func quarterOf(t time.Time) string {
	q := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("Q%d", q)
}

func pickOne(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
