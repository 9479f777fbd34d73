package dataset

import (
	"strings"
	"testing"
)

func TestSchemaDescribeFixedForm(t *testing.T) {
	schema := Schema{
		Table: "transactions",
		Columns: []Column{
			{Name: "fiscal_year", Type: TypeNumeric},
			{Name: "country", Type: TypeText},
			{Name: "transaction_date", Type: TypeDate},
		},
		RowCount: 42,
	}

	want := "Table 'transactions' has the following columns and data types:\n" +
		"- Column: 'fiscal_year' (Type: numeric)\n" +
		"- Column: 'country' (Type: text)\n" +
		"- Column: 'transaction_date' (Type: date)\n"

	if got := schema.Describe(); got != want {
		t.Fatalf("unexpected descriptor:\n%s", got)
	}
}

func TestSchemaDescribeDeterministic(t *testing.T) {
	schema := Schema{
		Table: "dataset",
		Columns: []Column{
			{Name: "a", Type: TypeNumeric},
			{Name: "b", Type: TypeText},
		},
	}

	first := schema.Describe()
	for i := 0; i < 5; i++ {
		if got := schema.Describe(); got != first {
			t.Fatalf("descriptor changed between calls:\n%s\nvs\n%s", first, got)
		}
	}
}

func TestColumnNamesOrder(t *testing.T) {
	schema := Schema{Columns: []Column{{Name: "z"}, {Name: "a"}, {Name: "m"}}}
	got := schema.ColumnNames()
	if strings.Join(got, ",") != "z,a,m" {
		t.Fatalf("column names must keep table order, got %v", got)
	}
}

func TestTypeFromDuckDB(t *testing.T) {
	cases := []struct {
		raw  string
		want ColumnType
	}{
		{"BIGINT", TypeNumeric},
		{"bigint", TypeNumeric},
		{"DOUBLE", TypeNumeric},
		{"DECIMAL(18,3)", TypeNumeric},
		{"HUGEINT", TypeNumeric},
		{"VARCHAR", TypeText},
		{"UUID", TypeText},
		{"BOOLEAN", TypeBoolean},
		{"DATE", TypeDate},
		{"TIMESTAMP", TypeTimestamp},
		{"TIMESTAMP WITH TIME ZONE", TypeTimestamp},
		{"TIMESTAMP_NS", TypeTimestamp},
		{"STRUCT(a INTEGER)", TypeText},
		{"something_new", TypeText},
	}

	for _, tc := range cases {
		if got := TypeFromDuckDB(tc.raw); got != tc.want {
			t.Fatalf("TypeFromDuckDB(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}
