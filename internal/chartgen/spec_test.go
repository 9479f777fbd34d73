package chartgen

import "testing"

func TestSpecValidate(t *testing.T) {
	columns := []string{"country", "total_value"}

	valid := Spec{Type: TypeBar, X: "country", Y: "total_value"}
	if err := valid.Validate(columns); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}

	histogram := Spec{Type: TypeHistogram, X: "total_value"}
	if err := histogram.Validate(columns); err != nil {
		t.Fatalf("histogram without y rejected: %v", err)
	}

	cases := []Spec{
		{Type: "donut", X: "country", Y: "total_value"},
		{Type: TypeBar, X: "", Y: "total_value"},
		{Type: TypeBar, X: "missing", Y: "total_value"},
		{Type: TypeBar, X: "country", Y: ""},
		{Type: TypeBar, X: "country", Y: "missing"},
	}
	for _, spec := range cases {
		if err := spec.Validate(columns); err == nil {
			t.Fatalf("expected %+v to be rejected", spec)
		}
	}
}

func TestSuitable(t *testing.T) {
	if Suitable([]string{"only"}, [][]any{{int64(1)}}) {
		t.Fatal("single column must not be chartable")
	}
	if Suitable([]string{"a", "b"}, [][]any{{"x", "y"}}) {
		t.Fatal("all-text result must not be chartable")
	}
	if Suitable([]string{"a", "b"}, [][]any{}) {
		t.Fatal("empty result must not be chartable")
	}
	if !Suitable([]string{"a", "b"}, [][]any{{"x", int64(3)}}) {
		t.Fatal("two columns with a numeric must be chartable")
	}
}

func TestColumnKindsSkipsNulls(t *testing.T) {
	numeric, categorical := columnKinds(
		[]string{"a", "b"},
		[][]any{
			{nil, nil},
			{"x", float64(2.5)},
		})
	if len(numeric) != 1 || numeric[0] != "b" {
		t.Fatalf("numeric = %v", numeric)
	}
	if len(categorical) != 1 || categorical[0] != "a" {
		t.Fatalf("categorical = %v", categorical)
	}
}

func TestRetypeKeepsBindings(t *testing.T) {
	columns := []string{"country", "total_value"}
	rows := [][]any{{"USA", float64(1)}}

	prior := &Spec{Type: TypeBar, X: "country", Y: "total_value", Title: "Value by country"}
	got := Retype(prior, TypePie, columns, rows)
	if got.Type != TypePie || got.X != "country" || got.Y != "total_value" || got.Title != "Value by country" {
		t.Fatalf("unexpected retyped spec %+v", got)
	}
}

func TestRetypeDerivesBindingsWithoutPrior(t *testing.T) {
	columns := []string{"country", "total_value"}
	rows := [][]any{{"USA", float64(1)}}

	got := Retype(nil, TypeBar, columns, rows)
	if got.X != "country" || got.Y != "total_value" {
		t.Fatalf("unexpected derived spec %+v", got)
	}

	histogram := Retype(nil, TypeHistogram, columns, rows)
	if histogram.Y != "" {
		t.Fatalf("histogram must not get a y binding, got %+v", histogram)
	}
}

func TestParseType(t *testing.T) {
	if typ, ok := ParseType(" Pie "); !ok || typ != TypePie {
		t.Fatalf("ParseType = %v %v", typ, ok)
	}
	if _, ok := ParseType("donut"); ok {
		t.Fatal("unknown type must not parse")
	}
}
