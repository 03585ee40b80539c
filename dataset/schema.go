// Package dataset loads tabular health-indicator data into a typed table.
package dataset

import (
	"errors"
	"fmt"
	"math"
)

// ErrSchema indicates data that does not match its declared schema.
var ErrSchema = errors.New("dataset: schema violation")

// Kind is the semantic type of a column.
type Kind int

const (
	// Binary columns hold only 0 and 1.
	Binary Kind = iota
	// Ordinal columns hold integral category codes with a meaningful order.
	Ordinal
	// Continuous columns hold arbitrary real values.
	Continuous
)

func (k Kind) String() string {
	switch k {
	case Binary:
		return "binary"
	case Ordinal:
		return "ordinal"
	case Continuous:
		return "continuous"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column declares one named column.
type Column struct {
	Name string
	Kind Kind
}

// Schema declares the columns of a table and which one is the target label.
type Schema struct {
	Target  string
	Columns []Column
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks that column names are unique and the target is a binary column.
func (s Schema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrSchema)
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return fmt.Errorf("%w: empty column name", ErrSchema)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate column %q", ErrSchema, c.Name)
		}
		seen[c.Name] = true
	}
	i := s.Index(s.Target)
	if i < 0 {
		return fmt.Errorf("%w: target %q not declared", ErrSchema, s.Target)
	}
	if s.Columns[i].Kind != Binary {
		return fmt.Errorf("%w: target %q is %s, want binary", ErrSchema, s.Target, s.Columns[i].Kind)
	}
	return nil
}

// check reports whether v is admissible for kind. No kind admits NaN or
// infinities.
func (k Kind) check(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	switch k {
	case Binary:
		return v == 0 || v == 1
	case Ordinal:
		return math.Trunc(v) == v
	default:
		return true
	}
}

// BRFSSTarget is the label column of the BRFSS 2015 diabetes extract.
const BRFSSTarget = "Diabetes_binary"

// BRFSS returns the schema of the CDC BRFSS 2015 diabetes health indicators
// 50/50 split. BMI is the only continuous column; the health ratings and
// the age, education and income brackets are ordinal.
func BRFSS() Schema {
	b := func(name string) Column { return Column{Name: name, Kind: Binary} }
	o := func(name string) Column { return Column{Name: name, Kind: Ordinal} }

	return Schema{
		Target: BRFSSTarget,
		Columns: []Column{
			b(BRFSSTarget),
			b("HighBP"),
			b("HighChol"),
			b("CholCheck"),
			{Name: "BMI", Kind: Continuous},
			b("Smoker"),
			b("Stroke"),
			b("HeartDiseaseorAttack"),
			b("PhysActivity"),
			b("Fruits"),
			b("Veggies"),
			b("HvyAlcoholConsump"),
			b("AnyHealthcare"),
			b("NoDocbcCost"),
			o("GenHlth"),
			o("MentHlth"),
			o("PhysHlth"),
			b("DiffWalk"),
			b("Sex"),
			o("Age"),
			o("Education"),
			o("Income"),
		},
	}
}
