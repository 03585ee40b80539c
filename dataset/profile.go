package dataset

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// maxListedValues caps how many distinct values a summary lists.
const maxListedValues = 32

// Balance is the share of positive and negative target labels, in percent.
type Balance struct {
	Positive float64 `yaml:"positive_pct"`
	Negative float64 `yaml:"negative_pct"`
}

// Summary describes the values of one column.
type Summary struct {
	Name     string    `yaml:"name"`
	Kind     Kind      `yaml:"-"`
	Distinct int       `yaml:"distinct"`
	Values   []float64 `yaml:"values,omitempty"` // sorted, only when Distinct <= maxListedValues
	Min      float64   `yaml:"min"`
	Max      float64   `yaml:"max"`
	Mean     float64   `yaml:"mean"`
	StdDev   float64   `yaml:"std"`
}

// Profile is an overview of a table.
type Profile struct {
	Rows      int       `yaml:"rows"`
	Balance   Balance   `yaml:"balance"`
	Columns   []Summary `yaml:"columns"`
	BinaryCol []string  `yaml:"binary"`
	OtherCol  []string  `yaml:"non_binary"`
}

// ClassBalance returns the percentage of rows whose target is 1 and 0.
func ClassBalance(t *Table) Balance {
	col, err := t.Column(t.schema.Target)
	if err != nil || len(col) == 0 {
		return Balance{}
	}
	var pos, neg int
	for _, v := range col {
		switch v {
		case 1:
			pos++
		case 0:
			neg++
		}
	}
	n := float64(len(col))
	return Balance{Positive: float64(pos) / n * 100, Negative: float64(neg) / n * 100}
}

// Summarize describes the named column.
func Summarize(t *Table, c Column) Summary {
	col := t.data[t.schema.Index(c.Name)]
	s := Summary{Name: c.Name, Kind: c.Kind}
	if len(col) == 0 {
		return s
	}

	sorted := slices.Clone(col)
	slices.Sort(sorted)
	distinct := slices.Compact(sorted)

	s.Distinct = len(distinct)
	if len(distinct) <= maxListedValues {
		s.Values = distinct
	}
	s.Min = distinct[0]
	s.Max = distinct[len(distinct)-1]
	s.Mean, s.StdDev = stat.MeanStdDev(col, nil)
	if len(col) < 2 {
		s.StdDev = 0
	}
	return s
}

// Partition splits column names into binary columns (exactly the two values
// 0 and 1 observed) and everything else. Together they cover every column.
func Partition(t *Table) (binary, other []string) {
	for _, c := range t.schema.Columns {
		if isObservedBinary(t.data[t.schema.Index(c.Name)]) {
			binary = append(binary, c.Name)
		} else {
			other = append(other, c.Name)
		}
	}
	return binary, other
}

func isObservedBinary(col []float64) bool {
	var zero, one bool
	for _, v := range col {
		switch v {
		case 0:
			zero = true
		case 1:
			one = true
		default:
			return false
		}
	}
	return zero && one
}

// NewProfile computes balance, per-column summaries and the binary partition.
func NewProfile(t *Table) Profile {
	p := Profile{
		Rows:    t.rows,
		Balance: ClassBalance(t),
	}
	for _, c := range t.schema.Columns {
		p.Columns = append(p.Columns, Summarize(t, c))
	}
	p.BinaryCol, p.OtherCol = Partition(t)
	return p
}

// Correlation returns the Pearson correlation matrix of all columns, in
// schema order. Entries involving a constant column are NaN.
func Correlation(t *Table) ([]string, [][]float64) {
	n := len(t.schema.Columns)
	names := make([]string, n)
	m := make([][]float64, n)
	for i, c := range t.schema.Columns {
		names[i] = c.Name
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		m[i][i] = stat.Correlation(t.data[i], t.data[i], nil)
		for j := i + 1; j < n; j++ {
			r := stat.Correlation(t.data[i], t.data[j], nil)
			m[i][j], m[j][i] = r, r
		}
	}
	return names, m
}
