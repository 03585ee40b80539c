package bench

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	dtbench "github.com/jamesainslie/go-dtbench"
	"github.com/jamesainslie/go-dtbench/dataset"
)

var heading = color.New(color.FgCyan, color.Bold).SprintFunc()

// Split records how a dataset was divided for a holdout sweep.
type Split struct {
	TestFraction float64 `yaml:"test_fraction"`
	Seed         uint64  `yaml:"seed"`
	Train        int     `yaml:"train_rows"`
	Test         int     `yaml:"test_rows"`
}

// Report is the persisted outcome of one run.
type Report struct {
	RunID   string                `yaml:"run_id"`
	Created time.Time             `yaml:"created"`
	Dataset string                `yaml:"dataset"`
	Model   string                `yaml:"model"`
	Rows    int                   `yaml:"rows"`
	Split   *Split                `yaml:"split,omitempty"`
	Folds   int                   `yaml:"folds,omitempty"`
	Sweep   []dtbench.SweepRecord `yaml:"sweep,omitempty"`
	CV      []CVResult            `yaml:"cv,omitempty"`
	Best    *int                  `yaml:"best_depth,omitempty"`
	Error   string                `yaml:"error,omitempty"`
}

// NewReport starts a report with a fresh run id.
func NewReport(datasetName, model string, rows int) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Created: time.Now().UTC(),
		Dataset: datasetName,
		Model:   model,
		Rows:    rows,
	}
}

// SetSweep stores holdout records and the best depth among them.
func (r *Report) SetSweep(records []dtbench.SweepRecord) {
	r.Sweep = records
	r.Best = nil
	if best, ok := Best(records); ok {
		r.Best = &best.Depth
	}
}

// SetCV stores cross-validation results and the best depth among them.
func (r *Report) SetCV(folds int, results []CVResult) {
	r.Folds = folds
	r.CV = results
	r.Best = nil
	if best, ok := BestCV(results); ok {
		r.Best = &best.Depth
	}
}

// Encode writes the report as YAML.
func (r *Report) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// WriteFile writes the report as YAML to path.
func (r *Report) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return r.Encode(f)
}

// WriteSweepTable prints one row per depth.
func WriteSweepTable(w io.Writer, records []dtbench.SweepRecord) {
	fmt.Fprintln(w, heading("Depth Sweep Results"))
	fmt.Fprintln(w, strings.Repeat("-", 62))
	fmt.Fprintf(w, "%-6s %-8s %-8s %-8s %-8s %-20s\n", "Depth", "Acc", "Prec", "Rec", "F1", "TP/FP/FN/TN")
	for _, r := range records {
		c := r.Confusion
		fmt.Fprintf(w, "%-6d %-8s %-8s %-8s %-8s %-20s\n",
			r.Depth, r.Accuracy, r.Precision, r.Recall, r.F1,
			fmt.Sprintf("%d/%d/%d/%d", c.TruePositives, c.FalsePositives, c.FalseNegatives, c.TrueNegatives))
	}
	fmt.Fprintln(w, strings.Repeat("-", 62))
	if best, ok := Best(records); ok {
		fmt.Fprintf(w, "Best depth: %d (Accuracy: %s)\n", best.Depth, best.Accuracy)
	}
}

// WriteCVTable prints one row per cross-validated depth.
func WriteCVTable(w io.Writer, results []CVResult) {
	fmt.Fprintln(w, heading("Cross-Validation Results"))
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "%-6s %-8s %-8s %-8s %-8s %-6s\n", "Depth", "Acc", "Std", "Prec", "Rec", "Folds")
	for _, r := range results {
		fmt.Fprintf(w, "%-6d %-8s %-8s %-8s %-8s %-6d\n",
			r.Depth, r.MeanAccuracy, r.StdAccuracy, r.MeanPrecision, r.MeanRecall, len(r.Folds))
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
	if best, ok := BestCV(results); ok {
		fmt.Fprintf(w, "Best depth: %d (Accuracy: %s +/- %s)\n", best.Depth, best.MeanAccuracy, best.StdAccuracy)
	}
}

// WriteProfile prints the class balance, the binary partition and one line
// per column.
func WriteProfile(w io.Writer, p dataset.Profile) {
	fmt.Fprintln(w, heading("Dataset Profile"))
	fmt.Fprintf(w, "Rows: %d\n", p.Rows)
	fmt.Fprintf(w, "Positive: %.2f%%  Negative: %.2f%%\n\n", p.Balance.Positive, p.Balance.Negative)

	fmt.Fprintln(w, heading("Binary columns"))
	fmt.Fprintln(w, strings.Join(p.BinaryCol, ", "))
	fmt.Fprintln(w, heading("Non-binary columns"))
	fmt.Fprintln(w, strings.Join(p.OtherCol, ", "))
	fmt.Fprintln(w)

	fmt.Fprintln(w, heading("Columns"))
	fmt.Fprintln(w, strings.Repeat("-", 72))
	fmt.Fprintf(w, "%-22s %-11s %-8s %-8s %-8s %-8s %-8s\n", "Name", "Kind", "Distinct", "Min", "Max", "Mean", "Std")
	for _, s := range p.Columns {
		fmt.Fprintf(w, "%-22s %-11s %-8d %-8.2f %-8.2f %-8.2f %-8.2f\n",
			s.Name, s.Kind, s.Distinct, s.Min, s.Max, s.Mean, s.StdDev)
	}
	fmt.Fprintln(w, strings.Repeat("-", 72))
}

// WriteCorrelation prints the correlation of every column with target,
// strongest first.
func WriteCorrelation(w io.Writer, names []string, matrix [][]float64, target string) error {
	ti := -1
	for i, n := range names {
		if n == target {
			ti = i
		}
	}
	if ti < 0 {
		return fmt.Errorf("%w: target %q not in correlation matrix", dataset.ErrSchema, target)
	}

	type pair struct {
		name string
		r    float64
	}
	var pairs []pair
	for i, n := range names {
		if i != ti {
			pairs = append(pairs, pair{n, matrix[ti][i]})
		}
	}
	// NaN entries come from constant columns and sort last.
	slices.SortStableFunc(pairs, func(a, b pair) int {
		x, y := math.Abs(a.r), math.Abs(b.r)
		switch {
		case math.IsNaN(x) && math.IsNaN(y):
			return 0
		case math.IsNaN(x):
			return 1
		case math.IsNaN(y):
			return -1
		}
		return cmp.Compare(y, x)
	})

	fmt.Fprintln(w, heading("Correlation with "+target))
	for _, p := range pairs {
		fmt.Fprintf(w, "%-22s %+.4f\n", p.name, p.r)
	}
	return nil
}
