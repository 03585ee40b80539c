package dtbench

import (
	"fmt"
	"math"
)

// Label is a class value. Binary data uses 0 and 1.
type Label int

// Metric is a score in [0,1] that may be undefined.
// The zero value is undefined.
type Metric struct {
	value   float64
	defined bool
}

// Defined returns a metric holding v.
func Defined(v float64) Metric {
	return Metric{value: v, defined: true}
}

// Undefined returns a metric with no value.
func Undefined() Metric {
	return Metric{}
}

// ratio returns num/den, or an undefined metric when den is zero.
func ratio(num, den int) Metric {
	if den == 0 {
		return Undefined()
	}
	return Defined(float64(num) / float64(den))
}

// Value returns the metric value and whether it is defined.
func (m Metric) Value() (float64, bool) {
	return m.value, m.defined
}

// IsDefined reports whether the metric has a value.
func (m Metric) IsDefined() bool {
	return m.defined
}

// Float returns the value, or NaN when undefined.
func (m Metric) Float() float64 {
	if !m.defined {
		return math.NaN()
	}
	return m.value
}

// String formats the metric with four decimals, or "n/a" when undefined.
func (m Metric) String() string {
	if !m.defined {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", m.value)
}

// MarshalYAML encodes an undefined metric as null.
func (m Metric) MarshalYAML() (any, error) {
	if !m.defined {
		return nil, nil
	}
	return m.value, nil
}

// Confusion holds binary confusion counts relative to the positive label.
type Confusion struct {
	TruePositives  int `yaml:"tp"`
	FalsePositives int `yaml:"fp"`
	FalseNegatives int `yaml:"fn"`
	TrueNegatives  int `yaml:"tn"`
}

// Total returns the number of compared samples.
func (c Confusion) Total() int {
	return c.TruePositives + c.FalsePositives + c.FalseNegatives + c.TrueNegatives
}

// Scores holds every metric computed for one prediction vector.
type Scores struct {
	Confusion Confusion `yaml:"confusion"`
	Accuracy  Metric    `yaml:"accuracy"`
	Precision Metric    `yaml:"precision"`
	Recall    Metric    `yaml:"recall"`
	F1        Metric    `yaml:"f1"`
}

// Count tallies the confusion counts of predicted against truth.
func Count(truth, predicted []Label, opts ...Option) (Confusion, error) {
	if len(truth) != len(predicted) {
		return Confusion{}, fmt.Errorf("%w: %d truth labels, %d predicted", ErrLengthMismatch, len(truth), len(predicted))
	}
	pos := newConfig(opts).positive

	var c Confusion
	for i, t := range truth {
		switch p := predicted[i]; {
		case t == pos && p == pos:
			c.TruePositives++
		case t != pos && p == pos:
			c.FalsePositives++
		case t == pos && p != pos:
			c.FalseNegatives++
		default:
			c.TrueNegatives++
		}
	}
	return c, nil
}

// Precision returns the fraction of positive predictions that are correct.
// It is undefined when nothing was predicted positive.
func Precision(truth, predicted []Label, opts ...Option) (Metric, error) {
	c, err := Count(truth, predicted, opts...)
	if err != nil {
		return Metric{}, err
	}
	return c.Precision(), nil
}

// Recall returns the fraction of actual positives that were predicted positive.
// It is undefined when the ground truth holds no positives.
func Recall(truth, predicted []Label, opts ...Option) (Metric, error) {
	c, err := Count(truth, predicted, opts...)
	if err != nil {
		return Metric{}, err
	}
	return c.Recall(), nil
}

// Accuracy returns the fraction of labels predicted exactly.
// It is undefined for empty vectors.
func Accuracy(truth, predicted []Label) (Metric, error) {
	if len(truth) != len(predicted) {
		return Metric{}, fmt.Errorf("%w: %d truth labels, %d predicted", ErrLengthMismatch, len(truth), len(predicted))
	}
	hits := 0
	for i := range truth {
		if truth[i] == predicted[i] {
			hits++
		}
	}
	return ratio(hits, len(truth)), nil
}

// Score computes the confusion counts and all metrics in one pass.
func Score(truth, predicted []Label, opts ...Option) (Scores, error) {
	c, err := Count(truth, predicted, opts...)
	if err != nil {
		return Scores{}, err
	}
	acc, err := Accuracy(truth, predicted)
	if err != nil {
		return Scores{}, err
	}
	p, r := c.Precision(), c.Recall()
	return Scores{
		Confusion: c,
		Accuracy:  acc,
		Precision: p,
		Recall:    r,
		F1:        F1(p, r),
	}, nil
}

// Precision is TP / (TP + FP).
func (c Confusion) Precision() Metric {
	return ratio(c.TruePositives, c.TruePositives+c.FalsePositives)
}

// Recall is TP / (TP + FN).
func (c Confusion) Recall() Metric {
	return ratio(c.TruePositives, c.TruePositives+c.FalseNegatives)
}

// F1 is the harmonic mean of precision and recall. It is undefined when
// either input is undefined and 0 when both are 0.
func F1(precision, recall Metric) Metric {
	p, okP := precision.Value()
	r, okR := recall.Value()
	if !okP || !okR {
		return Undefined()
	}
	if p+r == 0 {
		return Defined(0)
	}
	return Defined(2 * p * r / (p + r))
}
