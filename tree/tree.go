// Package tree provides CART decision trees and random forests for binary labels.
package tree

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	dtbench "github.com/jamesainslie/go-dtbench"
)

// Sentinel errors for invalid training input.
var (
	// ErrNotBinary indicates a training label other than 0 or 1.
	ErrNotBinary = errors.New("tree: labels must be 0 or 1")

	// ErrNotFitted indicates prediction on a tree that has not been fitted.
	ErrNotFitted = errors.New("tree: not fitted")
)

// Options restricts tree growth. Zero values mean no limit for MaxDepth,
// MaxLeafNodes and MaxFeatures.
type Options struct {
	MaxDepth        int
	MaxLeafNodes    int // when > 0, grow best-first
	MinSamplesSplit int // default 2
	MinSamplesLeaf  int // default 1
	MaxFeatures     int // features considered per split

	// Seed drives feature sampling when MaxFeatures limits the candidates.
	Seed uint64
}

func (o Options) withDefaults() Options {
	if o.MinSamplesSplit < 2 {
		o.MinSamplesSplit = 2
	}
	if o.MinSamplesLeaf < 1 {
		o.MinSamplesLeaf = 1
	}
	return o
}

type node struct {
	feature   int
	threshold float64
	left      int // index into nodes; -1 for leaves
	right     int
	counts    [2]int
	depth     int
}

func (n *node) leaf() bool { return n.left < 0 }

// proba is the share of class 1 among the training samples at the node.
func (n *node) proba() float64 {
	total := n.counts[0] + n.counts[1]
	if total == 0 {
		return 0
	}
	return float64(n.counts[1]) / float64(total)
}

// DecisionTree is a binary CART classifier using Gini impurity.
type DecisionTree struct {
	opts        Options
	nodes       []node
	nFeatures   int
	importances []float64
	rng         *rand.Rand
}

// New returns an unfitted tree.
func New(opts Options) *DecisionTree {
	opts = opts.withDefaults()
	return &DecisionTree{
		opts: opts,
		rng:  rand.New(rand.NewPCG(opts.Seed, opts.Seed+1)),
	}
}

// split is a candidate partition of a node's samples.
type split struct {
	feature   int
	threshold float64
	gain      float64 // weighted impurity decrease
	left      []int
	right     []int
}

// frontierItem is a leaf that may still be split.
type frontierItem struct {
	node int
	idx  []int
	best *split
}

// Fit grows the tree on features and labels.
func (t *DecisionTree) Fit(features [][]float64, labels []dtbench.Label) error {
	set := dtbench.Set{Features: features, Labels: labels}
	if err := set.Validate(); err != nil {
		return err
	}
	for i, l := range labels {
		if l != 0 && l != 1 {
			return fmt.Errorf("%w: sample %d has label %d", ErrNotBinary, i, l)
		}
	}

	t.nFeatures = len(features[0])
	t.importances = make([]float64, t.nFeatures)
	t.nodes = t.nodes[:0]

	idx := make([]int, len(labels))
	for i := range idx {
		idx[i] = i
	}
	root := t.addNode(idx, labels, 0)

	if t.opts.MaxLeafNodes > 0 {
		t.growBestFirst(features, labels, frontierItem{node: root, idx: idx})
	} else {
		t.growDepthFirst(features, labels, root, idx)
	}

	total := 0.0
	for _, v := range t.importances {
		total += v
	}
	if total > 0 {
		for i := range t.importances {
			t.importances[i] /= total
		}
	}
	return nil
}

func (t *DecisionTree) addNode(idx []int, labels []dtbench.Label, depth int) int {
	n := node{left: -1, right: -1, depth: depth}
	for _, i := range idx {
		n.counts[labels[i]]++
	}
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

// expandable reports whether limits allow splitting the node at all.
func (t *DecisionTree) expandable(id int, n int) bool {
	nd := &t.nodes[id]
	if t.opts.MaxDepth > 0 && nd.depth >= t.opts.MaxDepth {
		return false
	}
	if n < t.opts.MinSamplesSplit || n < 2*t.opts.MinSamplesLeaf {
		return false
	}
	return nd.counts[0] > 0 && nd.counts[1] > 0
}

func (t *DecisionTree) growDepthFirst(features [][]float64, labels []dtbench.Label, id int, idx []int) {
	if !t.expandable(id, len(idx)) {
		return
	}
	s := t.bestSplit(features, labels, idx)
	if s == nil {
		return
	}
	l, r := t.apply(id, s, labels)
	t.growDepthFirst(features, labels, l, s.left)
	t.growDepthFirst(features, labels, r, s.right)
}

func (t *DecisionTree) growBestFirst(features [][]float64, labels []dtbench.Label, root frontierItem) {
	var frontier []frontierItem
	push := func(it frontierItem) {
		if !t.expandable(it.node, len(it.idx)) {
			return
		}
		if it.best = t.bestSplit(features, labels, it.idx); it.best != nil {
			frontier = append(frontier, it)
		}
	}
	push(root)

	leaves := 1
	for len(frontier) > 0 && leaves < t.opts.MaxLeafNodes {
		at := 0
		for i := range frontier {
			if frontier[i].best.gain > frontier[at].best.gain {
				at = i
			}
		}
		it := frontier[at]
		frontier = slices.Delete(frontier, at, at+1)

		l, r := t.apply(it.node, it.best, labels)
		leaves++
		push(frontierItem{node: l, idx: it.best.left})
		push(frontierItem{node: r, idx: it.best.right})
	}
}

// apply turns node id into an internal node with two new children.
func (t *DecisionTree) apply(id int, s *split, labels []dtbench.Label) (left, right int) {
	depth := t.nodes[id].depth + 1
	left = t.addNode(s.left, labels, depth)
	right = t.addNode(s.right, labels, depth)

	nd := &t.nodes[id]
	nd.feature = s.feature
	nd.threshold = s.threshold
	nd.left = left
	nd.right = right
	t.importances[s.feature] += s.gain
	return left, right
}

// giniMass returns n * gini(counts).
func giniMass(c0, c1 int) float64 {
	n := float64(c0 + c1)
	if n == 0 {
		return 0
	}
	p0, p1 := float64(c0)/n, float64(c1)/n
	return n * (1 - p0*p0 - p1*p1)
}

// bestSplit searches thresholds halfway between consecutive distinct values.
func (t *DecisionTree) bestSplit(features [][]float64, labels []dtbench.Label, idx []int) *split {
	var parent [2]int
	for _, i := range idx {
		parent[labels[i]]++
	}
	parentMass := giniMass(parent[0], parent[1])

	sorted := make([]int, len(idx))
	minLeaf := t.opts.MinSamplesLeaf

	// Features constant within the node do not count towards MaxFeatures.
	limit := t.nFeatures
	if t.opts.MaxFeatures > 0 {
		limit = min(t.opts.MaxFeatures, t.nFeatures)
	}
	visited := 0

	var best *split
	for _, f := range t.featureOrder() {
		if visited >= limit {
			break
		}
		copy(sorted, idx)
		slices.SortFunc(sorted, func(a, b int) int {
			return cmp.Compare(features[a][f], features[b][f])
		})
		if features[sorted[0]][f] == features[sorted[len(sorted)-1]][f] {
			continue
		}
		visited++

		var left [2]int
		for pos := 1; pos < len(sorted); pos++ {
			left[labels[sorted[pos-1]]]++
			lo, hi := features[sorted[pos-1]][f], features[sorted[pos]][f]
			if lo == hi || pos < minLeaf || len(sorted)-pos < minLeaf {
				continue
			}
			right := [2]int{parent[0] - left[0], parent[1] - left[1]}
			gain := parentMass - giniMass(left[0], left[1]) - giniMass(right[0], right[1])
			if gain <= 1e-12 || (best != nil && gain <= best.gain) {
				continue
			}
			if best == nil {
				best = &split{}
			}
			best.feature = f
			best.threshold = lo + (hi-lo)/2
			if best.threshold >= hi {
				best.threshold = lo
			}
			best.gain = gain
		}
	}
	if best == nil {
		return nil
	}
	for _, i := range idx {
		if features[i][best.feature] <= best.threshold {
			best.left = append(best.left, i)
		} else {
			best.right = append(best.right, i)
		}
	}
	return best
}

// featureOrder lists every feature, shuffled when MaxFeatures limits the
// candidates per split.
func (t *DecisionTree) featureOrder() []int {
	if t.opts.MaxFeatures <= 0 || t.opts.MaxFeatures >= t.nFeatures {
		all := make([]int, t.nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return t.rng.Perm(t.nFeatures)
}

func (t *DecisionTree) leafFor(row []float64) *node {
	nd := &t.nodes[0]
	for !nd.leaf() {
		if row[nd.feature] <= nd.threshold {
			nd = &t.nodes[nd.left]
		} else {
			nd = &t.nodes[nd.right]
		}
	}
	return nd
}

func (t *DecisionTree) checkInput(features [][]float64) error {
	if len(t.nodes) == 0 {
		return ErrNotFitted
	}
	for i, row := range features {
		if len(row) != t.nFeatures {
			return fmt.Errorf("%w: row %d has %d features, want %d", dtbench.ErrInvalidSet, i, len(row), t.nFeatures)
		}
	}
	return nil
}

// PredictProba returns the probability of class 1 for each row.
func (t *DecisionTree) PredictProba(features [][]float64) ([]float64, error) {
	if err := t.checkInput(features); err != nil {
		return nil, err
	}
	out := make([]float64, len(features))
	for i, row := range features {
		out[i] = t.leafFor(row).proba()
	}
	return out, nil
}

// Predict labels each row with the majority class of its leaf. Ties go to 0.
func (t *DecisionTree) Predict(ctx context.Context, features [][]float64) ([]dtbench.Label, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	proba, err := t.PredictProba(features)
	if err != nil {
		return nil, err
	}
	return threshold(proba), nil
}

func threshold(proba []float64) []dtbench.Label {
	out := make([]dtbench.Label, len(proba))
	for i, p := range proba {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out
}

// Depth returns the depth of the deepest leaf. A single-leaf tree has depth 0.
func (t *DecisionTree) Depth() int {
	d := 0
	for i := range t.nodes {
		d = max(d, t.nodes[i].depth)
	}
	return d
}

// Leaves returns the number of leaves.
func (t *DecisionTree) Leaves() int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].leaf() {
			n++
		}
	}
	return n
}

// FeatureImportances returns the normalized total Gini decrease per feature.
func (t *DecisionTree) FeatureImportances() []float64 {
	return slices.Clone(t.importances)
}
