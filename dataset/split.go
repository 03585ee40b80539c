package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	dtbench "github.com/jamesainslie/go-dtbench"
)

// ErrSplit indicates split parameters that cannot be satisfied.
var ErrSplit = errors.New("dataset: invalid split")

// TrainTestSplit shuffles set with seed and holds out ceil(n*testFraction)
// samples for testing. The same seed always yields the same split.
func TrainTestSplit(set dtbench.Set, testFraction float64, seed uint64) (train, test dtbench.Set, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return dtbench.Set{}, dtbench.Set{}, fmt.Errorf("%w: test fraction %v not in (0,1)", ErrSplit, testFraction)
	}
	n := set.Len()
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest < 1 || nTest >= n {
		return dtbench.Set{}, dtbench.Set{}, fmt.Errorf("%w: %d samples cannot hold out %d", ErrSplit, n, nTest)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)

	return set.Subset(perm[nTest:]), set.Subset(perm[:nTest]), nil
}

// StratifiedKFold assigns sample indices to k folds so that each fold keeps
// roughly the class proportions of labels. Samples of each class are dealt
// to folds in their original order, without shuffling. Each returned slice
// holds the test indices of one fold, ascending.
func StratifiedKFold(labels []dtbench.Label, k int) ([][]int, error) {
	if k < 2 || k > len(labels) {
		return nil, fmt.Errorf("%w: %d folds for %d samples", ErrSplit, k, len(labels))
	}

	byClass := make(map[dtbench.Label][]int)
	var order []dtbench.Label
	for i, l := range labels {
		if _, ok := byClass[l]; !ok {
			order = append(order, l)
		}
		byClass[l] = append(byClass[l], i)
	}

	owner := make([]int, len(labels))
	offset := 0
	for _, class := range order {
		idx := byClass[class]
		// Contiguous chunks per class. The larger chunks go to the folds
		// that have not yet received one, so fold sizes differ by at most one.
		for f := 0; f < k; f++ {
			lo, hi := chunk(len(idx), k, ((f-offset)%k+k)%k)
			for _, i := range idx[lo:hi] {
				owner[i] = f
			}
		}
		offset = (offset + len(idx)%k) % k
	}

	folds := make([][]int, k)
	for i, f := range owner {
		folds[f] = append(folds[f], i)
	}
	for f, fold := range folds {
		if len(fold) == 0 {
			return nil, fmt.Errorf("%w: fold %d is empty", ErrSplit, f)
		}
	}
	return folds, nil
}

// chunk returns the bounds of part p when n items are cut into k parts
// whose sizes differ by at most one, larger parts first.
func chunk(n, k, p int) (lo, hi int) {
	size, extra := n/k, n%k
	lo = p*size + min(p, extra)
	hi = lo + size
	if p < extra {
		hi++
	}
	return lo, hi
}

// Complement returns the indices in [0,n) that are not in fold. fold must be ascending.
func Complement(n int, fold []int) []int {
	out := make([]int, 0, n-len(fold))
	j := 0
	for i := 0; i < n; i++ {
		if j < len(fold) && fold[j] == i {
			j++
			continue
		}
		out = append(out, i)
	}
	return out
}
