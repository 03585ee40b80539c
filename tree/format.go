package tree

import (
	"fmt"
	"io"
	"strings"
)

// Format writes the tree as indented text, one line per node. Feature
// names default to x[i] when names is short.
func (t *DecisionTree) Format(w io.Writer, names []string) error {
	if len(t.nodes) == 0 {
		return ErrNotFitted
	}
	return t.format(w, names, 0, 0)
}

func (t *DecisionTree) format(w io.Writer, names []string, id, level int) error {
	nd := &t.nodes[id]
	indent := strings.Repeat("|   ", level) + "|--- "

	if nd.leaf() {
		class := 0
		if nd.proba() > 0.5 {
			class = 1
		}
		_, err := fmt.Fprintf(w, "%sclass: %d (samples=%d, p1=%.2f)\n",
			indent, class, nd.counts[0]+nd.counts[1], nd.proba())
		return err
	}

	name := featureName(names, nd.feature)
	if _, err := fmt.Fprintf(w, "%s%s <= %.2f\n", indent, name, nd.threshold); err != nil {
		return err
	}
	if err := t.format(w, names, nd.left, level+1); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s >  %.2f\n", indent, name, nd.threshold); err != nil {
		return err
	}
	return t.format(w, names, nd.right, level+1)
}

func featureName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("x[%d]", i)
}
