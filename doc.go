// Package dtbench evaluates binary classifiers and sweeps decision-tree depth.
//
// # Quick Start
//
//	p, err := dtbench.Precision(truth, predicted)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Precision: %s\n", p) // "n/a" when nothing was predicted positive
//
//	records, err := dtbench.SweepDepths(ctx, tree.Trainer(tree.Options{}), train, test, []int{2, 3, 4})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range records {
//	    fmt.Printf("depth=%d accuracy=%s precision=%s recall=%s\n", r.Depth, r.Accuracy, r.Precision, r.Recall)
//	}
//
// # Undefined Metrics
//
// Precision has no value when the classifier predicted no positives, and
// recall has no value when the ground truth holds no positives. Both are
// returned as an undefined Metric instead of NaN or a division fault.
//
// # Collaborators
//
// Training is delegated to a Trainer. Package tree provides CART decision
// trees and random forests; package inference evaluates pre-trained ONNX
// models.
package dtbench
