//go:build ignore

// Download the BRFSS 2015 diabetes 50/50 split into testdata and check it
// against the schema.
// Usage: go run ./scripts/fetch-dataset.go [URL]
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/go-dtbench/dataset"
	"github.com/jamesainslie/go-dtbench/internal/config"
)

const outFile = "testdata/diabetes_binary_5050split_health_indicators_BRFSS2015.csv"

func main() {
	url := config.DefaultSource
	if len(os.Args) > 1 {
		url = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Printf("Downloading %s...\n", url)
	if err := download(ctx, url, outFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error downloading: %v\n", err)
		os.Exit(1)
	}

	t, err := dataset.LoadFile(outFile, dataset.BRFSS())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error validating %s: %v\n", outFile, err)
		os.Exit(1)
	}
	b := dataset.ClassBalance(t)
	fmt.Printf("  -> %s (%d rows, %.1f%% positive)\n", outFile, t.Rows(), b.Positive)
}

func download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
