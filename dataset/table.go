package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	dtbench "github.com/jamesainslie/go-dtbench"
)

// Table is a column-oriented table whose columns follow a Schema.
type Table struct {
	schema Schema
	rows   int
	data   [][]float64 // indexed like schema.Columns
}

// Schema returns the table schema.
func (t *Table) Schema() Schema {
	return t.schema
}

// Rows returns the number of rows.
func (t *Table) Rows() int {
	return t.rows
}

// Column returns the values of the named column. The slice is shared with the table.
func (t *Table) Column(name string) ([]float64, error) {
	i := t.schema.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: unknown column %q", ErrSchema, name)
	}
	return t.data[i], nil
}

// Labels returns the target column as labels.
func (t *Table) Labels() ([]dtbench.Label, error) {
	col, err := t.Column(t.schema.Target)
	if err != nil {
		return nil, err
	}
	out := make([]dtbench.Label, len(col))
	for i, v := range col {
		out[i] = dtbench.Label(v)
	}
	return out, nil
}

// Features returns every non-target column as row-major feature vectors,
// in schema order, with their names.
func (t *Table) Features() ([][]float64, []string) {
	var idx []int
	var names []string
	for i, c := range t.schema.Columns {
		if c.Name == t.schema.Target {
			continue
		}
		idx = append(idx, i)
		names = append(names, c.Name)
	}

	rows := make([][]float64, t.rows)
	flat := make([]float64, t.rows*len(idx))
	for r := range rows {
		row := flat[r*len(idx) : (r+1)*len(idx) : (r+1)*len(idx)]
		for j, c := range idx {
			row[j] = t.data[c][r]
		}
		rows[r] = row
	}
	return rows, names
}

// Set converts the table into a labelled feature set.
func (t *Table) Set() (dtbench.Set, error) {
	labels, err := t.Labels()
	if err != nil {
		return dtbench.Set{}, err
	}
	features, names := t.Features()
	return dtbench.Set{Features: features, Labels: labels, FeatureNames: names}, nil
}

// Load reads CSV with a header row. Every schema column must appear in the
// header; extra header columns are ignored. Values are validated against
// their declared kind.
func Load(r io.Reader, schema Schema) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header", ErrSchema)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}
	fields := make([]int, len(schema.Columns))
	for i, c := range schema.Columns {
		j, ok := pos[c.Name]
		if !ok {
			return nil, fmt.Errorf("%w: column %q missing from header", ErrSchema, c.Name)
		}
		fields[i] = j
	}

	t := &Table{schema: schema, data: make([][]float64, len(schema.Columns))}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", t.rows+1, err)
		}

		for i, c := range schema.Columns {
			raw := strings.TrimSpace(record[fields[i]])
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %q is not a number", ErrSchema, t.rows+1, c.Name, raw)
			}
			if !c.Kind.check(v) {
				return nil, fmt.Errorf("%w: row %d column %q: %v is not %s", ErrSchema, t.rows+1, c.Name, v, c.Kind)
			}
			t.data[i] = append(t.data[i], v)
		}
		t.rows++
	}

	return t, nil
}

// LoadFile reads a CSV file.
func LoadFile(path string, schema Schema) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := Load(f, schema)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return t, nil
}

// Fetch downloads CSV over HTTP. A nil client uses http.DefaultClient.
func Fetch(ctx context.Context, client *http.Client, url string, schema Schema) (*Table, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch dataset: %s: %s", url, resp.Status)
	}

	t, err := Load(resp.Body, schema)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", url, err)
	}
	return t, nil
}

// Open loads a dataset from an http(s) URL or a local path.
func Open(ctx context.Context, source string, schema Schema) (*Table, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return Fetch(ctx, nil, source, schema)
	}
	return LoadFile(source, schema)
}
