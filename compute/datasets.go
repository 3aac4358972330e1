package compute

import (
	"fmt"

	"github.com/cosmian/scs/transport"
)

// Datasets resolves views into readable datasets.
type Datasets struct {
	ctx *transport.Context
}

// Retrieve opens the dataset behind a view. With sorted set, the server
// serves the rows ordered by the view's sort definition.
func (d *Datasets) Retrieve(viewName string, sorted bool) (*Dataset, error) {
	kind := "raw_dataset"
	if sorted {
		kind = "sorted_dataset"
	}
	var resp struct {
		Handle string `json:"handle"`
	}
	err := d.ctx.Get(fmt.Sprintf("/view/%s/%s", viewName, kind), nil, &resp,
		"Datasets::failed retrieving a dataset for the view: "+viewName)
	if err != nil {
		return nil, err
	}
	return &Dataset{ctx: d.ctx, handle: resp.Handle}, nil
}

// Writer returns a writer pushing rows into the dataset behind handle.
func (d *Datasets) Writer(handle string) *DatasetWriter {
	return &DatasetWriter{ctx: d.ctx, handle: handle}
}

// Column is one column of a dataset schema.
type Column struct {
	Name string `json:"name"`
	Type string `json:"data_type"`
}

// Dataset is an open, stateful read cursor over the rows of a view. The
// server tracks the cursor position per handle, so a Dataset must not be
// shared across goroutines.
type Dataset struct {
	ctx    *transport.Context
	handle string
}

// Handle returns the server-side handle of this dataset.
func (d *Dataset) Handle() string { return d.handle }

// Schema returns the dataset's columns.
func (d *Dataset) Schema() ([]Column, error) {
	var resp struct {
		Columns []Column `json:"columns"`
	}
	err := d.ctx.Get(fmt.Sprintf("/dataset/%s/schema", d.handle), nil, &resp,
		"dataset:: failed querying dataset: "+d.handle)
	if err != nil {
		return nil, err
	}
	return resp.Columns, nil
}

// ReadNextRow returns the next row, one value per column. The second return
// is false once the end of the dataset is reached.
func (d *Dataset) ReadNextRow() ([]any, bool, error) {
	var row []any
	found, err := d.ctx.GetAllow404(fmt.Sprintf("/dataset/%s/next", d.handle), nil, &row,
		"dataset:: failed reading next row of dataset: "+d.handle)
	if err != nil || !found {
		return nil, false, err
	}
	return row, true, nil
}

// ReadAll drains the cursor and returns the remaining rows.
func (d *Dataset) ReadAll() ([][]any, error) {
	var rows [][]any
	for {
		row, ok, err := d.ReadNextRow()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// DatasetWriter pushes rows into a server-side dataset one at a time. For
// bulk loads prefer StreamWriter, which pipelines the rows.
type DatasetWriter struct {
	ctx    *transport.Context
	handle string
}

// WriteNextRow appends one row to the dataset.
func (w *DatasetWriter) WriteNextRow(row []any) error {
	return w.ctx.Post(fmt.Sprintf("/dataset/%s/push", w.handle), row, nil, nil,
		"dataset:: failed writing next row of dataset: "+w.handle)
}

// Stream returns a pipelined writer for bulk row loads. The caller owns the
// returned writer and must Close it.
func (w *DatasetWriter) Stream() *transport.StreamWriter {
	return w.ctx.NewStreamWriter(fmt.Sprintf("/dataset/%s/push", w.handle),
		"dataset:: failed writing next row of dataset: "+w.handle)
}
