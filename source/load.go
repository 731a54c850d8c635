package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	arrowcsv "github.com/apache/arrow-go/v18/arrow/csv"

	"github.com/netsampler/flowtop/flow"
)

// Load parses a header-bearing CSV file into a table.
// Port columns are parsed as integers, every other column is kept as a string.
func Load(path string, opts ...Option) (*Table, error) {
	o := newOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, parseError(path, err)
	}
	defer f.Close()

	schema, err := readHeader(f)
	if err != nil {
		return nil, parseError(path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, parseError(path, err)
	}

	rdr := arrowcsv.NewReader(f, schema,
		arrowcsv.WithAllocator(o.mem),
		arrowcsv.WithHeader(true),
		arrowcsv.WithChunk(o.chunkSize),
	)
	defer rdr.Release()

	var records []arrow.Record
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := rdr.Err(); err != nil {
		return nil, parseError(path, err)
	}
	for _, rec := range records {
		if err := checkPorts(rec); err != nil {
			return nil, parseError(path, err)
		}
	}

	return &Table{
		Path:  path,
		Table: array.NewTableFromRecords(rdr.Schema(), records),
	}, nil
}

// readHeader builds the load schema from the first row of the file.
func readHeader(r io.Reader) (*arrow.Schema, error) {
	header, err := csv.NewReader(r).Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header")
	} else if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	seen := make(map[string]struct{}, len(header))
	fields := make([]arrow.Field, len(header))
	for i, name := range header {
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = struct{}{}
		fields[i] = arrow.Field{Name: name, Type: flow.ColumnType(name), Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

// checkPorts rejects empty port values, which the CSV reader loads as nulls.
func checkPorts(rec arrow.Record) error {
	for _, name := range []string{flow.ColSourcePort, flow.ColDestPort} {
		for _, idx := range rec.Schema().FieldIndices(name) {
			if n := rec.Column(idx).NullN(); n > 0 {
				return fmt.Errorf("column %s: %d empty values", name, n)
			}
		}
	}
	return nil
}
