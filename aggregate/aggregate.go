// Package aggregate concatenates loaded flow tables, counts rows per flow key and ranks the result.
package aggregate

import (
	"fmt"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/netsampler/flowtop/flow"
	"github.com/netsampler/flowtop/source"
)

var (
	// ErrAggregation is the base error of every aggregation failure.
	ErrAggregation = fmt.Errorf("aggregation failed")
	// ErrInvalidTopN is returned for a negative cutoff.
	ErrInvalidTopN = fmt.Errorf("%w: negative top_n", ErrAggregation)
)

// scanChunkSize bounds the rows per record when scanning a concatenated table.
const scanChunkSize = 64 * 1024

// Error wraps an aggregation failure with the step it happened in.
type Error struct {
	Step string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrAggregation.Error(), e.Step, e.Err.Error())
}

func (e *Error) Unwrap() []error {
	return []error{ErrAggregation, e.Err}
}

// Result is the ranked, truncated set of flow counts.
type Result struct {
	Counts   []flow.Count
	Rows     int64 // rows in the concatenated input
	Distinct int   // distinct keys before truncation
}

// Run concatenates the tables, groups them by flow key and keeps the topN most frequent flows.
// The tables are not released.
func Run(tables []*source.Table, topN int) (*Result, error) {
	if topN < 0 {
		return nil, ErrInvalidTopN
	}

	combined, err := Concat(tables)
	if err != nil {
		return nil, err
	}
	defer combined.Release()

	counts, rows, err := Group(combined)
	if err != nil {
		return nil, err
	}

	ranked, err := Rank(counts, topN)
	if err != nil {
		return nil, err
	}
	return &Result{
		Counts:   ranked,
		Rows:     rows,
		Distinct: len(counts),
	}, nil
}

// Concat stacks tables vertically in order, using the column order of the first table.
// Every table must carry the same set of columns with the same types.
func Concat(tables []*source.Table) (arrow.Table, error) {
	if len(tables) == 0 {
		return nil, &Error{Step: "concat", Err: fmt.Errorf("no tables")}
	}

	schema := tables[0].Schema()
	for _, tbl := range tables[1:] {
		if err := compatible(schema, tbl.Schema()); err != nil {
			return nil, &Error{Step: "concat", Err: fmt.Errorf("%s: %w (reference %s)", tbl.Path, err, tables[0].Path)}
		}
	}

	cols := make([]arrow.Column, 0, schema.NumFields())
	defer func() {
		for i := range cols {
			cols[i].Release()
		}
	}()
	for _, field := range schema.Fields() {
		var chunks []arrow.Array
		for _, tbl := range tables {
			idx := tbl.Schema().FieldIndices(field.Name)[0]
			chunks = append(chunks, tbl.Column(idx).Data().Chunks()...)
		}
		chunked := arrow.NewChunked(field.Type, chunks)
		cols = append(cols, *arrow.NewColumn(field, chunked))
		chunked.Release()
	}

	return array.NewTable(schema, cols, -1), nil
}

func compatible(ref, other *arrow.Schema) error {
	var missing, extra []string
	for _, field := range ref.Fields() {
		if !other.HasField(field.Name) {
			missing = append(missing, field.Name)
		}
	}
	for _, field := range other.Fields() {
		idx := ref.FieldIndices(field.Name)
		if len(idx) == 0 {
			extra = append(extra, field.Name)
			continue
		}
		if refType := ref.Field(idx[0]).Type; !arrow.TypeEqual(refType, field.Type) {
			return fmt.Errorf("column %s has type %s, expected %s", field.Name, field.Type, refType)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("incompatible schema: missing columns %v, unexpected columns %v", missing, extra)
	}
	return nil
}

// Group counts rows per flow key. It also returns the number of rows scanned.
func Group(tbl arrow.Table) (map[flow.Key]int64, int64, error) {
	schema := tbl.Schema()
	indices := make([]int, len(flow.KeyColumns))
	for i, name := range flow.KeyColumns {
		idx := schema.FieldIndices(name)
		if len(idx) == 0 {
			return nil, 0, &Error{Step: "group", Err: fmt.Errorf("missing key column %s", name)}
		}
		if got, want := schema.Field(idx[0]).Type, flow.ColumnType(name); !arrow.TypeEqual(got, want) {
			return nil, 0, &Error{Step: "group", Err: fmt.Errorf("key column %s has type %s, expected %s", name, got, want)}
		}
		indices[i] = idx[0]
	}

	counts := make(map[flow.Key]int64)
	var rows int64

	tr := array.NewTableReader(tbl, scanChunkSize)
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		var (
			srcIP    = rec.Column(indices[0]).(*array.String)
			srcPort  = rec.Column(indices[1]).(*array.Int64)
			dstIP    = rec.Column(indices[2]).(*array.String)
			dstPort  = rec.Column(indices[3]).(*array.Int64)
			protocol = rec.Column(indices[4]).(*array.String)
			label    = rec.Column(indices[5]).(*array.String)
		)
		for _, col := range []arrow.Array{srcIP, srcPort, dstIP, dstPort, protocol, label} {
			if col.NullN() > 0 {
				return nil, 0, &Error{Step: "group", Err: fmt.Errorf("null value in key columns")}
			}
		}

		for i := 0; i < int(rec.NumRows()); i++ {
			key := flow.Key{
				SourceIP:   srcIP.Value(i),
				SourcePort: srcPort.Value(i),
				DestIP:     dstIP.Value(i),
				DestPort:   dstPort.Value(i),
				Protocol:   protocol.Value(i),
				Label:      label.Value(i),
			}
			if _, ok := counts[key]; !ok {
				// Value aliases the record buffers
				key = key.Clone()
			}
			counts[key]++
		}
		rows += rec.NumRows()
	}
	return counts, rows, nil
}

// Rank sorts counts by count descending, ties by ascending key, and keeps at most topN.
// A zero topN yields no rows.
func Rank(counts map[flow.Key]int64, topN int) ([]flow.Count, error) {
	if topN < 0 {
		return nil, ErrInvalidTopN
	}

	ranked := make([]flow.Count, 0, len(counts))
	for key, count := range counts {
		ranked = append(ranked, flow.Count{Key: key, Count: count})
	}
	slices.SortFunc(ranked, flow.Ranking)

	if topN < len(ranked) {
		ranked = ranked[:topN]
	}
	return slices.Clip(ranked), nil
}
