// Package artifact writes ranked flow counts as a Parquet file inside the scanned root.
package artifact

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/netsampler/flowtop/flow"
)

const (
	// Suffix is appended to the root base name to form the artifact name.
	Suffix = "_top"
	// Extension is the artifact file extension.
	Extension = ".parquet"
	// FallbackName is used when the root has no usable base name.
	FallbackName = "top" + Extension
)

// ErrWrite is the base error of every artifact failure.
var ErrWrite = fmt.Errorf("output write error")

// WriteError wraps an artifact failure with its destination.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrWrite.Error(), e.Path, e.Err.Error())
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrWrite, e.Err}
}

// OutputPath derives the artifact location: <root>/<base(root)>_top.parquet.
func OutputPath(root string) string {
	return filepath.Join(root, outputName(root))
}

func outputName(root string) string {
	base := filepath.Base(filepath.Clean(root))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return FallbackName
	}
	return base + Suffix + Extension
}

// Encode serializes counts into a single Parquet file with one row group.
func Encode(counts []flow.Count, mem memory.Allocator) ([]byte, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	bldr := array.NewRecordBuilder(mem, flow.Schema)
	defer bldr.Release()

	var (
		srcIP    = bldr.Field(0).(*array.StringBuilder)
		srcPort  = bldr.Field(1).(*array.Int64Builder)
		dstIP    = bldr.Field(2).(*array.StringBuilder)
		dstPort  = bldr.Field(3).(*array.Int64Builder)
		protocol = bldr.Field(4).(*array.StringBuilder)
		label    = bldr.Field(5).(*array.StringBuilder)
		count    = bldr.Field(6).(*array.Int64Builder)
	)
	for _, c := range counts {
		srcIP.Append(c.SourceIP)
		srcPort.Append(c.SourcePort)
		dstIP.Append(c.DestIP)
		dstPort.Append(c.DestPort)
		protocol.Append(c.Protocol)
		label.Append(c.Label)
		count.Append(c.Count)
	}

	rec := bldr.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(flow.Schema, []arrow.Record{rec})
	defer tbl.Release()

	rowGroup := int64(len(counts))
	if rowGroup == 0 {
		rowGroup = 1
	}
	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
	)

	var buf bytes.Buffer
	if err := pqarrow.WriteTable(tbl, &buf, rowGroup, props, pqarrow.DefaultWriterProps()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes counts and atomically places the artifact inside root.
// It returns the artifact path. On failure no file is left at the returned path by this call.
func Write(root string, counts []flow.Count) (string, error) {
	path := OutputPath(root)

	payload, err := Encode(counts, memory.DefaultAllocator)
	if err != nil {
		return path, &WriteError{Path: path, Err: fmt.Errorf("encode: %w", err)}
	}
	if err := NewAtomicFileWriter(path).WriteAtomic(payload); err != nil {
		return path, &WriteError{Path: path, Err: err}
	}
	return path, nil
}
