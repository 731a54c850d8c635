// Package source discovers CSV flow logs under a root directory and loads them as Arrow tables.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Extension is the file extension of input logs, matched case-insensitively.
const Extension = ".csv"

// DefaultChunkSize is the number of rows per Arrow record when loading a file.
const DefaultChunkSize = 64 * 1024

// Table is one loaded input file.
type Table struct {
	Path string
	arrow.Table
}

// Option configures loading.
type Option func(*options)

type options struct {
	mem       memory.Allocator
	chunkSize int
}

// WithAllocator sets the allocator backing loaded tables.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) {
		o.mem = mem
	}
}

// WithChunkSize sets the number of rows per record batch.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		mem:       memory.DefaultAllocator,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Discover returns every CSV file under root, recursively.
// Symbolic links to files are included, links to directories are not followed.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &PathError{Kind: ErrInvalidRoot, Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &PathError{Kind: ErrInvalidRoot, Path: root, Err: fmt.Errorf("not a directory")}
	}

	walkRoot := root
	if linfo, err := os.Lstat(root); err == nil && linfo.Mode()&fs.ModeSymlink != 0 {
		// WalkDir does not descend into a symlinked root
		if walkRoot, err = filepath.EvalSymlinks(root); err != nil {
			return nil, &PathError{Kind: ErrInvalidRoot, Path: root, Err: err}
		}
	}

	var paths []string
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == walkRoot {
				// the root itself cannot be listed
				return &PathError{Kind: ErrInvalidRoot, Path: root, Err: err}
			}
			return &PathError{Kind: ErrDiscovery, Path: path, Err: err}
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), Extension) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				return &PathError{Kind: ErrDiscovery, Path: path, Err: err}
			}
			if !target.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Collect discovers and loads every input file under root.
// It fails on the first file that cannot be loaded; already loaded tables are released.
func Collect(root string, opts ...Option) ([]*Table, error) {
	paths, err := Discover(root)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoInputFiles, root)
	}

	tables := make([]*Table, 0, len(paths))
	for _, path := range paths {
		tbl, err := Load(path, opts...)
		if err != nil {
			Release(tables)
			return nil, err
		}
		tables = append(tables, tbl)
	}
	return tables, nil
}

// Release releases every table in the slice.
func Release(tables []*Table) {
	for _, tbl := range tables {
		if tbl != nil && tbl.Table != nil {
			tbl.Release()
		}
	}
}
