package source

import (
	"fmt"
)

var (
	// ErrInvalidRoot is returned when the root path is unreadable or not a directory.
	ErrInvalidRoot = fmt.Errorf("invalid input path")
	// ErrDiscovery is returned when walking the root fails.
	ErrDiscovery = fmt.Errorf("discovery error")
	// ErrNoInputFiles is returned when no CSV file exists under the root.
	ErrNoInputFiles = fmt.Errorf("no input files")
	// ErrParse is returned when a matched file cannot be opened or parsed.
	ErrParse = fmt.Errorf("source parse error")
)

// PathError ties a source failure to the file or directory it happened on.
type PathError struct {
	Kind error
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind.Error(), e.Path, e.Err.Error())
}

func (e *PathError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func parseError(path string, err error) error {
	return &PathError{Kind: ErrParse, Path: path, Err: err}
}
