// Package format provides a registry of renderers for analysis results.
package format

import (
	"fmt"
	"sort"
	"sync"

	"github.com/netsampler/flowtop/analyzer"
)

var (
	formatDrivers = make(map[string]FormatDriver)
	lock          = &sync.RWMutex{}

	ErrFormat = fmt.Errorf("format error")
)

type DriverFormatError struct {
	Driver string
	Err    error
}

func (e *DriverFormatError) Error() string {
	return fmt.Sprintf("%s for %s format", e.Err.Error(), e.Driver)
}

func (e *DriverFormatError) Unwrap() []error {
	return []error{ErrFormat, e.Err}
}

// FormatDriver renders one result. An empty payload means there is nothing to emit.
type FormatDriver interface {
	Format(res analyzer.Result) ([]byte, error)
}

type Format struct {
	FormatDriver
	name string
}

func (t *Format) Name() string {
	return t.name
}

func (t *Format) Format(res analyzer.Result) ([]byte, error) {
	data, err := t.FormatDriver.Format(res)
	if err != nil {
		err = &DriverFormatError{
			t.name,
			err,
		}
	}
	return data, err
}

func RegisterFormatDriver(name string, t FormatDriver) {
	lock.Lock()
	formatDrivers[name] = t
	lock.Unlock()
}

func FindFormat(name string) (*Format, error) {
	lock.RLock()
	t, ok := formatDrivers[name]
	lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %s not found", ErrFormat, name)
	}
	return &Format{t, name}, nil
}

// GetFormats returns the registered format names, sorted.
func GetFormats() []string {
	lock.RLock()
	defer lock.RUnlock()
	t := make([]string, 0, len(formatDrivers))
	for k := range formatDrivers {
		t = append(t, k)
	}
	sort.Strings(t)
	return t
}
