// Package file implements a file/stdout transport.
package file

import (
	"io"
	"os"
	"sync"

	"github.com/netsampler/flowtop/transport"
)

// FileDriver writes formatted results to stdout or appends them to a file.
type FileDriver struct {
	lineSeparator string
	w             io.Writer
	file          *os.File
	lock          sync.Mutex
}

// New opens the destination. An empty path writes to stdout.
func New(opts transport.FileOptions) (*FileDriver, error) {
	d := &FileDriver{
		lineSeparator: opts.Separator,
		w:             os.Stdout,
	}
	if opts.Path != "" {
		file, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		d.file = file
		d.w = file
	}
	return d, nil
}

// Send writes a formatted result and separator to the destination.
func (d *FileDriver) Send(key, data []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if len(data) > 0 {
		if _, err := d.w.Write(data); err != nil {
			return err
		}
	}
	if d.lineSeparator == "" {
		return nil
	}
	_, err := io.WriteString(d.w, d.lineSeparator)
	return err
}

// Close closes the output file. Stdout is left open.
func (d *FileDriver) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	d.w = io.Discard
	return err
}

func init() {
	transport.RegisterTransportDriver("file", func(opts transport.Options) (transport.TransportDriver, error) {
		return New(opts.File)
	})
}
