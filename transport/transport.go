// Package transport provides a registry and interfaces for result outputs.
package transport

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	transportDrivers = make(map[string]Factory)
	lock             = &sync.RWMutex{}

	// ErrTransport is the base error for transport failures.
	ErrTransport = fmt.Errorf("transport error")
)

// DriverTransportError wraps a driver-specific error with its transport name.
type DriverTransportError struct {
	Driver string
	Err    error
}

func (e *DriverTransportError) Error() string {
	return fmt.Sprintf("%s for %s transport", e.Err.Error(), e.Driver)
}

func (e *DriverTransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// TransportDriver sends formatted results somewhere.
type TransportDriver interface {
	Send(key, data []byte) error // Send a formatted result, key is the analyzed root
	Close() error                // Close driver (eg: flush producers and close files)
}

// Factory builds a driver from options.
type Factory func(opts Options) (TransportDriver, error)

// Options carries the settings of every driver.
type Options struct {
	File  FileOptions  `yaml:"file"`
	HTTP  HTTPOptions  `yaml:"http"`
	Kafka KafkaOptions `yaml:"kafka"`
	NATS  NATSOptions  `yaml:"nats"`
}

type FileOptions struct {
	Path      string `yaml:"path"`
	Separator string `yaml:"separator"`
}

type HTTPOptions struct {
	Destination     string        `yaml:"destination"`
	AuthHeader      string        `yaml:"auth_header"`
	AuthCredentials string        `yaml:"auth_credentials"`
	ContentType     string        `yaml:"content_type"`
	Timeout         time.Duration `yaml:"timeout"`
}

type KafkaOptions struct {
	Brokers         string `yaml:"brokers"`
	Topic           string `yaml:"topic"`
	Version         string `yaml:"version"`
	TLS             bool   `yaml:"tls"`
	SASL            string `yaml:"sasl"`
	Compression     string `yaml:"compression"`
	MaxMessageBytes int    `yaml:"max_message_bytes"`
}

// Transport is a named transport wrapper used by the registry.
type Transport struct {
	TransportDriver
	name string
}

func (t *Transport) Name() string {
	return t.name
}

// Close calls the driver Close and wraps errors with transport metadata.
func (t *Transport) Close() error {
	if err := t.TransportDriver.Close(); err != nil {
		return &DriverTransportError{t.name, err}
	}
	return nil
}

// Send forwards data to the driver and wraps errors with transport metadata.
func (t *Transport) Send(key, data []byte) error {
	if err := t.TransportDriver.Send(key, data); err != nil {
		return &DriverTransportError{t.name, err}
	}
	return nil
}

// RegisterTransportDriver registers a transport factory under a name.
func RegisterTransportDriver(name string, f Factory) {
	lock.Lock()
	transportDrivers[name] = f
	lock.Unlock()
}

// FindTransport builds the transport registered under name.
func FindTransport(name string, opts Options) (*Transport, error) {
	lock.RLock()
	f, ok := transportDrivers[name]
	lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %s not found", ErrTransport, name)
	}

	d, err := f(opts)
	if err != nil {
		return nil, &DriverTransportError{name, err}
	}
	return &Transport{d, name}, nil
}

// GetTransports returns the registered transport names, sorted.
func GetTransports() []string {
	lock.RLock()
	defer lock.RUnlock()
	t := make([]string, 0, len(transportDrivers))
	for k := range transportDrivers {
		t = append(t, k)
	}
	sort.Strings(t)
	return t
}

type NATSOptions struct {
	URL         string `yaml:"url"`
	Subject     string `yaml:"subject"`
	TLSCertFile string `yaml:"tls_cert"`
	TLSKeyFile  string `yaml:"tls_key"`
	TLSCAFile   string `yaml:"tls_ca"`
	TLSInsecure bool   `yaml:"tls_insecure"`
}
