package nats

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/netsampler/flowtop/transport"
)

// RootHeader carries the analyzed root of a published result.
const RootHeader = "Flowtop-Root"

// Publisher is the subset of *nats.Conn used by the driver.
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
	Drain() error
}

// Driver publishes every formatted result on one subject.
type Driver struct {
	subject string
	conn    Publisher
}

type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("nats transport: %s", e.Err.Error())
}

func (e *TransportError) Unwrap() []error {
	return []error{transport.ErrTransport, e.Err}
}

var connect = func(url string, opts ...nats.Option) (Publisher, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return nc, nil
}

// Options builds the connection options.
func Options(opts transport.NATSOptions) []nats.Option {
	natsOpts := []nats.Option{
		nats.Name("flowtop"),
		nats.Timeout(time.Second * 5),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.WithError(err).Error("NATS error")
		}),
	}
	if opts.TLSCertFile != "" && opts.TLSKeyFile != "" {
		natsOpts = append(natsOpts, nats.ClientCert(opts.TLSCertFile, opts.TLSKeyFile))
	}
	if opts.TLSCAFile != "" {
		natsOpts = append(natsOpts, nats.RootCAs(opts.TLSCAFile))
	}
	if opts.TLSInsecure {
		natsOpts = append(natsOpts, nats.Secure(&tls.Config{InsecureSkipVerify: true}))
	}
	return natsOpts
}

func New(opts transport.NATSOptions) (*Driver, error) {
	if opts.Subject == "" {
		return nil, &TransportError{Err: fmt.Errorf("missing subject")}
	}
	if (opts.TLSCertFile == "") != (opts.TLSKeyFile == "") {
		return nil, &TransportError{Err: fmt.Errorf("tls.cert and tls.key must be set together")}
	}

	conn, err := connect(opts.URL, Options(opts)...)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to connect to NATS: %w", err)}
	}
	return &Driver{subject: opts.Subject, conn: conn}, nil
}

func (d *Driver) Send(key, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	msg := nats.NewMsg(d.subject)
	msg.Data = data
	msg.Header.Set(RootHeader, string(key))
	if err := d.conn.PublishMsg(msg); err != nil {
		return &TransportError{Err: fmt.Errorf("failed to publish message: %w", err)}
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (d *Driver) Close() error {
	return d.conn.Drain()
}

func init() {
	transport.RegisterTransportDriver("nats", func(opts transport.Options) (transport.TransportDriver, error) {
		return New(opts.NATS)
	})
}
