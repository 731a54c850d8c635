package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/netsampler/flowtop/transport"
)

// HTTPDriver posts every formatted result to an endpoint.
type HTTPDriver struct {
	destination     string
	authHeader      string
	authCredentials string
	contentType     string
	client          *http.Client
}

func New(opts transport.HTTPOptions) (*HTTPDriver, error) {
	if opts.Destination == "" {
		return nil, fmt.Errorf("missing destination")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 10
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	return &HTTPDriver{
		destination:     opts.Destination,
		authHeader:      opts.AuthHeader,
		authCredentials: opts.AuthCredentials,
		contentType:     contentType,
		client:          &http.Client{Timeout: timeout},
	}, nil
}

func (d *HTTPDriver) Send(key, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	req, err := http.NewRequest(http.MethodPost, d.destination, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", d.contentType)
	if d.authHeader != "" {
		req.Header.Set(d.authHeader, d.authCredentials)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, d.destination)
	}
	return nil
}

func (d *HTTPDriver) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

func init() {
	transport.RegisterTransportDriver("http", func(opts transport.Options) (transport.TransportDriver, error) {
		return New(opts.HTTP)
	})
}
