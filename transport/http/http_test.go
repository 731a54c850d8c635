package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsampler/flowtop/transport"
)

func TestHTTPDriver(t *testing.T) {
	var (
		lock   sync.Mutex
		bodies []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		body, _ := io.ReadAll(r.Body)
		lock.Lock()
		bodies = append(bodies, string(body))
		lock.Unlock()
		if string(body) == "reject" {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	d, err := New(transport.HTTPOptions{
		Destination:     server.URL,
		AuthHeader:      "X-Token",
		AuthCredentials: "secret",
	})
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Send([]byte("/a"), []byte(`{"root":"/a"}`)))
	require.NoError(t, d.Send([]byte("/b"), nil))
	err = d.Send([]byte("/c"), []byte("reject"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	lock.Lock()
	defer lock.Unlock()
	assert.Equal(t, []string{`{"root":"/a"}`, "reject"}, bodies)
}

func TestHTTPDriverMissingDestination(t *testing.T) {
	_, err := transport.FindTransport("http", transport.Options{})
	assert.ErrorIs(t, err, transport.ErrTransport)
	assert.Contains(t, err.Error(), "missing destination")
}
