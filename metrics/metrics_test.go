package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureStage(t *testing.T) {
	TimeMeasureNow().MeasureStage("test")
	assert.Equal(t, 1, testutil.CollectAndCount(StageTime))
}

func TestWriteTextfile(t *testing.T) {
	AnalyzeRuns.With(prometheus.Labels{"status": "OK"}).Inc()

	path := filepath.Join(t.TempDir(), "flowtop.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "flowtop_analyze_runs_total")
}

func TestPush(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, Push(srv.URL, "flowtop"))
	assert.True(t, strings.HasSuffix(gotPath, "/job/flowtop"), gotPath)
}

func TestPushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Error(t, Push(srv.URL, "flowtop"))
}
