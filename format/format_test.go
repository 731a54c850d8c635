package format_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsampler/flowtop/analyzer"
	"github.com/netsampler/flowtop/flow"
	"github.com/netsampler/flowtop/format"
	_ "github.com/netsampler/flowtop/format/csv"
	_ "github.com/netsampler/flowtop/format/json"
	_ "github.com/netsampler/flowtop/format/text"
)

func sample() analyzer.Result {
	return analyzer.Result{
		Root:   "/data/flows",
		Status: analyzer.StatusOK,
		Report: &analyzer.Report{
			Root:     "/data/flows",
			Output:   "/data/flows/flows_top.parquet",
			Files:    2,
			Rows:     4,
			Distinct: 2,
			Flows: []flow.Count{
				{Key: flow.Key{SourceIP: "1.1.1.1", SourcePort: 80, DestIP: "2.2.2.2", DestPort: 443, Protocol: "tcp", Label: "benign"}, Count: 3},
				{Key: flow.Key{SourceIP: "3.3.3.3", SourcePort: 22, DestIP: "4.4.4.4", DestPort: 22, Protocol: "tcp", Label: "a,b"}, Count: 1},
			},
		},
	}
}

func failed() analyzer.Result {
	return analyzer.Result{
		Root:   "/data/empty",
		Status: analyzer.StatusNoInputFiles,
		Err:    errors.New("no input files"),
	}
}

func TestGetFormats(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "text"}, format.GetFormats())

	_, err := format.FindFormat("protobuf")
	assert.ErrorIs(t, err, format.ErrFormat)
}

func TestText(t *testing.T) {
	f, err := format.FindFormat("text")
	require.NoError(t, err)

	data, err := f.Format(sample())
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "/data/flows: top 2 flows (2 distinct, 4 rows) written to /data/flows/flows_top.parquet", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  1. 1.1.1.1:80 -> 2.2.2.2:443"))
	assert.True(t, strings.HasSuffix(lines[1], "count=3"))

	data, err = f.Format(failed())
	require.NoError(t, err)
	assert.Equal(t, "/data/empty: NoInputFiles (no input files)", string(data))
}

func TestJSON(t *testing.T) {
	f, err := format.FindFormat("json")
	require.NoError(t, err)

	data, err := f.Format(sample())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "OK", decoded["status"])
	assert.EqualValues(t, 0, decoded["code"])
	flows := decoded["flows"].([]interface{})
	require.Len(t, flows, 2)
	assert.Equal(t, map[string]interface{}{
		"source_ip": "1.1.1.1", "source_port": 80.0, "dest_ip": "2.2.2.2", "dest_port": 443.0,
		"protocol": "tcp", "label": "benign", "count": 3.0,
	}, flows[0])

	data, err = f.Format(failed())
	require.NoError(t, err)
	assert.JSONEq(t, `{"root":"/data/empty","status":"NoInputFiles","code":4,"error":"no input files"}`, string(data))
}

func TestCSV(t *testing.T) {
	f, err := format.FindFormat("csv")
	require.NoError(t, err)

	data, err := f.Format(sample())
	require.NoError(t, err)
	assert.Equal(t,
		"/data/flows,1,1.1.1.1,80,2.2.2.2,443,tcp,benign,3\n"+
			"/data/flows,2,3.3.3.3,22,4.4.4.4,22,tcp,\"a,b\",1",
		string(data))

	data, err = f.Format(failed())
	require.NoError(t, err)
	assert.Empty(t, data)
}
