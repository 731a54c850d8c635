package csv

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/netsampler/flowtop/analyzer"
	"github.com/netsampler/flowtop/flow"
	"github.com/netsampler/flowtop/format"
)

// CSVDriver renders one line per ranked flow, prefixed by the root and the rank.
// Failed analyses produce no lines.
type CSVDriver struct {
}

func (d *CSVDriver) Format(res analyzer.Result) ([]byte, error) {
	if res.Report == nil || len(res.Report.Flows) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for i, c := range res.Report.Flows {
		if err := w.Write(record(res.Root, i+1, c)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func record(root string, rank int, c flow.Count) []string {
	return []string{
		root,
		strconv.Itoa(rank),
		c.SourceIP,
		strconv.FormatInt(c.SourcePort, 10),
		c.DestIP,
		strconv.FormatInt(c.DestPort, 10),
		c.Protocol,
		c.Label,
		strconv.FormatInt(c.Count, 10),
	}
}

func init() {
	d := &CSVDriver{}
	format.RegisterFormatDriver("csv", d)
}
