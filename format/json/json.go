package json

import (
	"encoding/json"

	"github.com/netsampler/flowtop/analyzer"
	"github.com/netsampler/flowtop/format"
)

type flowRecord struct {
	SourceIP   string `json:"source_ip"`
	SourcePort int64  `json:"source_port"`
	DestIP     string `json:"dest_ip"`
	DestPort   int64  `json:"dest_port"`
	Protocol   string `json:"protocol"`
	Label      string `json:"label"`
	Count      int64  `json:"count"`
}

type resultRecord struct {
	Root     string       `json:"root"`
	Status   string       `json:"status"`
	Code     int          `json:"code"`
	Error    string       `json:"error,omitempty"`
	Output   string       `json:"output,omitempty"`
	Files    int          `json:"files,omitempty"`
	Rows     int64        `json:"rows,omitempty"`
	Distinct int          `json:"distinct,omitempty"`
	Flows    []flowRecord `json:"flows,omitempty"`
}

type JsonDriver struct {
}

func (d *JsonDriver) Format(res analyzer.Result) ([]byte, error) {
	rec := resultRecord{
		Root:   res.Root,
		Status: res.Status.String(),
		Code:   int(res.Status),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if r := res.Report; r != nil {
		rec.Output = r.Output
		rec.Files = r.Files
		rec.Rows = r.Rows
		rec.Distinct = r.Distinct
		rec.Flows = make([]flowRecord, len(r.Flows))
		for i, c := range r.Flows {
			rec.Flows[i] = flowRecord{c.SourceIP, c.SourcePort, c.DestIP, c.DestPort, c.Protocol, c.Label, c.Count}
		}
	}
	return json.Marshal(rec)
}

func init() {
	d := &JsonDriver{}
	format.RegisterFormatDriver("json", d)
}
