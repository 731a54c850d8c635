package text

import (
	"fmt"
	"strings"

	"github.com/netsampler/flowtop/analyzer"
	"github.com/netsampler/flowtop/format"
)

type TextDriver struct {
}

func (d *TextDriver) Format(res analyzer.Result) ([]byte, error) {
	var b strings.Builder
	if res.Report == nil {
		fmt.Fprintf(&b, "%s: %s", res.Root, res.Status)
		if res.Err != nil {
			fmt.Fprintf(&b, " (%s)", res.Err)
		}
		return []byte(b.String()), nil
	}

	r := res.Report
	fmt.Fprintf(&b, "%s: top %d flows (%d distinct, %d rows) written to %s", res.Root, len(r.Flows), r.Distinct, r.Rows, r.Output)
	for i, c := range r.Flows {
		fmt.Fprintf(&b, "\n%3d. %s", i+1, c)
	}
	return []byte(b.String()), nil
}

func init() {
	d := &TextDriver{}
	format.RegisterFormatDriver("text", d)
}
