// Package flow defines the flow tuple used as grouping key and the ranked counts built from it.
package flow

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Column names of the six key fields, in key order.
const (
	ColSourceIP   = "source_ip"
	ColSourcePort = "source_port"
	ColDestIP     = "dest_ip"
	ColDestPort   = "dest_port"
	ColProtocol   = "protocol"
	ColLabel      = "label"
	ColCount      = "count"
)

// KeyColumns lists the columns forming a Key, in key order.
var KeyColumns = []string{
	ColSourceIP,
	ColSourcePort,
	ColDestIP,
	ColDestPort,
	ColProtocol,
	ColLabel,
}

// ColumnType returns the Arrow type a column is loaded as.
// Ports are integers, every other column is kept as a string.
func ColumnType(name string) arrow.DataType {
	switch name {
	case ColSourcePort, ColDestPort:
		return arrow.PrimitiveTypes.Int64
	default:
		return arrow.BinaryTypes.String
	}
}

// Schema is the schema of the ranked result artifact.
var Schema = arrow.NewSchema(
	[]arrow.Field{
		{Name: ColSourceIP, Type: arrow.BinaryTypes.String},
		{Name: ColSourcePort, Type: arrow.PrimitiveTypes.Int64},
		{Name: ColDestIP, Type: arrow.BinaryTypes.String},
		{Name: ColDestPort, Type: arrow.PrimitiveTypes.Int64},
		{Name: ColProtocol, Type: arrow.BinaryTypes.String},
		{Name: ColLabel, Type: arrow.BinaryTypes.String},
		{Name: ColCount, Type: arrow.PrimitiveTypes.Int64},
	},
	nil,
)

// Key identifies a flow. Two rows belong to the same flow iff all fields are equal.
type Key struct {
	SourceIP   string
	SourcePort int64
	DestIP     string
	DestPort   int64
	Protocol   string
	Label      string
}

// Compare orders keys field by field: strings by byte order, ports numerically.
func (k Key) Compare(o Key) int {
	if c := strings.Compare(k.SourceIP, o.SourceIP); c != 0 {
		return c
	}
	if c := cmp.Compare(k.SourcePort, o.SourcePort); c != 0 {
		return c
	}
	if c := strings.Compare(k.DestIP, o.DestIP); c != 0 {
		return c
	}
	if c := cmp.Compare(k.DestPort, o.DestPort); c != 0 {
		return c
	}
	if c := strings.Compare(k.Protocol, o.Protocol); c != 0 {
		return c
	}
	return strings.Compare(k.Label, o.Label)
}

// Clone returns a copy of the key that does not share string memory with the input buffers.
func (k Key) Clone() Key {
	k.SourceIP = strings.Clone(k.SourceIP)
	k.DestIP = strings.Clone(k.DestIP)
	k.Protocol = strings.Clone(k.Protocol)
	k.Label = strings.Clone(k.Label)
	return k
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d [%s] label=%s", k.SourceIP, k.SourcePort, k.DestIP, k.DestPort, k.Protocol, k.Label)
}

// Count is a flow and the number of input rows sharing its key.
type Count struct {
	Key
	Count int64
}

// Ranking orders counts by count descending, ties broken by ascending key.
func Ranking(a, b Count) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	return a.Key.Compare(b.Key)
}

func (c Count) String() string {
	return fmt.Sprintf("%s count=%d", c.Key.String(), c.Count)
}
