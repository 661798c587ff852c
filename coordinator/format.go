package coordinator

import (
	"strconv"
	"strings"

	"github.com/wrendb/wrendb/record"
)

// columnWidth is the fixed cell width every output-row column occupies,
// including the truncation marker.
const columnWidth = 16

// maxResponseBytes bounds how large a single statement's formatted
// response buffer may grow. A response that would exceed it stops
// accepting further rows and reports the shortfall with an ellipsis
// marker ahead of the footer, rather than growing without limit.
const maxResponseBytes = 64 * 1024

// formatCell renders one value as a leading space followed by a
// columnWidth-wide, space-padded field, marking truncation with "..."
// when the value's text is longer than the field allows.
func formatCell(s string) string {
	if len(s) > columnWidth {
		return " " + s[:columnWidth-3] + "..."
	}
	return " " + s + strings.Repeat(" ", columnWidth-len(s))
}

func separatorLine(numCols int) string {
	return strings.Repeat("+"+strings.Repeat("-", columnWidth+1), numCols) + "+"
}

func headerLine(columns []record.Column) string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = formatCell(c.Name)
	}
	return "|" + strings.Join(cells, "|") + "|"
}

func dataLine(columns []record.Column, rec record.Record) string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = formatCell(rec.GetValue(c).String())
	}
	return "|" + strings.Join(cells, "|") + "|"
}

// responseBuffer accumulates a SELECT/utility statement's formatted
// output up to maxResponseBytes, following the bounded response buffer
// the coordinator's DML select path writes into: once full, further rows
// are dropped and the final render carries an ellipsis marker ahead of
// the row-count footer.
type responseBuffer struct {
	lines     []string
	size      int
	truncated bool
}

func (b *responseBuffer) writeLine(line string) {
	if b.truncated {
		return
	}
	if b.size+len(line)+1 > maxResponseBytes {
		b.truncated = true
		return
	}
	b.lines = append(b.lines, line)
	b.size += len(line) + 1
}

// render joins the accumulated lines and appends the "Total record(s): N"
// footer, preceded by an ellipsis marker if the buffer filled before
// every row was written.
func (b *responseBuffer) render(recordCount int) string {
	var sb strings.Builder
	for _, l := range b.lines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	if b.truncated {
		sb.WriteString("... ...\n")
	}
	sb.WriteString("Total record(s): " + strconv.Itoa(recordCount))
	return sb.String()
}
