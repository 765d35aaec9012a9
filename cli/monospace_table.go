package cli

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// monospaceTable prints rows in fixed width columns.
type monospaceTable struct {
	columns []string
	widths  []int
	rows    [][]string
}

func (table *monospaceTable) addColumn(columns ...string) error {
	if len(table.rows) > 0 {
		return errors.New("don't addColumn after addRow")
	}

	for _, column := range columns {
		table.columns = append(table.columns, column)
		table.widths = append(table.widths, len(column))
	}

	return nil
}

func (table *monospaceTable) addRow(values ...string) error {
	if len(values) != len(table.columns) {
		return errors.New("row length does not match column length")
	}

	table.rows = append(table.rows, values)

	for i, value := range values {
		if len(value) > table.widths[i] {
			table.widths[i] = len(value)
		}
	}

	return nil
}

func (table *monospaceTable) countRows() int {
	return len(table.rows)
}

func (table *monospaceTable) fprint(w io.Writer) error {
	buff := &strings.Builder{}
	rule := strings.Repeat("-", table.totalWidth())

	buff.WriteString(rule + "\n")
	table.printRow(buff, table.columns)
	buff.WriteString(rule + "\n")

	for _, row := range table.rows {
		table.printRow(buff, row)
	}

	buff.WriteString(rule)

	_, err := io.WriteString(w, buff.String())
	return err
}

func (table *monospaceTable) totalWidth() int {
	total := __ROW_PADDING_COUNT

	for _, width := range table.widths {
		total += width + __VALUE_PADDING_COUNT
	}

	return total
}

func (table *monospaceTable) printRow(buff *strings.Builder, row []string) {
	for i, value := range row {
		buff.WriteString("| ")
		buff.WriteString(value)
		buff.WriteString(strings.Repeat(" ", table.widths[i]-len(value)))
		buff.WriteString(" ")
	}

	buff.WriteString(" |\n")
}

const __VALUE_PADDING_COUNT = 3
const __ROW_PADDING_COUNT = 2
