package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/LanXuage/arpscanner/common"
	"github.com/LanXuage/arpscanner/core/arp"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
)

const NO_HOSTS = "No hosts found..."

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func hostRows(result *arp.Result) [][]string {
	rows := [][]string{}
	for _, host := range result.Hosts() {
		rows = append(rows, []string{host.IP.String(), host.Mac.String()})
	}
	return rows
}

// WriteTable renders the result as a host/mac table ordered by address, or
// the no hosts message when it is empty.
func WriteTable(w io.Writer, result *arp.Result) {
	rows := hostRows(result)
	if len(rows) == 0 {
		fmt.Fprintln(w, NO_HOSTS)
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("host", "mac").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

// WriteCSV writes the result to path with a host,mac header.
func WriteCSV(path string, result *arp.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return common.OutputError(path, errors.Wrap(err, "create csv"))
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"host", "mac"}); err != nil {
		return common.OutputError(path, errors.Wrap(err, "write csv"))
	}
	if err := w.WriteAll(hostRows(result)); err != nil {
		return common.OutputError(path, errors.Wrap(err, "write csv"))
	}
	if err := f.Close(); err != nil {
		return common.OutputError(path, errors.Wrap(err, "close csv"))
	}
	return nil
}
