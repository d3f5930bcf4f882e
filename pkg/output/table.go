package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/telekom/failed-job-deactivator/pkg/mail"
	"github.com/telekom/failed-job-deactivator/pkg/notification"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// WriteSummaryTable prints one row per counter of a dispatch run.
func WriteSummaryTable(w io.Writer, s notification.Summary) {
	rows := [][]string{
		{"processed", strconv.Itoa(s.Processed)},
		{"description failures", strconv.Itoa(s.DescriptionFailures)},
		{"sent", strconv.Itoa(s.Sent)},
		{"delivery failures", strconv.Itoa(s.DeliveryFailures)},
		{"skipped", strconv.Itoa(s.Skipped)},
	}
	_, _ = fmt.Fprintln(w, renderTable([]string{"RESULT", "COUNT"}, rows, []columnAlignment{alignLeft, alignRight}))
}

// WriteTransportTable prints the resolved transport settings.
func WriteTransportTable(w io.Writer, info mail.TransportInfo) {
	port := info.Port
	if port == "" {
		port = "-"
	}
	rows := [][]string{
		{"enabled", strconv.FormatBool(info.Enabled)},
		{"host", info.Host},
		{"port", port},
		{"ssl", strconv.FormatBool(info.SSL)},
		{"auth user", info.AuthUser},
		{"password set", strconv.FormatBool(info.PasswordSet)},
		{"reply-to", info.ReplyTo},
	}
	_, _ = fmt.Fprintln(w, renderTable([]string{"SETTING", "VALUE"}, rows, nil))
}
