package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"mogtools/internal/stats"
)

// valueFormatter renders numbers either raw or, with --human, grouped and
// in IEC byte units.
type valueFormatter struct {
	human   bool
	printer *message.Printer
}

func newValueFormatter(human bool) valueFormatter {
	return valueFormatter{human: human, printer: message.NewPrinter(language.English)}
}

func (f valueFormatter) count(value int64) string {
	if !f.human {
		return strconv.FormatInt(value, 10)
	}
	return f.printer.Sprintf("%d", value)
}

func (f valueFormatter) bytes(value int64) string {
	if !f.human {
		return strconv.FormatInt(value, 10)
	}
	if value < 0 {
		return "-" + humanize.IBytes(uint64(-value))
	}
	return humanize.IBytes(uint64(value))
}

var titleCaser = cases.Title(language.English)

// sectionTitle turns a report name such as "replication-queue" into
// "Replication Queue".
func sectionTitle(kind stats.Kind) string {
	return titleCaser.String(strings.ReplaceAll(kind.String(), "-", " "))
}

func formatUnix(seconds int64) string {
	return time.Unix(seconds, 0).UTC().Format(time.RFC3339)
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
