package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"mogtools/internal/stats"
)

type reportWriter struct {
	out    io.Writer
	style  table.Style
	format valueFormatter
}

func writeReport(out io.Writer, report *stats.Report, format valueFormatter) {
	w := reportWriter{out: out, style: tableStyle(out), format: format}
	for i, kind := range report.Kinds {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Statistics for %s...\n", sectionTitle(kind))
		switch kind {
		case stats.KindDevices:
			w.devices(report.Devices)
		case stats.KindFIDs:
			fmt.Fprintf(out, "Max file id: %s\n", format.count(report.MaxFID))
		case stats.KindFiles:
			w.files(report.Files)
		case stats.KindDomains:
			w.domains(report.Domains)
		case stats.KindReplication:
			w.replication(report.Replication)
		case stats.KindReplicationQueue:
			w.queue(report.DatabaseTime, []string{"State", "Files"}, queueRows(report.ReplicationQueue, format))
		case stats.KindDeleteQueue:
			w.queue(report.DatabaseTime, []string{"State", "Files"}, queueRows(report.DeleteQueue, format))
		case stats.KindGeneralQueues:
			w.queue(report.DatabaseTime, []string{"Queue", "State", "Items"}, generalQueueRows(report.GeneralQueues, format))
		}
	}
}

func (w reportWriter) writeTable(headers []string, rows [][]string, aligns []columnAlignment) {
	if len(rows) == 0 {
		fmt.Fprintln(w.out, "(none)")
		return
	}
	fmt.Fprintln(w.out, renderTable(w.style, headers, rows, aligns))
}

func (w reportWriter) devices(devices []stats.DeviceStat) {
	rows := make([][]string, 0, len(devices))
	for _, dev := range devices {
		rows = append(rows, []string{
			"dev" + strconv.FormatInt(dev.DeviceID, 10),
			orDash(dev.Host),
			orDash(dev.Status),
			w.format.count(dev.Files),
		})
	}
	w.writeTable([]string{"Device", "Host", "Status", "Files"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight})
}

func (w reportWriter) files(files []stats.FileStat) {
	rows := make([][]string, 0, len(files))
	for _, row := range files {
		rows = append(rows, []string{
			row.Domain,
			row.Class,
			w.format.count(row.Files),
			w.format.bytes(row.Bytes),
			w.format.bytes(row.ReplicatedBytes),
		})
	}
	w.writeTable([]string{"Domain", "Class", "Files", "Size", "Replicated Size"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight})
}

func (w reportWriter) domains(domains []stats.DomainStat) {
	rows := make([][]string, 0, len(domains))
	for _, row := range domains {
		rows = append(rows, []string{row.Domain, row.Class, w.format.count(row.Files)})
	}
	w.writeTable([]string{"Domain", "Class", "Files"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}

func (w reportWriter) replication(replication []stats.ReplicationStat) {
	rows := make([][]string, 0, len(replication))
	for _, row := range replication {
		rows = append(rows, []string{
			row.Domain,
			row.Class,
			strconv.FormatInt(row.DevCount, 10),
			w.format.count(row.Files),
			strconv.FormatInt(row.MinDevCount, 10),
			string(row.Health),
		})
	}
	w.writeTable([]string{"Domain", "Class", "Devcount", "Files", "Min", "Health"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft})
}

func (w reportWriter) queue(now int64, headers []string, rows [][]string) {
	fmt.Fprintf(w.out, "Database time: %d (%s)\n", now, formatUnix(now))
	aligns := make([]columnAlignment, len(headers))
	aligns[len(aligns)-1] = alignRight
	w.writeTable(headers, rows, aligns)
}

func queueRows(counts stats.StateCounts, format valueFormatter) [][]string {
	ordered := counts.Ordered()
	rows := make([][]string, 0, len(ordered))
	for _, bucket := range ordered {
		rows = append(rows, []string{string(bucket.State), format.count(bucket.Count)})
	}
	return rows
}

func generalQueueRows(queues stats.QueueStateCounts, format valueFormatter) [][]string {
	var rows [][]string
	for _, name := range queues.Queues() {
		for _, bucket := range queues[name].Ordered() {
			rows = append(rows, []string{name, string(bucket.State), format.count(bucket.Count)})
		}
	}
	return rows
}

// jsonReport keys each selected report by its name.
type jsonReport map[string]any

func newJSONReport(report *stats.Report) jsonReport {
	out := jsonReport{}
	queued := false
	for _, kind := range report.Kinds {
		name := kind.String()
		switch kind {
		case stats.KindDevices:
			out[name] = nonNil(report.Devices)
		case stats.KindFIDs:
			out["max_fid"] = report.MaxFID
		case stats.KindFiles:
			out[name] = nonNil(report.Files)
		case stats.KindDomains:
			out[name] = nonNil(report.Domains)
		case stats.KindReplication:
			out[name] = nonNil(report.Replication)
		case stats.KindReplicationQueue:
			out[name] = report.ReplicationQueue.Ordered()
			queued = true
		case stats.KindDeleteQueue:
			out[name] = report.DeleteQueue.Ordered()
			queued = true
		case stats.KindGeneralQueues:
			queues := make(map[string][]stats.StateCount, len(report.GeneralQueues))
			for _, queueName := range report.GeneralQueues.Queues() {
				queues[queueName] = report.GeneralQueues[queueName].Ordered()
			}
			out[name] = queues
			queued = true
		}
	}
	if queued {
		out["database_time"] = report.DatabaseTime
	}
	return out
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
