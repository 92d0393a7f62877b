package metrics

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"mogtools/internal/stats"
)

const namespace = "mogilefs"

// Label names.
const (
	LabelDevice   = "devid"
	LabelHost     = "host"
	LabelStatus   = "status"
	LabelDomain   = "domain"
	LabelClass    = "class"
	LabelDevCount = "devcount"
	LabelHealth   = "health"
	LabelQueue    = "queue"
	LabelState    = "state"
)

// Queue label values for the two dedicated queue tables. General queues use
// their own names.
const (
	QueueReplication = "replication"
	QueueDelete      = "delete"
)

// reportMetrics holds the gauges for one report.
type reportMetrics struct {
	deviceFiles      *prometheus.GaugeVec
	maxFID           prometheus.Gauge
	files            *prometheus.GaugeVec
	fileBytes        *prometheus.GaugeVec
	replicatedBytes  *prometheus.GaugeVec
	domainFiles      *prometheus.GaugeVec
	replicationFiles *prometheus.GaugeVec
	queueItems       *prometheus.GaugeVec
	databaseTime     prometheus.Gauge
}

func newMetrics() *reportMetrics {
	return &reportMetrics{
		deviceFiles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "device",
				Name:      "files",
				Help:      "Number of file replicas stored on each device",
			},
			[]string{LabelDevice, LabelHost, LabelStatus},
		),
		maxFID: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_fid",
			Help:      "Highest allocated file id",
		}),
		files: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "class",
				Name:      "files",
				Help:      "Number of files per domain and class",
			},
			[]string{LabelDomain, LabelClass},
		),
		fileBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "class",
				Name:      "bytes",
				Help:      "Logical bytes stored per domain and class",
			},
			[]string{LabelDomain, LabelClass},
		),
		replicatedBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "class",
				Name:      "replicated_bytes",
				Help:      "Bytes stored across all replicas per domain and class",
			},
			[]string{LabelDomain, LabelClass},
		),
		domainFiles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "domain",
				Name:      "files",
				Help:      "Number of files per domain and class, including empty classes",
			},
			[]string{LabelDomain, LabelClass},
		),
		replicationFiles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "replication",
				Name:      "files",
				Help:      "Number of files per domain, class and replica count",
			},
			[]string{LabelDomain, LabelClass, LabelDevCount, LabelHealth},
		),
		queueItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "queue",
				Name:      "items",
				Help:      "Queued items per queue and operational state",
			},
			[]string{LabelQueue, LabelState},
		),
		databaseTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "database_time_seconds",
			Help:      "Metadata database clock used to classify queue rows",
		}),
	}
}

// NewRegistry builds a registry populated from report. Only the collected
// report kinds are registered.
func NewRegistry(report *stats.Report) (*prometheus.Registry, error) {
	if report == nil {
		return nil, errors.New("metrics: report is nil")
	}
	m := newMetrics()
	registry := prometheus.NewRegistry()

	var queued bool
	for _, kind := range report.Kinds {
		var collector prometheus.Collector
		switch kind {
		case stats.KindDevices:
			for _, dev := range report.Devices {
				m.deviceFiles.WithLabelValues(strconv.FormatInt(dev.DeviceID, 10), dev.Host, dev.Status).Set(float64(dev.Files))
			}
			collector = m.deviceFiles
		case stats.KindFIDs:
			m.maxFID.Set(float64(report.MaxFID))
			collector = m.maxFID
		case stats.KindFiles:
			for _, row := range report.Files {
				m.files.WithLabelValues(row.Domain, row.Class).Set(float64(row.Files))
				m.fileBytes.WithLabelValues(row.Domain, row.Class).Set(float64(row.Bytes))
				m.replicatedBytes.WithLabelValues(row.Domain, row.Class).Set(float64(row.ReplicatedBytes))
			}
			if err := registerAll(registry, m.files, m.fileBytes); err != nil {
				return nil, err
			}
			collector = m.replicatedBytes
		case stats.KindDomains:
			for _, row := range report.Domains {
				m.domainFiles.WithLabelValues(row.Domain, row.Class).Set(float64(row.Files))
			}
			collector = m.domainFiles
		case stats.KindReplication:
			for _, row := range report.Replication {
				m.replicationFiles.WithLabelValues(row.Domain, row.Class, strconv.FormatInt(row.DevCount, 10), string(row.Health)).Set(float64(row.Files))
			}
			collector = m.replicationFiles
		case stats.KindReplicationQueue:
			setQueue(m.queueItems, QueueReplication, report.ReplicationQueue)
			queued = true
		case stats.KindDeleteQueue:
			setQueue(m.queueItems, QueueDelete, report.DeleteQueue)
			queued = true
		case stats.KindGeneralQueues:
			for _, name := range report.GeneralQueues.Queues() {
				setQueue(m.queueItems, name, report.GeneralQueues[name])
			}
			queued = true
		}
		if collector != nil {
			if err := registry.Register(collector); err != nil {
				return nil, fmt.Errorf("register %s metrics: %w", kind, err)
			}
		}
	}
	if queued {
		m.databaseTime.Set(float64(report.DatabaseTime))
		if err := registerAll(registry, m.queueItems, m.databaseTime); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// WriteTextfile renders report in the Prometheus text format at path. The
// file is replaced atomically.
func WriteTextfile(path string, report *stats.Report) error {
	registry, err := NewRegistry(report)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func setQueue(vec *prometheus.GaugeVec, queue string, counts stats.StateCounts) {
	for _, bucket := range counts.Ordered() {
		vec.WithLabelValues(queue, string(bucket.State)).Set(float64(bucket.Count))
	}
}

func registerAll(registry *prometheus.Registry, collectors ...prometheus.Collector) error {
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
	}
	return nil
}
