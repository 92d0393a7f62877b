package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"mogtools/internal/logging"
	"mogtools/internal/metadb"
)

// Source is the read-only query surface a Collector needs. *metadb.DB
// satisfies it.
type Source interface {
	Now(ctx context.Context) (int64, error)
	DomainClasses(ctx context.Context) ([]metadb.DomainClassRow, error)
	Devices(ctx context.Context) ([]metadb.DeviceRow, error)
	Files(ctx context.Context) ([]metadb.FileRow, error)
	Replication(ctx context.Context) ([]metadb.ReplicationRow, error)
	MaxFID(ctx context.Context) (int64, error)
	ReplicationQueue(ctx context.Context) ([]metadb.QueueRow, error)
	DeleteQueue(ctx context.Context) ([]metadb.QueueRow, error)
	GeneralQueue(ctx context.Context) ([]metadb.QueueRow, error)
}

// ReplicaHealth compares a file's replica count with its class target.
type ReplicaHealth string

const (
	ReplicaUnder ReplicaHealth = "under"
	ReplicaOK    ReplicaHealth = "ok"
	ReplicaOver  ReplicaHealth = "over"
)

// DeviceStat is the devices report row.
type DeviceStat struct {
	DeviceID int64  `json:"devid"`
	Host     string `json:"host"`
	Status   string `json:"status"`
	Files    int64  `json:"files"`
}

// FileStat is the files report row.
type FileStat struct {
	Domain          string `json:"domain"`
	Class           string `json:"class"`
	Files           int64  `json:"files"`
	Bytes           int64  `json:"bytes"`
	ReplicatedBytes int64  `json:"replicated_bytes"`
}

// DomainStat is the domains report row.
type DomainStat struct {
	Domain string `json:"domain"`
	Class  string `json:"class"`
	Files  int64  `json:"files"`
}

// ReplicationStat is the replication report row.
type ReplicationStat struct {
	Domain      string        `json:"domain"`
	Class       string        `json:"class"`
	DevCount    int64         `json:"devcount"`
	Files       int64         `json:"files"`
	MinDevCount int64         `json:"mindevcount"`
	Health      ReplicaHealth `json:"health"`
}

// Report holds the materialized results of one run. Only the sections named
// in Kinds are populated.
type Report struct {
	Kinds            []Kind
	DatabaseTime     int64
	Devices          []DeviceStat
	MaxFID           int64
	Files            []FileStat
	Domains          []DomainStat
	Replication      []ReplicationStat
	ReplicationQueue StateCounts
	DeleteQueue      StateCounts
	GeneralQueues    QueueStateCounts
}

type collectFunc func(c *Collector, ctx context.Context, report *Report) error

var collectors = map[Kind]collectFunc{
	KindDevices:          (*Collector).collectDevices,
	KindFIDs:             (*Collector).collectFIDs,
	KindFiles:            (*Collector).collectFiles,
	KindDomains:          (*Collector).collectDomains,
	KindReplication:      (*Collector).collectReplication,
	KindReplicationQueue: (*Collector).collectReplicationQueue,
	KindDeleteQueue:      (*Collector).collectDeleteQueue,
	KindGeneralQueues:    (*Collector).collectGeneralQueues,
}

// Collector runs report kinds against a Source. The domain/class index and
// the database time are loaded at most once per Collector.
type Collector struct {
	source             Source
	logger             *slog.Logger
	defaultMinDevCount int64

	index   *DomainClassIndex
	now     int64
	haveNow bool
}

// NewCollector creates a collector. defaultMinDevCount is the replica target
// assumed for classes without an explicit mindevcount.
func NewCollector(source Source, logger *slog.Logger, defaultMinDevCount int) *Collector {
	if defaultMinDevCount <= 0 {
		defaultMinDevCount = 2
	}
	return &Collector{
		source:             source,
		logger:             logging.NewComponentLogger(logger, "stats"),
		defaultMinDevCount: int64(defaultMinDevCount),
	}
}

// Collect runs each kind in order and returns the combined report. The
// first failing query aborts the run.
func (c *Collector) Collect(ctx context.Context, kinds []Kind) (*Report, error) {
	report := &Report{Kinds: append([]Kind(nil), kinds...)}
	for _, kind := range kinds {
		fn, ok := collectors[kind]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownReport, kind)
		}
		started := time.Now()
		c.logger.Debug("fetching statistics", logging.String("report", kind.String()))
		if err := fn(c, ctx, report); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		c.logger.Debug("statistics fetched",
			logging.String("report", kind.String()),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
	if c.haveNow {
		report.DatabaseTime = c.now
	}
	return report, nil
}

func (c *Collector) domainIndex(ctx context.Context) (*DomainClassIndex, error) {
	if c.index != nil {
		return c.index, nil
	}
	rows, err := c.source.DomainClasses(ctx)
	if err != nil {
		return nil, err
	}
	c.index = NewDomainClassIndex(rows)
	return c.index, nil
}

func (c *Collector) databaseTime(ctx context.Context) (int64, error) {
	if c.haveNow {
		return c.now, nil
	}
	now, err := c.source.Now(ctx)
	if err != nil {
		return 0, err
	}
	c.now, c.haveNow = now, true
	return now, nil
}

func (c *Collector) collectDevices(ctx context.Context, report *Report) error {
	rows, err := c.source.Devices(ctx)
	if err != nil {
		return err
	}
	report.Devices = make([]DeviceStat, 0, len(rows))
	for _, row := range rows {
		report.Devices = append(report.Devices, DeviceStat(row))
	}
	sort.Slice(report.Devices, func(i, j int) bool {
		return report.Devices[i].DeviceID < report.Devices[j].DeviceID
	})
	return nil
}

func (c *Collector) collectFIDs(ctx context.Context, report *Report) error {
	fid, err := c.source.MaxFID(ctx)
	if err != nil {
		return err
	}
	report.MaxFID = fid
	return nil
}

type nameKey struct {
	domain string
	class  string
}

func (c *Collector) collectFiles(ctx context.Context, report *Report) error {
	idx, err := c.domainIndex(ctx)
	if err != nil {
		return err
	}
	rows, err := c.source.Files(ctx)
	if err != nil {
		return err
	}
	grouped := make(map[nameKey]*FileStat)
	for _, row := range rows {
		domain, class := idx.Resolve(row.DomainID, row.ClassID)
		key := nameKey{domain, class}
		stat, ok := grouped[key]
		if !ok {
			stat = &FileStat{Domain: domain, Class: class}
			grouped[key] = stat
		}
		stat.Files += row.Files
		stat.Bytes += row.Bytes
		stat.ReplicatedBytes += row.ReplicatedSize
	}
	report.Files = make([]FileStat, 0, len(grouped))
	for _, stat := range grouped {
		report.Files = append(report.Files, *stat)
	}
	sort.Slice(report.Files, func(i, j int) bool {
		return lessNames(report.Files[i].Domain, report.Files[i].Class, report.Files[j].Domain, report.Files[j].Class)
	})
	return nil
}

// collectDomains lists every known domain/class, including empty ones, with
// its file count.
func (c *Collector) collectDomains(ctx context.Context, report *Report) error {
	idx, err := c.domainIndex(ctx)
	if err != nil {
		return err
	}
	rows, err := c.source.Files(ctx)
	if err != nil {
		return err
	}
	counts := make(map[nameKey]int64)
	for _, row := range rows {
		domain, class := idx.Resolve(row.DomainID, row.ClassID)
		counts[nameKey{domain, class}] += row.Files
	}
	seen := make(map[nameKey]bool)
	report.Domains = nil
	for _, entry := range idx.Entries() {
		key := nameKey{entry.Domain, entry.Class}
		seen[key] = true
		report.Domains = append(report.Domains, DomainStat{Domain: entry.Domain, Class: entry.Class, Files: counts[key]})
	}
	for key, files := range counts {
		if seen[key] {
			continue
		}
		report.Domains = append(report.Domains, DomainStat{Domain: key.domain, Class: key.class, Files: files})
	}
	sort.Slice(report.Domains, func(i, j int) bool {
		return lessNames(report.Domains[i].Domain, report.Domains[i].Class, report.Domains[j].Domain, report.Domains[j].Class)
	})
	return nil
}

func (c *Collector) collectReplication(ctx context.Context, report *Report) error {
	idx, err := c.domainIndex(ctx)
	if err != nil {
		return err
	}
	rows, err := c.source.Replication(ctx)
	if err != nil {
		return err
	}
	type replicationKey struct {
		nameKey
		devCount int64
	}
	grouped := make(map[replicationKey]*ReplicationStat)
	for _, row := range rows {
		domain, class := idx.Resolve(row.DomainID, row.ClassID)
		key := replicationKey{nameKey{domain, class}, row.DevCount}
		stat, ok := grouped[key]
		if !ok {
			target := idx.MinDevCount(row.DomainID, row.ClassID, c.defaultMinDevCount)
			stat = &ReplicationStat{
				Domain:      domain,
				Class:       class,
				DevCount:    row.DevCount,
				MinDevCount: target,
				Health:      replicaHealth(row.DevCount, target),
			}
			grouped[key] = stat
		}
		stat.Files += row.Files
	}
	report.Replication = make([]ReplicationStat, 0, len(grouped))
	for _, stat := range grouped {
		report.Replication = append(report.Replication, *stat)
	}
	sort.Slice(report.Replication, func(i, j int) bool {
		a, b := report.Replication[i], report.Replication[j]
		if a.Domain != b.Domain || a.Class != b.Class {
			return lessNames(a.Domain, a.Class, b.Domain, b.Class)
		}
		return a.DevCount < b.DevCount
	})
	return nil
}

func (c *Collector) collectReplicationQueue(ctx context.Context, report *Report) error {
	now, err := c.databaseTime(ctx)
	if err != nil {
		return err
	}
	rows, err := c.source.ReplicationQueue(ctx)
	if err != nil {
		return err
	}
	report.ReplicationQueue = AggregateQueue(rows, now, ClassifyReplication)
	return nil
}

func (c *Collector) collectDeleteQueue(ctx context.Context, report *Report) error {
	now, err := c.databaseTime(ctx)
	if err != nil {
		return err
	}
	rows, err := c.source.DeleteQueue(ctx)
	if err != nil {
		return err
	}
	report.DeleteQueue = AggregateQueue(rows, now, Classify)
	return nil
}

func (c *Collector) collectGeneralQueues(ctx context.Context, report *Report) error {
	now, err := c.databaseTime(ctx)
	if err != nil {
		return err
	}
	rows, err := c.source.GeneralQueue(ctx)
	if err != nil {
		return err
	}
	report.GeneralQueues = AggregateGeneralQueue(rows, now)
	if counts, ok := report.GeneralQueues[QueueUnknown]; ok {
		logging.WarnWithContext(c.logger, "general queue holds rows of unrecognised type", "queue_type_unknown",
			logging.Int64("items", counts.Total()),
			logging.String(logging.FieldErrorHint, "check the tracker version against this tool's queue type map"),
		)
	}
	return nil
}

func replicaHealth(devCount, target int64) ReplicaHealth {
	switch {
	case devCount < target:
		return ReplicaUnder
	case devCount > target:
		return ReplicaOver
	default:
		return ReplicaOK
	}
}

func lessNames(domainA, classA, domainB, classB string) bool {
	if domainA != domainB {
		return domainA < domainB
	}
	return classA < classB
}
