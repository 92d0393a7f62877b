package metadb

// DomainClassRow is one row of domain LEFT JOIN class. HasClass is false for
// domains without any class rows.
type DomainClassRow struct {
	DomainID    int64
	Namespace   string
	HasClass    bool
	ClassID     int64
	ClassName   string
	MinDevCount int64
}

// DeviceRow is the file count of one device with its host and status.
type DeviceRow struct {
	DeviceID int64
	Host     string
	Status   string
	Files    int64
}

// FileRow aggregates files per domain and class. A NULL classid is reported
// as 0.
type FileRow struct {
	DomainID       int64
	ClassID        int64
	Files          int64
	Bytes          int64
	ReplicatedSize int64
}

// ReplicationRow counts files per domain, class, and replica count.
type ReplicationRow struct {
	DomainID int64
	ClassID  int64
	DevCount int64
	Files    int64
}

// QueueRow is an aggregate of queued items sharing a retry schedule. Type is
// only populated for the multiplexed file_to_queue table.
type QueueRow struct {
	Type    int64
	NextTry int64
	Count   int64
}
