package stats

// State is the operational state derived from a queue row's next-try value.
type State string

const (
	StateNew      State = "new"
	StateNewFile  State = "newfile"
	StateRedo     State = "redo"
	StateUnknown  State = "unknown"
	StateManual   State = "manual"
	StateOverdue  State = "overdue"
	StateDeferred State = "deferred"
)

const (
	// sentinelCeiling bounds the range of next-try values that encode an
	// enum rather than a timestamp.
	sentinelCeiling = 1000
	// ManualNextTry is the largest signed 32-bit timestamp; trackers store
	// it to mean "never retry automatically".
	ManualNextTry int64 = 2147483647
)

// stateOrder is the display order for states within one queue.
var stateOrder = []State{
	StateNew,
	StateNewFile,
	StateRedo,
	StateUnknown,
	StateManual,
	StateOverdue,
	StateDeferred,
}

// Classifier maps a next-try value to a state given the database time.
type Classifier func(nextTry, now int64) State

// Classify applies the queue rules in order: small sentinel codes, the
// manual-hold marker, then a comparison with now.
func Classify(nextTry, now int64) State {
	if nextTry < sentinelCeiling {
		switch nextTry {
		case 0:
			return StateNew
		case 1:
			return StateRedo
		default:
			return StateUnknown
		}
	}
	if nextTry == ManualNextTry {
		return StateManual
	}
	if nextTry < now {
		return StateOverdue
	}
	return StateDeferred
}

// ClassifyReplication is Classify with the replication queue's label for
// code 0.
func ClassifyReplication(nextTry, now int64) State {
	state := Classify(nextTry, now)
	if state == StateNew {
		return StateNewFile
	}
	return state
}

// Queue names for the multiplexed general queue table.
const (
	QueueFsck      = "FSCK_QUEUE"
	QueueRebalance = "REBAL_QUEUE"
	QueueUnknown   = "UNKNOWN_QUEUE"
)

// QueueName maps a file_to_queue type code to its queue name.
func QueueName(queueType int64) string {
	switch queueType {
	case 1:
		return QueueFsck
	case 2:
		return QueueRebalance
	default:
		return QueueUnknown
	}
}
