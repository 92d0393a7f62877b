package stats

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownReport is returned when a report name is not recognised.
var ErrUnknownReport = errors.New("unknown report")

// Kind identifies one report. The zero value is invalid.
type Kind int

const (
	KindDevices Kind = iota + 1
	KindFIDs
	KindFiles
	KindDomains
	KindReplication
	KindReplicationQueue
	KindDeleteQueue
	KindGeneralQueues
)

// AllName is the selector that expands to every report.
const AllName = "all"

var kindNames = map[Kind]string{
	KindDevices:          "devices",
	KindFIDs:             "fids",
	KindFiles:            "files",
	KindDomains:          "domains",
	KindReplication:      "replication",
	KindReplicationQueue: "replication-queue",
	KindDeleteQueue:      "delete-queue",
	KindGeneralQueues:    "general-queues",
}

// AllKinds returns every report in output order.
func AllKinds() []Kind {
	return []Kind{
		KindDevices,
		KindFIDs,
		KindFiles,
		KindDomains,
		KindReplication,
		KindReplicationQueue,
		KindDeleteQueue,
		KindGeneralQueues,
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Names lists the accepted selector values, including "all".
func Names() []string {
	kinds := AllKinds()
	names := make([]string, 0, len(kinds)+1)
	for _, kind := range kinds {
		names = append(names, kind.String())
	}
	return append(names, AllName)
}

// ParseKind maps a single report name to its Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w %q (valid: %s)", ErrUnknownReport, name, strings.Join(Names(), ", "))
}

// ParseKinds parses a comma separated selector. "all" expands to every
// report; duplicates collapse and the result follows AllKinds order.
func ParseKinds(selector string) ([]Kind, error) {
	selected := make(map[Kind]bool)
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.EqualFold(part, AllName) {
			for _, kind := range AllKinds() {
				selected[kind] = true
			}
			continue
		}
		kind, err := ParseKind(part)
		if err != nil {
			return nil, err
		}
		selected[kind] = true
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no report selected (valid: %s)", ErrUnknownReport, strings.Join(Names(), ", "))
	}
	out := make([]Kind, 0, len(selected))
	for _, kind := range AllKinds() {
		if selected[kind] {
			out = append(out, kind)
		}
	}
	return out, nil
}
