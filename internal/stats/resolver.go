package stats

import (
	"fmt"
	"sort"

	"mogtools/internal/metadb"
)

// DefaultClassName is the name of classid 0, which every domain has
// whether or not the class table lists it.
const DefaultClassName = "default"

type classKey struct {
	domainID int64
	classID  int64
}

type classInfo struct {
	name        string
	minDevCount int64
}

// DomainClassEntry is one (domain, class) pair known to the index.
type DomainClassEntry struct {
	DomainID    int64
	Domain      string
	ClassID     int64
	Class       string
	MinDevCount int64
}

// DomainClassIndex resolves numeric domain and class ids to names. It is a
// snapshot built once per report run.
type DomainClassIndex struct {
	domains map[int64]string
	classes map[classKey]classInfo
}

// NewDomainClassIndex builds an index from domain LEFT JOIN class rows and
// injects a "default" class for every domain.
func NewDomainClassIndex(rows []metadb.DomainClassRow) *DomainClassIndex {
	idx := &DomainClassIndex{
		domains: make(map[int64]string),
		classes: make(map[classKey]classInfo),
	}
	for _, row := range rows {
		name := row.Namespace
		if name == "" {
			name = fmt.Sprintf("dmid=%d", row.DomainID)
		}
		idx.domains[row.DomainID] = name
		if !row.HasClass {
			continue
		}
		idx.classes[classKey{row.DomainID, row.ClassID}] = classInfo{
			name:        row.ClassName,
			minDevCount: row.MinDevCount,
		}
	}
	for domainID := range idx.domains {
		key := classKey{domainID, 0}
		info := idx.classes[key]
		info.name = DefaultClassName
		idx.classes[key] = info
	}
	return idx
}

// Resolve returns the domain and class names for the ids. Class 0 is always
// "default"; ids missing from the snapshot render as "dmid=N" / "classid=N".
func (x *DomainClassIndex) Resolve(domainID, classID int64) (string, string) {
	domain, ok := x.domains[domainID]
	if !ok {
		domain = fmt.Sprintf("dmid=%d", domainID)
	}
	if classID == 0 {
		return domain, DefaultClassName
	}
	if info, ok := x.classes[classKey{domainID, classID}]; ok {
		return domain, info.name
	}
	return domain, fmt.Sprintf("classid=%d", classID)
}

// MinDevCount returns the class's replica target, or fallback when the class
// is unknown or has no explicit target.
func (x *DomainClassIndex) MinDevCount(domainID, classID, fallback int64) int64 {
	if info, ok := x.classes[classKey{domainID, classID}]; ok && info.minDevCount > 0 {
		return info.minDevCount
	}
	return fallback
}

// Entries lists every known (domain, class) pair ordered by name.
func (x *DomainClassIndex) Entries() []DomainClassEntry {
	out := make([]DomainClassEntry, 0, len(x.classes))
	for key, info := range x.classes {
		domain, ok := x.domains[key.domainID]
		if !ok {
			continue
		}
		out = append(out, DomainClassEntry{
			DomainID:    key.domainID,
			Domain:      domain,
			ClassID:     key.classID,
			Class:       info.name,
			MinDevCount: info.minDevCount,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		return out[i].Class < out[j].Class
	})
	return out
}
