package cluster

import (
	"strings"
)

// Query answers read-only questions about a model.
type Query struct {
	model *Model
}

// NewQuery returns a Query for the model.
func NewQuery(m *Model) *Query {
	return &Query{model: m}
}

// IsMonitor returns true if the local host is one of the cluster's monitors.
// Unknown membership is treated as not being a monitor.
func (q *Query) IsMonitor() bool {
	_, ok := q.LocalMonitor()

	return ok
}

// LocalMonitor returns the monitor running on the local host, matched on either
// the monitor ID or the host set in its section.
func (q *Query) LocalMonitor() (MonMember, bool) {
	if q.model.Hostname == "" || q.model.MonMembers == nil {
		return MonMember{}, false
	}

	for _, member := range q.model.MonMembers {
		if shortName(member.Name) == q.model.Hostname || shortName(member.Host) == q.model.Hostname {
			return member, true
		}
	}

	return MonMember{}, false
}

func shortName(name string) string {
	short, _, _ := strings.Cut(name, ".")

	return short
}
