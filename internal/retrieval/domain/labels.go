package domain

import (
	"sort"
	"strings"
)

// Labels is a set of mailbox labels, persisted as a JSON array
type Labels []string

// NewLabels deduplicates and sorts labels, dropping blanks.
func NewLabels(labels ...string) Labels {
	seen := make(map[string]bool, len(labels))
	out := make(Labels, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func (l Labels) Has(label string) bool {
	for _, v := range l {
		if v == label {
			return true
		}
	}
	return false
}
