package querynorm

import (
	"sort"
	"strings"

	"crm-assistant-backend/pkg/fuzzy"
)

// NameResolver maps a person's name to an email address
type NameResolver interface {
	Resolve(name string) (string, bool)
}

// DirectoryResolver resolves names against a fixed name to address table.
// Exact (case-insensitive) names win; otherwise the first name, in sorted
// order, that fuzzily matches is used.
type DirectoryResolver struct {
	exact map[string]string
	names []string
}

func NewDirectoryResolver(entries map[string]string) *DirectoryResolver {
	r := &DirectoryResolver{exact: make(map[string]string, len(entries))}
	for name, addr := range entries {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || addr == "" {
			continue
		}
		r.exact[key] = addr
		r.names = append(r.names, key)
	}
	sort.Strings(r.names)
	return r
}

func (r *DirectoryResolver) Resolve(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if addr, ok := r.exact[key]; ok {
		return addr, true
	}
	for _, candidate := range r.names {
		if fuzzy.MatchName(key, candidate) {
			return r.exact[candidate], true
		}
	}
	return "", false
}
