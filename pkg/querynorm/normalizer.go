package querynorm

import (
	"regexp"
	"strings"
)

const recencyFilter = "newer_than:1m"

var (
	whatDidPattern = regexp.MustCompile(`(?i)^\s*what did (.+?) (?:say|write|send) about (.+?)\s*\??\s*$`)
	recentlyWord   = regexp.MustCompile(`\brecently\b`)
	subjectClause  = regexp.MustCompile(`\bsubject\s*:\s*(.+)$`)
	addressFilter  = regexp.MustCompile(`(?:^|\s)(?:from|to):\S`)

	rewrites = []struct {
		pattern *regexp.Regexp
		replace string
	}{
		{regexp.MustCompile(`\b(?:show me|find|search for|get|list)(?: all)?(?: my)? (?:emails?|messages?|mail)\b`), ""},
		{regexp.MustCompile(`\bfrom\s+([^\s:]\S*)`), "from:$1"},
		{regexp.MustCompile(`\bto\s+([^\s:]\S*)`), "to:$1"},
		{regexp.MustCompile(`\bis\s+(unread|read|starred|important)\b`), "is:$1"},
		{regexp.MustCompile(`\bhas\s+attachments?\b`), "has:attachment"},
		{regexp.MustCompile(`\bin\s+(inbox|sent|trash|spam|drafts|anywhere)\b`), "in:$1"},
		{regexp.MustCompile(`\b(after|before)\s+(\d{4}/\d{1,2}/\d{1,2})\b`), "$1:$2"},
	}
)

// Normalizer rewrites natural-language mail questions into the
// provider-neutral search grammar (from:, to:, subject:, is:, newer_than:).
type Normalizer struct {
	Resolver NameResolver
}

func New(resolver NameResolver) *Normalizer {
	return &Normalizer{Resolver: resolver}
}

// Normalize rewrites query. Words that match no rule pass through
// lowercased.
func (n *Normalizer) Normalize(query string) string {
	if m := whatDidPattern.FindStringSubmatch(query); m != nil {
		return n.whatDid(m[1], m[2])
	}

	q := strings.ToLower(strings.TrimSpace(query))

	var subject string
	if loc := subjectClause.FindStringSubmatchIndex(q); loc != nil {
		subject = strings.Trim(strings.TrimSpace(q[loc[2]:loc[3]]), `"`)
		q = q[:loc[0]]
	}

	q = recentlyWord.ReplaceAllString(q, recencyFilter)
	for _, r := range rewrites {
		q = r.pattern.ReplaceAllString(q, r.replace)
	}

	parts := strings.Fields(q)
	if subject != "" {
		parts = append(parts, `subject:"`+subject+`"`)
	}
	return strings.Join(parts, " ")
}

func (n *Normalizer) whatDid(person, topic string) string {
	topic = strings.ToLower(strings.TrimSpace(topic))
	recent := false
	if recentlyWord.MatchString(topic) {
		recent = true
		topic = strings.Join(strings.Fields(recentlyWord.ReplaceAllString(topic, "")), " ")
	}

	parts := []string{"from:" + n.sender(person)}
	if topic != "" {
		parts = append(parts, topic)
	}
	if recent {
		parts = append(parts, recencyFilter)
	}
	return strings.Join(parts, " ")
}

func (n *Normalizer) sender(person string) string {
	person = strings.TrimSpace(person)
	if strings.Contains(person, "@") {
		return strings.ToLower(person)
	}
	if n.Resolver != nil {
		if addr, ok := n.Resolver.Resolve(person); ok {
			return strings.ToLower(addr)
		}
	}
	name := strings.ToLower(person)
	if strings.Contains(name, " ") {
		return `"` + name + `"`
	}
	return name
}

// HasAddressFilter reports whether q already restricts sender or recipient.
func HasAddressFilter(q string) bool {
	return addressFilter.MatchString(q)
}
