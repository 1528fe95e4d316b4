package imap

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
)

var (
	tokenPattern = regexp.MustCompile(`(\w+):"([^"]*)"|(\w+):(\S+)|"([^"]*)"|(\S+)`)
	relativeAge  = regexp.MustCompile(`^(\d+)([dmy])$`)
)

// BuildCriteria translates the normalized search grammar into IMAP SEARCH
// criteria. Unknown operators and bare words become TEXT terms.
func BuildCriteria(query string, now time.Time) *imap.SearchCriteria {
	c := imap.NewSearchCriteria()

	for _, m := range tokenPattern.FindAllStringSubmatch(query, -1) {
		var op, value string
		switch {
		case m[1] != "":
			op, value = m[1], m[2]
		case m[3] != "":
			op, value = m[3], m[4]
		case m[5] != "":
			value = m[5]
		default:
			value = m[6]
		}

		if op == "" || !applyOperator(c, strings.ToLower(op), value, now) {
			if op != "" {
				value = op + ":" + value
			}
			if value != "" {
				c.Text = append(c.Text, value)
			}
		}
	}
	return c
}

func applyOperator(c *imap.SearchCriteria, op, value string, now time.Time) bool {
	switch op {
	case "from":
		c.Header.Add("From", value)
	case "to":
		c.Header.Add("To", value)
	case "subject":
		c.Header.Add("Subject", value)
	case "is":
		switch strings.ToLower(value) {
		case "unread":
			c.WithoutFlags = append(c.WithoutFlags, imap.SeenFlag)
		case "read":
			c.WithFlags = append(c.WithFlags, imap.SeenFlag)
		case "starred", "important":
			c.WithFlags = append(c.WithFlags, imap.FlaggedFlag)
		default:
			return false
		}
	case "has":
		if value != "attachment" {
			return false
		}
		c.Header.Add("Content-Type", "multipart/mixed")
	case "newer_than":
		since, ok := relativeSince(value, now)
		if !ok {
			return false
		}
		c.Since = since
	case "after":
		t, err := time.Parse("2006/1/2", value)
		if err != nil {
			return false
		}
		c.Since = t
	case "before":
		t, err := time.Parse("2006/1/2", value)
		if err != nil {
			return false
		}
		c.Before = t
	case "in":
		// the mailbox is chosen when selecting, not in SEARCH
	default:
		return false
	}
	return true
}

func relativeSince(value string, now time.Time) (time.Time, bool) {
	m := relativeAge.FindStringSubmatch(strings.ToLower(value))
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	switch m[2] {
	case "d":
		return now.AddDate(0, 0, -n), true
	case "m":
		return now.AddDate(0, -n, 0), true
	default:
		return now.AddDate(-n, 0, 0), true
	}
}
