package querynorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWhatDidWithResolver(t *testing.T) {
	n := New(NewDirectoryResolver(map[string]string{
		"Jane Smith": "jane.smith@example.com",
	}))

	got := n.Normalize("what did Jane Smith say about taxes recently")
	assert.Equal(t, "from:jane.smith@example.com taxes newer_than:1m", got)
	assert.True(t, HasAddressFilter(got))

	got = n.Normalize("What did jane smth say about the Q3 budget?")
	assert.Equal(t, "from:jane.smith@example.com the q3 budget", got)
}

func TestNormalizeWhatDidUnknownPerson(t *testing.T) {
	n := New(nil)
	assert.Equal(t, `from:"bob jones" pricing`, n.Normalize("what did Bob Jones say about pricing"))
	assert.Equal(t, "from:bob@acme.com pricing", n.Normalize("what did Bob@Acme.com say about pricing"))
}

func TestNormalizeRules(t *testing.T) {
	n := New(nil)
	tests := []struct {
		in, want string
	}{
		{"from bob@x.com", "from:bob@x.com"},
		{"Show me emails from alice is unread", "from:alice is:unread"},
		{"emails to carol", "emails to:carol"},
		{"invoices recently", "invoices newer_than:1m"},
		{"find emails with attachments has attachment", "with attachments has:attachment"},
		{"contracts in inbox after 2024/01/31", "contracts in:inbox after:2024/01/31"},
		{"Subject: Quarterly Review to discuss", `subject:"quarterly review to discuss"`},
		{"from dave subject: Offer", `from:dave subject:"offer"`},
		{"is starred", "is:starred"},
		{"  Renewal   DEAL ", "renewal deal"},
		{"from:already", "from:already"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Normalize(tt.in), tt.in)
	}
}

func TestHasAddressFilter(t *testing.T) {
	assert.True(t, HasAddressFilter("to:bob pricing"))
	assert.True(t, HasAddressFilter("pricing from:bob"))
	assert.False(t, HasAddressFilter("pricing from bob"))
	assert.False(t, HasAddressFilter("tofrom:x"))
}

func TestDirectoryResolver(t *testing.T) {
	r := NewDirectoryResolver(map[string]string{
		"Jane Smith": "jane@example.com",
		"John Smith": "john@example.com",
		"":           "nobody@example.com",
	})

	addr, ok := r.Resolve("JANE SMITH")
	assert.True(t, ok)
	assert.Equal(t, "jane@example.com", addr)

	addr, ok = r.Resolve("john smyth")
	assert.True(t, ok)
	assert.Equal(t, "john@example.com", addr)

	_, ok = r.Resolve("Maria Garcia")
	assert.False(t, ok)
}
