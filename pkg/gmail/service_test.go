package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/gmail/v1"
)

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestConvertGmailMessageToEmailPrefersPlainText(t *testing.T) {
	msg := &gmail.Message{
		Id:           "18c2",
		ThreadId:     "t1",
		InternalDate: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
		LabelIds:     []string{"INBOX", "UNREAD", "INBOX"},
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Tax documents"},
				{Name: "From", Value: "Jane Smith <jane@example.com>"},
				{Name: "to", Value: "me@example.com"},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>Hello <b>there</b></p>")}},
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("Hello there")}},
			},
		},
	}

	email := convertGmailMessageToEmail("u1", msg)
	assert.Equal(t, "18c2", email.MessageID)
	assert.Equal(t, "u1", email.OwnerID)
	assert.Equal(t, "Tax documents", email.Subject)
	assert.Equal(t, "Jane Smith <jane@example.com>", email.Sender)
	assert.Equal(t, "me@example.com", email.Recipient)
	assert.Equal(t, "Hello there", email.Body)
	assert.True(t, email.Date.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"INBOX", "UNREAD"}, []string(email.Labels))
}

func TestConvertGmailMessageToEmailStripsHTML(t *testing.T) {
	msg := &gmail.Message{
		Id: "m2",
		Payload: &gmail.MessagePart{
			MimeType: "text/html",
			Body:     &gmail.MessagePartBody{Data: encode("<div>Q3&nbsp;numbers &amp; forecast</div>")},
		},
	}

	email := convertGmailMessageToEmail("u1", msg)
	assert.Equal(t, "Q3 numbers & forecast", email.Body)
}

func TestConvertGmailMessageToEmailFallsBackToSnippet(t *testing.T) {
	msg := &gmail.Message{Id: "m3", Snippet: "short preview", Payload: &gmail.MessagePart{MimeType: "text/plain"}}
	assert.Equal(t, "short preview", convertGmailMessageToEmail("u1", msg).Body)
}
