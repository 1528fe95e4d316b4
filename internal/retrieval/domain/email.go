package domain

import "time"

// Email is an imported message
type Email struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	OwnerID   string    `json:"owner_id" gorm:"not null;uniqueIndex:idx_email_owner_message;index"`
	MessageID string    `json:"message_id" gorm:"not null;uniqueIndex:idx_email_owner_message"`
	ThreadID  string    `json:"thread_id"`
	Subject   string    `json:"subject"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Body      string    `json:"body" gorm:"type:text"`
	Date      time.Time `json:"date" gorm:"index"`
	Labels    Labels    `json:"labels" gorm:"serializer:json;type:text"`
	Embedding string    `json:"-" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Email) TableName() string { return "email_records" }

func (e *Email) RecordID() string         { return e.ID }
func (e *Email) Owner() string            { return e.OwnerID }
func (e *Email) Kind() EntityType         { return EntityEmail }
func (e *Email) ExternalKey() string      { return e.MessageID }
func (e *Email) EncodedEmbedding() string { return e.Embedding }
func (e *Email) SetEmbedding(s string)    { e.Embedding = s }

func (e *Email) Clone() EmbeddedRecord {
	copied := *e
	copied.Labels = append(Labels(nil), e.Labels...)
	return &copied
}

func (e *Email) TextFields() []TextField {
	return []TextField{
		{Name: "subject", Value: e.Subject},
		{Name: "sender", Value: e.Sender},
		{Name: "recipient", Value: e.Recipient},
		{Name: "body", Value: e.Body},
	}
}

// Timestamp is the message date, or the import time when the date is unknown.
func (e *Email) Timestamp() time.Time {
	if e.Date.IsZero() {
		return e.CreatedAt
	}
	return e.Date
}

func (e *Email) ToResult(relevance float64, display string) QueryResult {
	return QueryResult{
		Type:            EntityEmail,
		ID:              e.ID,
		DisplayContent:  display,
		Relevance:       relevance,
		SourceTimestamp: e.Timestamp(),
		Email: &EmailHit{
			Subject:  e.Subject,
			Sender:   e.Sender,
			ThreadID: e.ThreadID,
		},
	}
}
