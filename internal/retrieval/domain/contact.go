package domain

import (
	"strings"
	"time"
)

// Contact is an imported CRM contact
type Contact struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	OwnerID   string    `json:"owner_id" gorm:"not null;uniqueIndex:idx_contact_owner_external;index"`
	ContactID string    `json:"contact_id" gorm:"not null;uniqueIndex:idx_contact_owner_external"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Phone     string    `json:"phone"`
	Embedding string    `json:"-" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Contact) TableName() string { return "contact_records" }

func (c *Contact) RecordID() string         { return c.ID }
func (c *Contact) Owner() string            { return c.OwnerID }
func (c *Contact) Kind() EntityType         { return EntityContact }
func (c *Contact) ExternalKey() string      { return c.ContactID }
func (c *Contact) EncodedEmbedding() string { return c.Embedding }
func (c *Contact) SetEmbedding(s string)    { c.Embedding = s }
func (c *Contact) Timestamp() time.Time     { return c.CreatedAt }

func (c *Contact) Clone() EmbeddedRecord {
	copied := *c
	return &copied
}

func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c *Contact) TextFields() []TextField {
	return []TextField{
		{Name: "firstName", Value: c.FirstName},
		{Name: "lastName", Value: c.LastName},
		{Name: "email", Value: c.Email},
		{Name: "company", Value: c.Company},
	}
}

func (c *Contact) ToResult(relevance float64, display string) QueryResult {
	return QueryResult{
		Type:            EntityContact,
		ID:              c.ID,
		DisplayContent:  display,
		Relevance:       relevance,
		SourceTimestamp: c.Timestamp(),
		Contact: &ContactHit{
			Name:    c.FullName(),
			Email:   c.Email,
			Company: c.Company,
		},
	}
}
