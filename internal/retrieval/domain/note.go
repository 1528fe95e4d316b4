package domain

import "time"

// Note is free text attached to a contact in the CRM
type Note struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	OwnerID   string    `json:"owner_id" gorm:"not null;uniqueIndex:idx_note_owner_external;index"`
	NoteID    string    `json:"note_id" gorm:"not null;uniqueIndex:idx_note_owner_external"`
	ContactID string    `json:"contact_id"` // may reference a contact that was never imported
	Content   string    `json:"content" gorm:"type:text"`
	Embedding string    `json:"-" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Note) TableName() string { return "note_records" }

func (n *Note) RecordID() string         { return n.ID }
func (n *Note) Owner() string            { return n.OwnerID }
func (n *Note) Kind() EntityType         { return EntityNote }
func (n *Note) ExternalKey() string      { return n.NoteID }
func (n *Note) EncodedEmbedding() string { return n.Embedding }
func (n *Note) SetEmbedding(s string)    { n.Embedding = s }
func (n *Note) Timestamp() time.Time     { return n.CreatedAt }

func (n *Note) Clone() EmbeddedRecord {
	copied := *n
	return &copied
}

func (n *Note) TextFields() []TextField {
	return []TextField{{Name: "content", Value: n.Content}}
}

func (n *Note) ToResult(relevance float64, display string) QueryResult {
	return QueryResult{
		Type:            EntityNote,
		ID:              n.ID,
		DisplayContent:  display,
		Relevance:       relevance,
		SourceTimestamp: n.Timestamp(),
		Note:            &NoteHit{ContactID: n.ContactID},
	}
}
