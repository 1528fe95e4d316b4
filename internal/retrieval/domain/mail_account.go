package domain

import "time"

const (
	MailProviderGmail = "gmail"
	MailProviderIMAP  = "imap"
)

// MailAccount holds the credentials used to search an owner's live mailbox
type MailAccount struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	OwnerID      string    `json:"owner_id" gorm:"uniqueIndex;not null"`
	Provider     string    `json:"provider" gorm:"not null"`
	Address      string    `json:"address"`
	AccessToken  string    `json:"-" gorm:"type:text"`
	RefreshToken string    `json:"-" gorm:"type:text"`
	ImapServer   string    `json:"imap_server,omitempty"`
	ImapPort     int       `json:"imap_port,omitempty"`
	ImapUsername string    `json:"imap_username,omitempty"`
	ImapPassword string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
