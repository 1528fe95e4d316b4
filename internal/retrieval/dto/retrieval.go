package dto

import (
	"time"

	"crm-assistant-backend/internal/retrieval/domain"
	"crm-assistant-backend/internal/retrieval/repository"
)

const DefaultLimit = 5

type SearchRequest struct {
	Query string `json:"query"`
	Limit *int   `json:"limit"`
}

// EffectiveLimit returns the requested limit, or DefaultLimit when omitted.
func (r SearchRequest) EffectiveLimit() int {
	if r.Limit == nil {
		return DefaultLimit
	}
	return *r.Limit
}

type SearchResponse struct {
	Type    domain.EntityType    `json:"type"`
	Query   string               `json:"query"`
	Results []domain.QueryResult `json:"results"`
}

type ContextResponse struct {
	*domain.RetrievalContext
	PromptContext string `json:"prompt_context"`
}

type StatusResponse struct {
	Provider  string                                             `json:"provider"`
	Dimension int                                                `json:"dimension"`
	Counts    map[domain.EntityType]repository.RecordCount `json:"counts"`
}

type EmailInput struct {
	MessageID string    `json:"message_id" binding:"required"`
	ThreadID  string    `json:"thread_id"`
	Subject   string    `json:"subject"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Body      string    `json:"body"`
	Date      time.Time `json:"date"`
	Labels    []string  `json:"labels"`
	Embedding []float64 `json:"embedding"`
}

type ContactInput struct {
	ContactID string    `json:"contact_id" binding:"required"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	Embedding []float64 `json:"embedding"`
}

type NoteInput struct {
	NoteID    string    `json:"note_id" binding:"required"`
	ContactID string    `json:"contact_id"`
	Content   string    `json:"content" binding:"required"`
	CreatedAt time.Time `json:"created_at"`
	Embedding []float64 `json:"embedding"`
}

type ImportEmailsRequest struct {
	Records []EmailInput `json:"records" binding:"required,dive"`
}

type ImportContactsRequest struct {
	Records []ContactInput `json:"records" binding:"required,dive"`
}

type ImportNotesRequest struct {
	Records []NoteInput `json:"records" binding:"required,dive"`
}

type ImportResponse struct {
	Type   domain.EntityType       `json:"type"`
	Result repository.ImportResult `json:"result"`
}

type ConnectMailAccountRequest struct {
	Provider     string `json:"provider" binding:"required,oneof=gmail imap"`
	Address      string `json:"address"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ImapServer   string `json:"imap_server"`
	ImapPort     int    `json:"imap_port"`
	ImapUsername string `json:"imap_username"`
	ImapPassword string `json:"imap_password"`
}
