package domain

import "time"

// QueryResult is one ranked hit. Exactly one of Email, Contact or Note is
// set, matching Type.
type QueryResult struct {
	Type            EntityType  `json:"type"`
	ID              string      `json:"id"`
	DisplayContent  string      `json:"display_content"`
	Relevance       float64     `json:"relevance"`
	SourceTimestamp time.Time   `json:"source_timestamp"`
	Email           *EmailHit   `json:"email,omitempty"`
	Contact         *ContactHit `json:"contact,omitempty"`
	Note            *NoteHit    `json:"note,omitempty"`
}

type EmailHit struct {
	Subject  string `json:"subject"`
	Sender   string `json:"sender"`
	ThreadID string `json:"thread_id,omitempty"`
}

type ContactHit struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
}

type NoteHit struct {
	ContactID string `json:"contact_id,omitempty"`
}

// RetrievalContext is the grounding bundle handed to the language model
type RetrievalContext struct {
	ResultsByType map[EntityType][]QueryResult `json:"results_by_type"`
	Results       []QueryResult                `json:"results"`
	Summary       string                       `json:"summary"`
}

func NewRetrievalContext() *RetrievalContext {
	return &RetrievalContext{
		ResultsByType: make(map[EntityType][]QueryResult),
		Results:       []QueryResult{},
	}
}
