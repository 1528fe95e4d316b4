package delivery

import (
	"errors"
	"log"
	"net/http"

	"crm-assistant-backend/internal/retrieval/domain"
	"crm-assistant-backend/internal/retrieval/dto"
	"crm-assistant-backend/internal/retrieval/repository"
	"crm-assistant-backend/internal/retrieval/usecase"
	"crm-assistant-backend/pkg/vector"

	"github.com/gin-gonic/gin"
)

// RetrievalHandler handles search, context and import requests
type RetrievalHandler struct {
	retrieval    usecase.RetrievalUsecase
	importer     usecase.ImportUsecase
	mail         usecase.MailSearchUsecase
	providerName string
	dimension    int
}

// NewRetrievalHandler creates a new RetrievalHandler. mail may be nil when
// live mailbox search is not configured.
func NewRetrievalHandler(
	retrieval usecase.RetrievalUsecase,
	importer usecase.ImportUsecase,
	mail usecase.MailSearchUsecase,
	providerName string,
	dimension int,
) *RetrievalHandler {
	return &RetrievalHandler{
		retrieval:    retrieval,
		importer:     importer,
		mail:         mail,
		providerName: providerName,
		dimension:    dimension,
	}
}

// GetContext returns grounding context across all record types
// POST /api/search/context
func (h *RetrievalHandler) GetContext(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rc := h.retrieval.GetContext(c.Request.Context(), userID, req.Query, req.EffectiveLimit())
	c.JSON(http.StatusOK, dto.ContextResponse{
		RetrievalContext: rc,
		PromptContext:    usecase.FormatForPrompt(rc),
	})
}

// Search ranks one record type against the query
// POST /api/search/:type
func (h *RetrievalHandler) Search(c *gin.Context) {
	userID := c.GetString("userID")

	kind, err := domain.ParseEntityType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.retrieval.Search(c.Request.Context(), userID, kind, req.Query, req.EffectiveLimit())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SearchResponse{Type: kind, Query: req.Query, Results: results})
}

// SearchMail searches the connected mailbox
// POST /api/search/mail
func (h *RetrievalHandler) SearchMail(c *gin.Context) {
	userID := c.GetString("userID")
	if h.mail == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "mail search is not configured"})
		return
	}

	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.mail.SearchMail(c.Request.Context(), userID, req.Query, req.EffectiveLimit())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Status reports how many records are embedded
// GET /api/rag/status
func (h *RetrievalHandler) Status(c *gin.Context) {
	userID := c.GetString("userID")

	counts, err := h.retrieval.Status(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{
		Provider:  h.providerName,
		Dimension: h.dimension,
		Counts:    counts,
	})
}

// Import stores records and queues them for embedding
// POST /api/import/:type
func (h *RetrievalHandler) Import(c *gin.Context) {
	userID := c.GetString("userID")

	kind, err := domain.ParseEntityType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var result repository.ImportResult
	ctx := c.Request.Context()

	switch kind {
	case domain.EntityEmail:
		var req dto.ImportEmailsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		emails := make([]*domain.Email, 0, len(req.Records))
		for _, in := range req.Records {
			emails = append(emails, &domain.Email{
				MessageID: in.MessageID,
				ThreadID:  in.ThreadID,
				Subject:   in.Subject,
				Sender:    in.Sender,
				Recipient: in.Recipient,
				Body:      in.Body,
				Date:      in.Date,
				Labels:    domain.NewLabels(in.Labels...),
				Embedding: h.encodeEmbedding(in.Embedding),
			})
		}
		result, err = h.importer.ImportEmails(ctx, userID, emails)

	case domain.EntityContact:
		var req dto.ImportContactsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		contacts := make([]*domain.Contact, 0, len(req.Records))
		for _, in := range req.Records {
			contacts = append(contacts, &domain.Contact{
				ContactID: in.ContactID,
				FirstName: in.FirstName,
				LastName:  in.LastName,
				Email:     in.Email,
				Company:   in.Company,
				Phone:     in.Phone,
				CreatedAt: in.CreatedAt,
				Embedding: h.encodeEmbedding(in.Embedding),
			})
		}
		result, err = h.importer.ImportContacts(ctx, userID, contacts)

	case domain.EntityNote:
		var req dto.ImportNotesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		notes := make([]*domain.Note, 0, len(req.Records))
		for _, in := range req.Records {
			notes = append(notes, &domain.Note{
				NoteID:    in.NoteID,
				ContactID: in.ContactID,
				Content:   in.Content,
				CreatedAt: in.CreatedAt,
				Embedding: h.encodeEmbedding(in.Embedding),
			})
		}
		result, err = h.importer.ImportNotes(ctx, userID, notes)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": result})
		return
	}

	c.JSON(http.StatusOK, dto.ImportResponse{Type: kind, Result: result})
}

// DeleteRecords removes every imported record of the user
// DELETE /api/records
func (h *RetrievalHandler) DeleteRecords(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.importer.DeleteAll(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Records deleted successfully"})
}

// ConnectMailAccount stores the credentials used by mail search
// PUT /api/mail/account
func (h *RetrievalHandler) ConnectMailAccount(c *gin.Context) {
	userID := c.GetString("userID")
	if h.mail == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "mail search is not configured"})
		return
	}

	var req dto.ConnectMailAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Provider == domain.MailProviderIMAP && (req.ImapServer == "" || req.ImapPassword == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imap_server and imap_password are required for IMAP"})
		return
	}
	if req.Provider == domain.MailProviderGmail && req.AccessToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access_token is required for Gmail"})
		return
	}

	account := &domain.MailAccount{
		OwnerID:      userID,
		Provider:     req.Provider,
		Address:      req.Address,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ImapServer:   req.ImapServer,
		ImapPort:     req.ImapPort,
		ImapUsername: req.ImapUsername,
		ImapPassword: req.ImapPassword,
	}
	if err := h.mail.ConnectAccount(c.Request.Context(), account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, account)
}

// encodeEmbedding keeps a supplied embedding only when it has the
// configured dimension; otherwise the record is embedded by the backfill.
func (h *RetrievalHandler) encodeEmbedding(v []float64) string {
	if len(v) == 0 {
		return ""
	}
	if h.dimension > 0 && len(v) != h.dimension {
		log.Printf("[Import] dropping embedding with %d dimensions, want %d", len(v), h.dimension)
		return ""
	}
	encoded, err := vector.Encode(v)
	if err != nil {
		return ""
	}
	return encoded
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownEntityType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrMailAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
