package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"crm-assistant-backend/internal/retrieval/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	maxListResults   = 50
	fetchConcurrency = 10
)

// TokenUpdateFunc is called with the new token after a refresh
type TokenUpdateFunc func(token *oauth2.Token) error

// TokenStore persists refreshed tokens for an owner
type TokenStore interface {
	UpdateTokens(ownerID, accessToken, refreshToken string) error
}

type Service struct {
	clientID     string
	clientSecret string
	tokens       TokenStore
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to update token: %v", err)
		}
	}
	return t, nil
}

// NewService creates the Gmail search provider. tokens may be nil, in which
// case refreshed tokens are not persisted.
func NewService(clientID, clientSecret string, tokens TokenStore) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokens:       tokens,
	}
}

// GetGmailService creates Gmail service with user's access token
func (s *Service) GetGmailService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

// Search runs a Gmail query for the account and returns at most limit
// messages, newest first.
func (s *Service) Search(ctx context.Context, account *domain.MailAccount, query string, limit int) ([]*domain.Email, error) {
	if limit <= 0 {
		return nil, nil
	}

	srv, err := s.GetGmailService(ctx, account.AccessToken, account.RefreshToken, s.tokenCallback(account.OwnerID))
	if err != nil {
		return nil, err
	}

	user := "me"
	listQuery := srv.Users.Messages.List(user).MaxResults(int64(min(limit*3, maxListResults))).Context(ctx)
	if query != "" {
		listQuery = listQuery.Q(query)
	}

	messagesResp, err := listQuery.Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	ids := make([]string, 0, limit)
	for _, m := range messagesResp.Messages {
		if len(ids) == limit {
			break
		}
		ids = append(ids, m.Id)
	}

	type emailResult struct {
		email *domain.Email
		err   error
	}

	emailChan := make(chan emailResult, len(ids))
	semaphore := make(chan struct{}, fetchConcurrency)

	for _, id := range ids {
		go func(msgID string) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			fullMsg, err := srv.Users.Messages.Get(user, msgID).Format("full").Context(ctx).Do()
			if err != nil {
				emailChan <- emailResult{nil, err}
				return
			}
			emailChan <- emailResult{convertGmailMessageToEmail(account.OwnerID, fullMsg), nil}
		}(id)
	}

	emails := make([]*domain.Email, 0, len(ids))
	for range ids {
		result := <-emailChan
		if result.err != nil {
			log.Printf("[Gmail] Skipping message: %v", result.err)
			continue
		}
		emails = append(emails, result.email)
	}

	// Parallel fetching returns messages in random order
	sort.Slice(emails, func(i, j int) bool {
		return emails[i].Date.After(emails[j].Date)
	})
	return emails, nil
}

func (s *Service) tokenCallback(ownerID string) TokenUpdateFunc {
	if s.tokens == nil {
		return nil
	}
	return func(t *oauth2.Token) error {
		return s.tokens.UpdateTokens(ownerID, t.AccessToken, t.RefreshToken)
	}
}

// Helper functions

var htmlTag = regexp.MustCompile(`<[^>]*>`)

func convertGmailMessageToEmail(ownerID string, msg *gmail.Message) *domain.Email {
	email := &domain.Email{
		ID:        msg.Id,
		OwnerID:   ownerID,
		MessageID: msg.Id,
		ThreadID:  msg.ThreadId,
		Date:      time.UnixMilli(msg.InternalDate),
		Labels:    domain.NewLabels(msg.LabelIds...),
	}
	if msg.Payload == nil {
		email.Body = msg.Snippet
		return email
	}

	email.Subject = getHeader(msg.Payload.Headers, "Subject")
	email.Sender = getHeader(msg.Payload.Headers, "From")
	email.Recipient = getHeader(msg.Payload.Headers, "To")

	body, isHTML := getEmailBody(msg.Payload)
	if isHTML {
		body = stripHTML(body)
	}
	if strings.TrimSpace(body) == "" {
		body = msg.Snippet
	}
	email.Body = body
	return email
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// getEmailBody prefers text/plain and reports whether it fell back to HTML.
func getEmailBody(payload *gmail.MessagePart) (string, bool) {
	if len(payload.Parts) == 0 {
		if data, ok := decodeBody(payload.Body); ok {
			return data, payload.MimeType == "text/html"
		}
		return "", false
	}

	var htmlBody, plainBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			switch part.MimeType {
			case "text/plain":
				if data, ok := decodeBody(part.Body); ok && plainBody == "" {
					plainBody = data
				}
			case "text/html":
				if data, ok := decodeBody(part.Body); ok && htmlBody == "" {
					htmlBody = data
				}
			}
			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}
	findBody(payload.Parts)

	if plainBody != "" {
		return plainBody, false
	}
	return htmlBody, htmlBody != ""
}

func decodeBody(body *gmail.MessagePartBody) (string, bool) {
	if body == nil || body.Data == "" {
		return "", false
	}
	data, err := base64.URLEncoding.DecodeString(body.Data)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(body.Data)
		if err != nil {
			return "", false
		}
	}
	return string(data), true
}

func stripHTML(s string) string {
	s = htmlTag.ReplaceAllString(s, " ")
	s = strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
	).Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
