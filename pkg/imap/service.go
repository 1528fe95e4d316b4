package imap

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"sort"
	"strings"
	"time"

	"crm-assistant-backend/internal/retrieval/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

const defaultDialTimeout = 15 * time.Second

// Service searches a mailbox over IMAP
type Service struct {
	dialTimeout time.Duration
}

func NewService() *Service {
	return &Service{dialTimeout: defaultDialTimeout}
}

// Search runs the query against the account's INBOX and returns at most
// limit messages, newest first.
func (s *Service) Search(ctx context.Context, account *domain.MailAccount, query string, limit int) ([]*domain.Email, error) {
	if limit <= 0 {
		return nil, nil
	}

	c, err := s.connect(account)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	// go-imap has no context support; drop the connection on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Terminate()
		case <-done:
		}
	}()

	if _, err := c.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	seqNums, err := c.Search(BuildCriteria(query, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("imap search failed: %w", err)
	}
	if len(seqNums) == 0 {
		return []*domain.Email{}, nil
	}

	// Higher sequence numbers are newer
	sort.Slice(seqNums, func(i, j int) bool { return seqNums[i] > seqNums[j] })
	if len(seqNums) > limit {
		seqNums = seqNums[:limit]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNums...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(seqNums))
	fetchErr := make(chan error, 1)
	go func() {
		fetchErr <- c.Fetch(seqset, items, messages)
	}()

	emails := make([]*domain.Email, 0, len(seqNums))
	for msg := range messages {
		emails = append(emails, convertMessage(account.OwnerID, msg, section))
	}
	if err := <-fetchErr; err != nil {
		return nil, fmt.Errorf("imap fetch failed: %w", err)
	}

	sort.Slice(emails, func(i, j int) bool {
		return emails[i].Date.After(emails[j].Date)
	})
	return emails, nil
}

func (s *Service) connect(account *domain.MailAccount) (*client.Client, error) {
	port := account.ImapPort
	if port == 0 {
		port = 993
	}
	addr := fmt.Sprintf("%s:%d", account.ImapServer, port)

	c, err := client.DialWithDialerTLS(&net.Dialer{Timeout: s.dialTimeout}, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	username := account.ImapUsername
	if username == "" {
		username = account.Address
	}
	if err := c.Login(username, account.ImapPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("imap login failed: %w", err)
	}
	return c, nil
}

func convertMessage(ownerID string, msg *imap.Message, section *imap.BodySectionName) *domain.Email {
	email := &domain.Email{
		OwnerID:   ownerID,
		MessageID: fmt.Sprintf("imap-%d", msg.Uid),
		Labels:    domain.NewLabels(msg.Flags...),
	}
	email.ID = email.MessageID

	if env := msg.Envelope; env != nil {
		email.Subject = env.Subject
		email.Date = env.Date
		email.Sender = formatAddresses(env.From)
		email.Recipient = formatAddresses(env.To)
		if env.MessageId != "" {
			email.MessageID = env.MessageId
		}
	}

	if r := msg.GetBody(section); r != nil {
		body, err := readBody(r)
		if err != nil {
			log.Printf("[IMAP] Failed to parse body of %s: %v", email.MessageID, err)
		}
		email.Body = body
	}
	return email
}

func formatAddresses(addrs []*imap.Address) string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		if a.PersonalName != "" {
			out = append(out, fmt.Sprintf("%s <%s>", a.PersonalName, a.Address()))
		} else {
			out = append(out, a.Address())
		}
	}
	return strings.Join(out, ", ")
}

// readBody returns the first text/plain part of a message.
func readBody(r io.Reader) (string, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", err
	}

	var fallback string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fallback, err
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, err := io.ReadAll(p.Body)
		if err != nil {
			return fallback, err
		}
		switch ct {
		case "text/plain":
			return string(b), nil
		case "text/html":
			if fallback == "" {
				fallback = stripTags(string(b))
			}
		}
	}
	return fallback, nil
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
