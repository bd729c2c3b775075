package intake

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/mikey/inbox-agent/internal/core"
)

// ParseMessage converts a raw RFC 5322 message into an email ready for
// storage. The Message-ID header becomes the email ID so redelivered
// messages dedupe on insert; messages without one get a generated ID.
// The raw payload is preserved verbatim in RawData.
//
// Parsing is best-effort: a malformed message still yields a storable
// email built from the envelope sender and whatever headers were
// readable, alongside the error.
func ParseMessage(envelopeFrom string, raw []byte, received time.Time) (core.Email, error) {
	email := core.Email{
		ID:        uuid.NewString(),
		Sender:    strings.TrimSpace(envelopeFrom),
		Timestamp: received.UTC(),
		Category:  core.CategoryUncategorized,
		RawData:   string(raw),
	}

	reader, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return email, err
	}

	if id, err := reader.Header.MessageID(); err == nil && id != "" {
		email.ID = id
	}
	if subject, err := reader.Header.Subject(); err == nil {
		email.Subject = subject
	}
	if fromList, err := reader.Header.AddressList("From"); err == nil && len(fromList) > 0 {
		email.Sender = fromList[0].Address
	}
	if date, err := reader.Header.Date(); err == nil && !date.IsZero() {
		email.Timestamp = date.UTC()
	}

	var textParts []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			email.Body = joinParts(textParts)
			return email, err
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		mediaType, _, _ := header.ContentType()
		if mediaType != "" && !strings.HasPrefix(mediaType, "text/plain") {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		textParts = append(textParts, string(body))
	}
	email.Body = joinParts(textParts)

	return email, nil
}

func joinParts(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
