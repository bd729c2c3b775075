package intake

import (
	"context"
	"io"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/core"
)

// Server accepts messages over SMTP and files them into the store as
// uncategorized emails for the next processing run.
type Server struct {
	emails          core.EmailStore
	logger          *zap.Logger
	listenAddr      string
	domain          string
	maxMessageBytes int64
	server          *smtp.Server
}

// NewServer creates an SMTP intake server.
func NewServer(emails core.EmailStore, logger *zap.Logger, listenAddr, domain string, maxMessageBytes int64) *Server {
	return &Server{
		emails:          emails,
		logger:          logger,
		listenAddr:      listenAddr,
		domain:          domain,
		maxMessageBytes: maxMessageBytes,
	}
}

// Start begins listening for SMTP deliveries.
func (s *Server) Start() error {
	s.server = smtp.NewServer(&smtpBackend{intake: s})

	s.server.Addr = s.listenAddr
	s.server.Domain = s.domain
	s.server.ReadTimeout = 30 * time.Second
	s.server.WriteTimeout = 30 * time.Second
	s.server.MaxMessageBytes = s.maxMessageBytes
	s.server.MaxRecipients = 50
	s.server.AllowInsecureAuth = true

	s.logger.Info("SMTP intake starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				s.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP intake server.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	intake *Server
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{intake: b.intake}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	intake *Server
	sender string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt accepts any recipient; intake stores everything delivered to it
func (s *smtpSession) Rcpt(_ string, _ *smtp.RcptOptions) error {
	return nil
}

// Data reads the message, parses it and stores it
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	email, err := ParseMessage(s.sender, raw, time.Now())
	if err != nil {
		// Store what was recovered; RawData keeps the full payload.
		s.intake.logger.Warn("Message parsed with errors",
			zap.Error(err),
			zap.String("email_id", email.ID))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	inserted, err := s.intake.emails.InsertEmail(ctx, &email)
	if err != nil {
		s.intake.logger.Error("Failed to store incoming email",
			zap.Error(err),
			zap.String("email_id", email.ID))
		return err
	}

	if inserted {
		s.intake.logger.Info("Stored incoming email",
			zap.String("email_id", email.ID),
			zap.String("sender", email.Sender),
			zap.String("subject", email.Subject))
	} else {
		s.intake.logger.Info("Skipped duplicate delivery",
			zap.String("email_id", email.ID))
	}

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
