package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	Store   *Store
	Mailer  Mailer
	From    string
	EmailOn bool
	Logger  *slog.Logger
}

func New(store *Store, mailer Mailer, from string, emailOn bool, logger *slog.Logger) *Service {
	return &Service{Store: store, Mailer: mailer, From: from, EmailOn: emailOn, Logger: logger}
}

// Notify records an in-app notification and, when email delivery is on,
// mails a copy. Email failures are logged and swallowed: a dead SMTP server
// must not fail the business operation that triggered the notice.
func (s *Service) Notify(ctx context.Context, userID, ntype, title, body string) error {
	if err := s.Store.Create(ctx, userID, ntype, title, body); err != nil {
		return err
	}
	if !s.EmailOn || s.Mailer == nil {
		return nil
	}

	email, err := s.Store.UserEmail(ctx, userID)
	if err != nil {
		s.Logger.Warn("notification email lookup failed", "error", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.From, email, title, body); err != nil {
		s.Logger.Warn("notification email send failed", "error", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.Store.List(ctx, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.Store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.Store.MarkRead(ctx, userID, notificationID)
}
