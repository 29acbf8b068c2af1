package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/usecase"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer tells listing owners about new messages over SMTP.
type Mailer struct {
	from   string
	dialer sender
	logger *logger.Logger
}

func New(cfg Config, log *logger.Logger) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.Sender == "" {
		return nil, errors.New("SMTP host, port and sender must be configured")
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return &Mailer{from: cfg.Sender, dialer: d, logger: log.Named("Mailer")}, nil
}

func newMessageEmail(from string, n usecase.NewMessageNotice) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetAddressHeader("To", n.RecipientEmail, n.RecipientName)
	m.SetHeader("Subject", fmt.Sprintf("New message about \"%s\"", n.ListingTitle))
	m.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\n%s wrote about your listing \"%s\":\n\n%s\n\nReply from the Lost & Found app.\n",
		n.RecipientName, n.SenderName, n.ListingTitle, n.Content,
	))
	return m
}

// NotifyNewMessage sends the email and gives up when ctx is done.
func (m *Mailer) NotifyNewMessage(ctx context.Context, notice usecase.NewMessageNotice) error {
	if notice.RecipientEmail == "" {
		return errors.New("notice has no recipient email")
	}
	msg := newMessageEmail(m.from, notice)

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("email to %s abandoned: %w", notice.RecipientEmail, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	}
	m.logger.Info("New message email sent", zap.String("listing_id", notice.ListingID), zap.String("to", notice.RecipientEmail))
	return nil
}
