package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/neutralface-io/nfai-web/pkg/logger"
	"gopkg.in/gomail.v2"
)

// EmailConfig holds SMTP and app settings, passed in from app config
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	AppURL       string
	FromEmail    string
}

// Enabled reports whether enough SMTP settings exist to send mail.
func (c EmailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.SMTPPort > 0 && c.FromEmail != ""
}

// ShareNotice describes a collection that was shared with a wallet.
type ShareNotice struct {
	To             string
	RecipientName  string
	OwnerName      string
	CollectionName string
	CollectionID   string
}

// Mailer sends marketplace notifications over SMTP.
type Mailer struct {
	Config EmailConfig
	Logger *logger.Logger
}

// NewMailer returns a Mailer bound to cfg.
func NewMailer(cfg EmailConfig, log *logger.Logger) *Mailer {
	return &Mailer{Config: cfg, Logger: log}
}

// SendCollectionShared tells the recipient a collection is now shared with them.
func (m *Mailer) SendCollectionShared(ctx context.Context, n ShareNotice) error {
	link := fmt.Sprintf("%s/collections/%s", m.Config.AppURL, n.CollectionID)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>A collection was shared with you</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; color: #333;">
    <div style="max-width: 600px; margin: 40px auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
        <h1 style="color: #1a73e8;">%s shared a collection with you</h1>
        <p>Hello %s,</p>
        <p>You now have access to the collection <strong>%s</strong>.</p>
        <p><a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #1a73e8; color: #ffffff; text-decoration: none; border-radius: 5px;">Open collection</a></p>
        <p style="font-size: 12px; color: #7f8c8d;">© %d nfai</p>
    </div>
</body>
</html>
`, n.OwnerName, n.RecipientName, n.CollectionName, link, time.Now().Year())

	textBody := fmt.Sprintf(`
Hello %s,

%s shared the collection "%s" with you.

Open it here: %s
`, n.RecipientName, n.OwnerName, n.CollectionName, link)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.Config.FromEmail)
	msg.SetHeader("To", n.To)
	msg.SetHeader("Subject", fmt.Sprintf("%s shared \"%s\" with you", n.OwnerName, n.CollectionName))
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	dialer := gomail.NewDialer(m.Config.SMTPHost, m.Config.SMTPPort, m.Config.SMTPUsername, m.Config.SMTPPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		m.Logger.Warn(ctx).WithFields("email", n.To, "collection_id", n.CollectionID).Logs(fmt.Sprintf("Failed to send share email: %v", err))
		return WrapError(err, ErrInternalServerError.Code, "Failed to send share email")
	}

	m.Logger.Info(ctx).WithFields("email", n.To, "collection_id", n.CollectionID).Logs("Share email sent")
	return nil
}
