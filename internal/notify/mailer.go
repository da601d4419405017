package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"penthrey/api/internal/config"
)

// Mailer delivers notifications over SMTP.
type Mailer struct {
	client      *gomail.Client
	from        string
	frontendURL string
	log         zerolog.Logger
}

func NewMailer(cfg config.MailConfig, frontendURL string, log zerolog.Logger) (*Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("init mail client: %w", err)
	}

	return &Mailer{
		client:      client,
		from:        cfg.From,
		frontendURL: frontendURL,
		log:         log,
	}, nil
}

func (m *Mailer) Notify(ctx context.Context, msg Message) error {
	subject, body := m.render(msg)

	mail := gomail.NewMsg()
	if err := mail.From(m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := mail.To(msg.Recipient); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	mail.Subject(subject)
	mail.SetBodyString(gomail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, mail); err != nil {
		return fmt.Errorf("send %s mail: %w", msg.Kind, err)
	}

	m.log.Info().
		Str("kind", string(msg.Kind)).
		Str("recipient", msg.Recipient).
		Msg("notification sent")
	return nil
}

func (m *Mailer) render(msg Message) (string, string) {
	d := msg.Data
	switch msg.Kind {
	case KindVerification:
		link := fmt.Sprintf("%s/verify-email?token=%s", m.frontendURL, d["token"])
		return "Verify Your Email - Penthrey",
			fmt.Sprintf("Hi %s,\n\nPlease verify your email address by visiting:\n%s\n\nThe link expires in 24 hours.\n", d["name"], link)
	case KindPasswordReset:
		link := fmt.Sprintf("%s/reset-password/%s", m.frontendURL, d["token"])
		return "Reset Your Password - Penthrey",
			fmt.Sprintf("Hi %s,\n\nA password reset was requested for your account. Reset it here:\n%s\n\nThe link expires in 2 hours. If you did not request this, ignore this message.\n", d["name"], link)
	case KindLoginAlert:
		return "New Login Detected - Penthrey",
			fmt.Sprintf("Hi %s,\n\nA login from a new device was detected.\n\nTime: %s\nIP address: %s\nLocation: %s\nDevice: %s\nBrowser: %s\n\nIf this was not you, change your password immediately at %s/dashboard.\n",
				d["name"], d["time"], d["ip"], d["location"], d["device"], d["browser"], m.frontendURL)
	case KindWelcome:
		return "Welcome to Penthrey - Your Account is Ready!",
			fmt.Sprintf("Hi %s,\n\nYour email has been verified and your account is ready.\nHead to your dashboard: %s/dashboard\n", d["name"], m.frontendURL)
	case KindInvite:
		link := fmt.Sprintf("%s/signup?token=%s", m.frontendURL, d["token"])
		return "You have been invited to join Penthrey",
			fmt.Sprintf("Hello,\n\nYou have been invited to join %s as %s.\nAccept the invitation here:\n%s\n\nThe invitation expires in 7 days.\n", d["organization"], d["role"], link)
	}
	return "Penthrey Notification", "You have a new notification."
}
