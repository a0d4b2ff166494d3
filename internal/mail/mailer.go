// Package mail sends transactional email through an SMTP relay.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/lingoleap/api/internal/events"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. It is used
// when no SMTP relay is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("mail not sent, smtp disabled", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`Hi {{.Username}},

Welcome to LingoLeap! Your account is ready.

Start your first lesson at {{.URL}} and come back every day to build your streak.

See you soon,
The LingoLeap team
`))

var achievementTmpl = template.Must(template.New("achievement").Parse(`Congratulations!

You unlocked "{{.Title}}" (tier {{.Tier}}). Keep going at {{.URL}}.
`))

// Notifier turns domain events into email.
type Notifier struct {
	sender      Sender
	frontendURL string
	log         *zap.Logger
	lookupEmail func(ctx context.Context, userID int64) (string, error)
}

func NewNotifier(sender Sender, frontendURL string, lookupEmail func(context.Context, int64) (string, error), log *zap.Logger) *Notifier {
	return &Notifier{sender: sender, frontendURL: frontendURL, lookupEmail: lookupEmail, log: log}
}

// Register subscribes the notifier to bus.
func (n *Notifier) Register(bus *events.Bus) {
	bus.Subscribe(events.UserRegistered, n.onRegistered)
	bus.Subscribe(events.AchievementUnlocked, n.onAchievement)
}

func (n *Notifier) onRegistered(ctx context.Context, payload any) {
	e, ok := payload.(events.UserRegisteredEvent)
	if !ok {
		return
	}

	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, map[string]string{"Username": e.Username, "URL": n.frontendURL}); err != nil {
		n.log.Error("render welcome mail", zap.Error(err))
		return
	}

	msg := Message{To: e.Email, Subject: "Welcome to LingoLeap", Body: body.String()}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.log.Warn("welcome mail failed", zap.Int64("user_id", e.UserID), zap.Error(err))
	}
}

func (n *Notifier) onAchievement(ctx context.Context, payload any) {
	e, ok := payload.(events.AchievementUnlockedEvent)
	if !ok || n.lookupEmail == nil {
		return
	}

	email, err := n.lookupEmail(ctx, e.UserID)
	if err != nil {
		n.log.Warn("achievement mail: lookup user", zap.Int64("user_id", e.UserID), zap.Error(err))
		return
	}

	var body bytes.Buffer
	data := map[string]any{"Title": e.Title, "Tier": e.Tier, "URL": n.frontendURL}
	if err := achievementTmpl.Execute(&body, data); err != nil {
		n.log.Error("render achievement mail", zap.Error(err))
		return
	}

	msg := Message{To: email, Subject: "Achievement unlocked: " + e.Title, Body: body.String()}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.log.Warn("achievement mail failed", zap.Int64("user_id", e.UserID), zap.Error(err))
	}
}
