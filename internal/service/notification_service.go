package service

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/orgops-api/internal/models"
	"github.com/noah-isme/orgops-api/pkg/jobs"
)

const importNotificationJob = "event_import_summary"

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// SMTPMailerConfig configures SMTPMailer.
type SMTPMailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay using PLAIN auth when credentials are set.
type SMTPMailer struct {
	cfg  SMTPMailerConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer constructs an SMTP mailer.
func NewSMTPMailer(cfg SMTPMailerConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

// importSummary is the queued payload of an import notification.
type importSummary struct {
	Actor  string
	Events []models.EventDraft
	IDs    []string
}

// ImportNotifier emails a summary of every committed import to a fixed recipient list.
// Delivery runs on a background queue and never affects the import itself.
type ImportNotifier struct {
	queue      *jobs.Queue
	mailer     Mailer
	recipients []string
	logger     *zap.Logger
}

// ImportNotifierConfig configures the notification worker pool.
type ImportNotifierConfig struct {
	Recipients []string
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NewImportNotifier builds the notifier and its queue. Start must be called before use.
func NewImportNotifier(mailer Mailer, cfg ImportNotifierConfig, logger *zap.Logger) *ImportNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &ImportNotifier{mailer: mailer, recipients: cfg.Recipients, logger: logger}
	n.queue = jobs.NewQueue("import-notifications", n.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return n
}

// Start launches the delivery workers.
func (n *ImportNotifier) Start(ctx context.Context) {
	if n == nil {
		return
	}
	n.queue.Start(ctx)
}

// Stop waits for in-flight deliveries to finish.
func (n *ImportNotifier) Stop() {
	if n == nil {
		return
	}
	n.queue.Stop()
}

// NotifyImported queues a summary of a committed batch. Rolled back batches are ignored,
// as are all calls on a nil notifier.
func (n *ImportNotifier) NotifyImported(drafts []models.EventDraft, result models.ImportResult, actor string) error {
	if n == nil || !result.Committed || len(n.recipients) == 0 {
		return nil
	}
	summary := importSummary{Actor: actor, Events: drafts}
	for _, s := range result.Successes() {
		summary.IDs = append(summary.IDs, s.EventID)
	}
	return n.queue.Enqueue(jobs.Job{Type: importNotificationJob, Payload: summary})
}

func (n *ImportNotifier) handle(ctx context.Context, job jobs.Job) error {
	summary, ok := job.Payload.(importSummary)
	if !ok {
		n.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	subject := fmt.Sprintf("%d event(s) imported", len(summary.Events))
	if err := n.mailer.Send(ctx, n.recipients, subject, importSummaryBody(summary)); err != nil {
		return err
	}
	n.logger.Info("import notification sent", zap.String("job_id", job.ID), zap.Int("recipients", len(n.recipients)))
	return nil
}

func importSummaryBody(s importSummary) string {
	var b strings.Builder
	if s.Actor != "" {
		fmt.Fprintf(&b, "The following events were imported by %s:\n\n", s.Actor)
	} else {
		b.WriteString("The following events were imported:\n\n")
	}
	for i, e := range s.Events {
		fmt.Fprintf(&b, "%d. %s (ARN %s)\n", i+1, e.Title, e.ARN)
		if len(e.TargetDates) > 0 {
			fmt.Fprintf(&b, "   Dates: %s\n", strings.Join(e.TargetDates, ", "))
		}
		venue := e.Venue
		if strings.TrimSpace(venue) == "" {
			venue = models.DefaultVenue
		}
		fmt.Fprintf(&b, "   Venue: %s\n", venue)
		fmt.Fprintf(&b, "   Budget: %s\n", FormatBudget(CoerceBudget(e.Budget)))
		if i < len(s.IDs) {
			fmt.Fprintf(&b, "   Event ID: %s\n", s.IDs[i])
		}
	}
	return b.String()
}
