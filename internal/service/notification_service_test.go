package service

import (
	"context"
	"errors"
	"net/smtp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgops-api/internal/models"
)

type mailerStub struct {
	mu       sync.Mutex
	failures int
	sent     []string
	subjects []string
	done     chan struct{}
}

func (m *mailerStub) Send(ctx context.Context, to []string, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, body)
	m.subjects = append(m.subjects, subject)
	close(m.done)
	return nil
}

func TestImportNotifierSendsSummaryForCommittedBatch(t *testing.T) {
	mailer := &mailerStub{failures: 1, done: make(chan struct{})}
	notifier := NewImportNotifier(mailer, ImportNotifierConfig{
		Recipients: []string{"ops@example.org"},
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifier.Start(ctx)
	defer notifier.Stop()

	drafts := []models.EventDraft{validDraft("ARN-1")}
	result := models.ImportResult{Committed: true, Outcomes: []models.RowOutcome{models.RowSuccess{Index: 0, EventID: "evt-1"}}}
	require.NoError(t, notifier.NotifyImported(drafts, result, "admin"))

	select {
	case <-mailer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "1 event(s) imported", mailer.subjects[0])
	assert.Contains(t, mailer.sent[0], "imported by admin")
	assert.Contains(t, mailer.sent[0], "General Assembly ARN-1 (ARN ARN-1)")
	assert.Contains(t, mailer.sent[0], "Venue: Online")
	assert.Contains(t, mailer.sent[0], "1,000.00")
	assert.Contains(t, mailer.sent[0], "Event ID: evt-1")
}

func TestImportNotifierIgnoresRolledBackBatch(t *testing.T) {
	notifier := NewImportNotifier(&mailerStub{done: make(chan struct{})}, ImportNotifierConfig{Recipients: []string{"ops@example.org"}}, nil)

	// The queue is never started, so any enqueue attempt would fail.
	err := notifier.NotifyImported([]models.EventDraft{validDraft("ARN-1")}, models.ImportResult{Committed: false}, "admin")
	assert.NoError(t, err)
}

func TestSMTPMailerBuildsMessage(t *testing.T) {
	mailer := NewSMTPMailer(SMTPMailerConfig{Host: "mail.local", Port: 2525, From: "bot@example.org"})
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	mailer.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.Nil(t, a)
		return nil
	}

	require.NoError(t, mailer.Send(context.Background(), []string{"a@example.org", "b@example.org"}, "Hello", "body text"))
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "bot@example.org", gotFrom)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Hello\r\n")
	assert.Contains(t, string(gotMsg), "To: a@example.org, b@example.org\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\nbody text")
}
