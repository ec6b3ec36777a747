package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/jdfmarine/leadengine/internal/chat"
	"github.com/jdfmarine/leadengine/internal/observability/metrics"
	"github.com/jdfmarine/leadengine/internal/store"
	"github.com/jdfmarine/leadengine/pkg/logging"
)

// transcriptTail bounds how many trailing turns go into the alert email.
const transcriptTail = 6

// Ledger is the dedup surface the dispatcher needs from the store.
type Ledger interface {
	HasNotification(ctx context.Context, conversationID string) (bool, error)
	RecordNotification(ctx context.Context, rec store.NotificationRecord) error
}

// Dispatcher sends at most one lead alert per conversation. It implements
// chat.Notifier.
type Dispatcher struct {
	ledger  Ledger
	sender  EmailSender
	to      string
	prefix  string
	logger  *logging.Logger
	metrics *metrics.ChatMetrics
}

// NewDispatcher wires the alert pipeline. A nil sender downgrades to the
// logging stub so qualification still gets recorded.
func NewDispatcher(ledger Ledger, sender EmailSender, to, subjectPrefix string, logger *logging.Logger, m *metrics.ChatMetrics) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewStubEmailSender(logger)
	}
	if subjectPrefix == "" {
		subjectPrefix = "[Lead]"
	}
	return &Dispatcher{
		ledger:  ledger,
		sender:  sender,
		to:      to,
		prefix:  subjectPrefix,
		logger:  logger,
		metrics: m,
	}
}

// Qualifies reports whether the conversation warrants a human alert: a
// follow-up flag plus either a hot tier or a warm tier with a way to reach
// the lead.
func Qualifies(state *chat.ConversationState) bool {
	if state == nil || !state.Score.RequiresFollowUp {
		return false
	}
	switch state.Score.Tier {
	case chat.LeadTierHot:
		return true
	case chat.LeadTierWarm:
		return state.Contact.HasReachableChannel()
	default:
		return false
	}
}

// MaybeNotify sends the alert if the conversation qualifies and none was
// sent before. The outcome (sent or failed) is recorded either way so later
// turns never resend; a concurrent insert losing the unique-constraint race
// is treated as already handled.
func (d *Dispatcher) MaybeNotify(ctx context.Context, state *chat.ConversationState) error {
	if !Qualifies(state) {
		return nil
	}
	conversationID := state.SessionID

	exists, err := d.ledger.HasNotification(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("notify: dedup check: %w", err)
	}
	if exists {
		d.logger.Debug("lead alert already recorded", "conversation_id", conversationID)
		return nil
	}

	msg := d.buildMessage(state)
	sendErr := d.sender.Send(ctx, msg)

	rec := store.NotificationRecord{
		ConversationID: conversationID,
		Type:           store.NotificationTypeLeadAlert,
		SentTo:         d.to,
		Status:         store.NotificationStatusSent,
	}
	if sendErr != nil {
		rec.Status = store.NotificationStatusFailed
		rec.Error = sendErr.Error()
	}
	d.metrics.ObserveNotification(rec.Status)

	if err := d.ledger.RecordNotification(ctx, rec); err != nil {
		if errors.Is(err, store.ErrNotificationExists) {
			d.logger.Debug("lead alert recorded by concurrent request", "conversation_id", conversationID)
			return nil
		}
		return fmt.Errorf("notify: record notification: %w", err)
	}

	if sendErr != nil {
		return fmt.Errorf("notify: send lead alert: %w", sendErr)
	}
	d.logger.Info("lead alert dispatched", "conversation_id", conversationID, "tier", state.Score.Tier)
	return nil
}

func (d *Dispatcher) buildMessage(state *chat.ConversationState) EmailMessage {
	subject := fmt.Sprintf("%s %s lead", d.prefix, strings.ToUpper(string(state.Score.Tier)))
	if state.Contact.Name != "" {
		subject += " from " + state.Contact.Name
	}

	tail := state.Messages
	if len(tail) > transcriptTail {
		tail = tail[len(tail)-transcriptTail:]
	}

	var plain, htmlBody strings.Builder
	fmt.Fprintf(&plain, "Lead tier: %s\nNotes: %s\n\n", state.Score.Tier, state.Score.Notes)
	fmt.Fprintf(&plain, "Name: %s\nEmail: %s\nPhone: %s\n\nRecent conversation:\n", orDash(state.Contact.Name), orDash(state.Contact.Email), orDash(state.Contact.Phone))

	fmt.Fprintf(&htmlBody, "<h2>%s lead</h2><p>%s</p>", html.EscapeString(strings.ToUpper(string(state.Score.Tier))), html.EscapeString(state.Score.Notes))
	fmt.Fprintf(&htmlBody, "<ul><li>Name: %s</li><li>Email: %s</li><li>Phone: %s</li></ul><h3>Recent conversation</h3><ul>",
		html.EscapeString(orDash(state.Contact.Name)), html.EscapeString(orDash(state.Contact.Email)), html.EscapeString(orDash(state.Contact.Phone)))

	for _, msg := range tail {
		fmt.Fprintf(&plain, "[%s] %s\n", msg.Role, msg.Content)
		fmt.Fprintf(&htmlBody, "<li><b>%s:</b> %s</li>", html.EscapeString(msg.Role), html.EscapeString(msg.Content))
	}
	htmlBody.WriteString("</ul>")

	return EmailMessage{
		To:      d.to,
		Subject: subject,
		Body:    plain.String(),
		HTML:    htmlBody.String(),
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
