package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jdfmarine/leadengine/internal/catalog"
	"github.com/jdfmarine/leadengine/internal/observability/metrics"
	"github.com/jdfmarine/leadengine/pkg/logging"
)

// SamplingConfig holds the fixed model sampling parameters. These are server
// configuration, never request-controlled.
type SamplingConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int32
	TopP        float32
}

// Service runs one chat turn end to end: score pre-check, provider call,
// shaping, persistence, and notification. It is stateless across requests;
// all cross-request state lives in the ConversationStore.
type Service struct {
	llm      LLMClient
	store    ConversationStore
	notifier Notifier
	shaper   *Shaper
	sampling SamplingConfig
	business catalog.Business
	logger   *logging.Logger
	metrics  *metrics.ChatMetrics
}

// NewService wires the chat pipeline. llm may be nil when no provider
// credential is configured; the service then answers every turn with the
// fixed not-configured reply. store, notifier, and metrics may also be nil
// for degraded operation.
func NewService(llm LLMClient, store ConversationStore, notifier Notifier, shaper *Shaper, sampling SamplingConfig, business catalog.Business, logger *logging.Logger, m *metrics.ChatMetrics) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if shaper == nil {
		shaper = NewShaper(nil)
	}
	return &Service{
		llm:      llm,
		store:    store,
		notifier: notifier,
		shaper:   shaper,
		sampling: sampling,
		business: business,
		logger:   logger,
		metrics:  m,
	}
}

// TurnRequest is one inbound user turn plus client-held history.
type TurnRequest struct {
	Message   string
	History   []Message
	SessionID string
	Persona   Persona
}

// TurnResult is what goes back to the widget.
type TurnResult struct {
	Response  string
	SessionID string
	// Err carries an informational failure description. The reply text is
	// always usable regardless; callers must not branch on Err.
	Err error
}

// HandleTurn processes one user message. It never returns an error: every
// failure mode degrades to a usable reply containing the business phone
// number, and store or notification failures are logged and swallowed.
func (s *Service) HandleTurn(ctx context.Context, req TurnRequest) TurnResult {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	prior := s.loadPrior(ctx, sessionID)

	history := sanitizeHistory(req.History)
	if len(history) == 0 && prior != nil {
		// The caller resends history each turn; when it doesn't, the
		// persisted transcript carries the session forward.
		history = sanitizeHistory(prior.Messages)
	}
	transcript := append(history, Message{Role: ChatRoleUser, Content: req.Message})

	prevContact := ExtractContact(transcript[:len(transcript)-1])
	if prior != nil {
		prevContact = mergeContact(prior.Contact, prevContact)
	}
	preScore := ScoreLead(transcript, ExtractContact(transcript))
	s.logger.Debug("pre-check score", "session_id", sessionID, "tier", preScore.Tier)

	raw, llmErr := s.complete(ctx, transcript, req.Persona)

	// Post-reply transcript drives extraction, scoring, and shaping so the
	// injected contact prompt reflects the freshest state.
	postTranscript := append(transcript, Message{Role: ChatRoleAssistant, Content: raw})
	contact := ExtractContact(postTranscript)
	if prior != nil {
		// A populated field is never cleared: earlier captures stay sticky
		// even when the current transcript no longer contains them.
		contact = mergeContact(prior.Contact, contact)
	}
	score := ScoreLead(postTranscript, contact)
	s.metrics.ObserveLeadScore(string(score.Tier))

	shaped := s.shaper.Shape(raw, ShapeState{
		Contact:      contact,
		PrevContact:  prevContact,
		Score:        score,
		LastUserMsg:  req.Message,
		UserTurns:    countUserTurns(postTranscript),
		PriorReplies: assistantReplies(history),
	})
	postTranscript[len(postTranscript)-1].Content = shaped

	state := &ConversationState{
		SessionID: sessionID,
		Messages:  postTranscript,
		Contact:   contact,
		Score:     score,
		UpdatedAt: time.Now().UTC(),
	}
	s.persist(ctx, state)
	s.notify(ctx, state)

	outcome := "ok"
	if llmErr != nil {
		outcome = "degraded"
	}
	s.metrics.ObserveRequest(outcome)

	return TurnResult{Response: shaped, SessionID: sessionID, Err: llmErr}
}

// complete runs the provider call and guarantees non-empty text back. Any
// provider failure, including the unconfigured case, yields a canned reply
// with the business phone and email.
func (s *Service) complete(ctx context.Context, transcript []Message, persona Persona) (string, error) {
	if s.llm == nil {
		return s.notConfiguredReply(), nil
	}

	start := time.Now()
	resp, err := s.llm.Complete(ctx, LLMRequest{
		Model:       s.sampling.Model,
		System:      BuildSystemPrompt(s.business, persona),
		Messages:    transcript,
		MaxTokens:   s.sampling.MaxTokens,
		Temperature: s.sampling.Temperature,
		TopP:        s.sampling.TopP,
	})
	if err != nil {
		s.metrics.ObserveProviderLatency("error", time.Since(start).Seconds())
		s.logger.Error("provider completion failed", "error", err.Error())
		return s.fallbackReply(), err
	}
	s.metrics.ObserveProviderLatency("ok", time.Since(start).Seconds())

	if strings.TrimSpace(resp.Text) == "" {
		s.logger.Warn("provider returned empty text", "stop_reason", resp.StopReason)
		return s.emptyReply(), nil
	}
	return resp.Text, nil
}

// loadPrior re-reads persisted state for the session, best-effort. A store
// failure degrades to a fresh conversation rather than failing the turn.
func (s *Service) loadPrior(ctx context.Context, sessionID string) *ConversationState {
	if s.store == nil {
		return nil
	}
	prior, err := s.store.Get(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to load prior conversation state", "session_id", sessionID, "error", err.Error())
		return nil
	}
	return prior
}

// mergeContact keeps the persisted first capture for every populated field
// and fills the rest from the fresh extraction.
func mergeContact(persisted, fresh ContactInfo) ContactInfo {
	if persisted.Name != "" {
		fresh.Name = persisted.Name
	}
	if persisted.Email != "" {
		fresh.Email = persisted.Email
	}
	if persisted.Phone != "" {
		fresh.Phone = persisted.Phone
	}
	return fresh
}

func (s *Service) persist(ctx context.Context, state *ConversationState) {
	if s.store == nil {
		return
	}
	id, err := s.store.Upsert(ctx, state)
	if err != nil {
		s.logger.Error("conversation upsert failed", "session_id", state.SessionID, "error", err.Error())
		return
	}
	state.ID = id
}

func (s *Service) notify(ctx context.Context, state *ConversationState) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.MaybeNotify(ctx, state); err != nil {
		s.logger.Error("lead notification failed", "session_id", state.SessionID, "error", err.Error())
	}
}

func (s *Service) notConfiguredReply() string {
	return fmt.Sprintf("Our chat assistant isn't available right now. Please call us at %s or email %s and we'll take care of you.", s.business.Phone, s.business.Email)
}

func (s *Service) fallbackReply() string {
	return fmt.Sprintf("I apologize, but I'm experiencing technical difficulties. Please try again later or contact us directly at %s or %s for immediate assistance.", s.business.Phone, s.business.Email)
}

func (s *Service) emptyReply() string {
	return fmt.Sprintf("I couldn't generate a response just now. Please give us a call at %s or email %s and we'll help right away.", s.business.Phone, s.business.Email)
}

// sanitizeHistory drops turns an external caller should not be able to
// inject: system role turns and empty messages.
func sanitizeHistory(history []Message) []Message {
	out := make([]Message, 0, len(history)+2)
	for _, msg := range history {
		if msg.Role != ChatRoleUser && msg.Role != ChatRoleAssistant {
			continue
		}
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func countUserTurns(messages []Message) int {
	n := 0
	for _, msg := range messages {
		if msg.Role == ChatRoleUser {
			n++
		}
	}
	return n
}

func assistantReplies(messages []Message) []string {
	var out []string
	for _, msg := range messages {
		if msg.Role == ChatRoleAssistant {
			out = append(out, msg.Content)
		}
	}
	return out
}
