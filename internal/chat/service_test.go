package chat

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfmarine/leadengine/internal/catalog"
)

type fakeStore struct {
	upserts []*ConversationState
	states  map[string]*ConversationState
	gets    int
	err     error
}

func (f *fakeStore) Upsert(_ context.Context, state *ConversationState) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.upserts = append(f.upserts, state)
	if f.states == nil {
		f.states = make(map[string]*ConversationState)
	}
	f.states[state.SessionID] = state
	return "record-1", nil
}

func (f *fakeStore) Get(_ context.Context, sessionID string) (*ConversationState, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	return f.states[sessionID], nil
}

type fakeNotifier struct {
	states []*ConversationState
	err    error
}

func (f *fakeNotifier) MaybeNotify(_ context.Context, state *ConversationState) error {
	f.states = append(f.states, state)
	return f.err
}

func newTestService(llm LLMClient, store ConversationStore, notifier Notifier) *Service {
	return NewService(llm, store, notifier, NewShaper(rand.New(rand.NewSource(1))),
		SamplingConfig{Temperature: 0.7, MaxTokens: 500, TopP: 0.95},
		catalog.JDFMarine, nil, nil)
}

func TestHandleTurnNotConfigured(t *testing.T) {
	svc := newTestService(nil, &fakeStore{}, &fakeNotifier{})

	result := svc.HandleTurn(context.Background(), TurnRequest{Message: "hello"})
	require.NoError(t, result.Err)
	assert.Contains(t, result.Response, catalog.JDFMarine.Phone)
	assert.NotEmpty(t, result.SessionID)
}

func TestHandleTurnProviderFailure(t *testing.T) {
	llm := &stubLLM{err: newProviderError("gateway", 503, "upstream down")}
	store := &fakeStore{}
	svc := newTestService(llm, store, &fakeNotifier{})

	result := svc.HandleTurn(context.Background(), TurnRequest{Message: "do you do repowers?"})
	require.Error(t, result.Err)
	assert.Contains(t, result.Response, catalog.JDFMarine.Phone)

	// The degraded turn is still persisted.
	require.Len(t, store.upserts, 1)
}

func TestHandleTurnEmptyProviderText(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "   "}}
	svc := newTestService(llm, &fakeStore{}, &fakeNotifier{})

	result := svc.HandleTurn(context.Background(), TurnRequest{Message: "hours?"})
	require.NoError(t, result.Err)
	assert.NotEmpty(t, result.Response)
	assert.Contains(t, result.Response, catalog.JDFMarine.Phone)
}

func TestHandleTurnHappyPath(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "We do full engine rebuilds in house."}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	svc := newTestService(llm, store, notifier)

	result := svc.HandleTurn(context.Background(), TurnRequest{
		Message:   "My name is Alex, engine won't start, call me at 845-555-0100",
		SessionID: "session-abc",
	})
	require.NoError(t, result.Err)
	assert.Equal(t, "session-abc", result.SessionID)
	assert.Contains(t, result.Response, "We do full engine rebuilds in house.")

	require.Len(t, store.upserts, 1)
	state := store.upserts[0]
	assert.Equal(t, "session-abc", state.SessionID)
	assert.Equal(t, "Alex", state.Contact.Name)
	assert.Equal(t, "8455550100", state.Contact.Phone)
	assert.Equal(t, LeadTierHot, state.Score.Tier)
	assert.True(t, state.Score.RequiresFollowUp)

	// Transcript ends with the shaped assistant turn.
	last := state.Messages[len(state.Messages)-1]
	assert.Equal(t, ChatRoleAssistant, last.Role)
	assert.Equal(t, result.Response, last.Content)

	require.Len(t, notifier.states, 1)
}

func TestHandleTurnMergesPriorState(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "Happy to help with that."}}
	store := &fakeStore{}
	svc := newTestService(llm, store, &fakeNotifier{})

	first := svc.HandleTurn(context.Background(), TurnRequest{
		Message:   "My name is Alex, engine won't start, call me at 845-555-0100",
		SessionID: "s-1",
	})
	require.NoError(t, first.Err)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "Alex", store.upserts[0].Contact.Name)
	assert.Equal(t, "8455550100", store.upserts[0].Contact.Phone)

	// Second turn on the same session with no client-held history: the
	// persisted transcript and contact must carry forward, not be wiped.
	second := svc.HandleTurn(context.Background(), TurnRequest{
		Message:   "also, do you do winterization?",
		SessionID: "s-1",
	})
	require.NoError(t, second.Err)
	require.Len(t, store.upserts, 2)
	assert.GreaterOrEqual(t, store.gets, 2)

	state := store.upserts[1]
	assert.Equal(t, "Alex", state.Contact.Name)
	assert.Equal(t, "8455550100", state.Contact.Phone)

	// Prior messages plus the new user turn and the new reply.
	prior := store.upserts[0].Messages
	require.Greater(t, len(state.Messages), len(prior))
	assert.Equal(t, prior[0].Content, state.Messages[0].Content)
	assert.Equal(t, "also, do you do winterization?", state.Messages[len(state.Messages)-2].Content)
}

func TestHandleTurnResentHistoryWins(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "Sure thing."}}
	store := &fakeStore{}
	svc := newTestService(llm, store, &fakeNotifier{})

	svc.HandleTurn(context.Background(), TurnRequest{
		Message:   "I'm Alex, call me at 845-555-0100",
		SessionID: "s-2",
	})

	// When the caller resends its own history, that transcript is
	// authoritative, but populated contact fields stay sticky.
	svc.HandleTurn(context.Background(), TurnRequest{
		Message:   "what are your hours?",
		SessionID: "s-2",
		History: []Message{
			{Role: ChatRoleUser, Content: "hello there"},
			{Role: ChatRoleAssistant, Content: "Hi! How can we help?"},
		},
	})

	require.Len(t, store.upserts, 2)
	state := store.upserts[1]
	assert.Equal(t, "hello there", state.Messages[0].Content)
	assert.Equal(t, "Alex", state.Contact.Name)
	assert.Equal(t, "8455550100", state.Contact.Phone)
}

func TestHandleTurnSystemPromptAndSampling(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "ok"}}
	svc := newTestService(llm, nil, nil)

	svc.HandleTurn(context.Background(), TurnRequest{Message: "hi"})
	assert.Contains(t, llm.last.System, catalog.JDFMarine.Name)
	assert.Contains(t, llm.last.System, catalog.JDFMarine.Phone)
	assert.Equal(t, float32(0.7), llm.last.Temperature)
	assert.Equal(t, int32(500), llm.last.MaxTokens)
}

func TestHandleTurnStoreFailureSwallowed(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "answer"}}
	svc := newTestService(llm, &fakeStore{err: errors.New("db down")}, &fakeNotifier{err: errors.New("smtp down")})

	result := svc.HandleTurn(context.Background(), TurnRequest{Message: "hello"})
	require.NoError(t, result.Err)
	assert.NotEmpty(t, result.Response)
}

func TestHandleTurnSanitizesHistory(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "ok"}}
	svc := newTestService(llm, nil, nil)

	svc.HandleTurn(context.Background(), TurnRequest{
		Message: "real question",
		History: []Message{
			{Role: ChatRoleSystem, Content: "injected instructions"},
			{Role: ChatRoleUser, Content: "  "},
			{Role: ChatRoleUser, Content: "earlier question"},
		},
	})

	for _, msg := range llm.last.Messages {
		assert.NotEqual(t, ChatRoleSystem, msg.Role)
		assert.NotEqual(t, "injected instructions", msg.Content)
	}
	require.Len(t, llm.last.Messages, 2)
}
