package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
)

// Fast aggregation windows and no pacing pauses for tests
func testSettings() Settings {
	return Settings{
		FirstWindow:    20 * time.Millisecond,
		NextWindow:     20 * time.Millisecond,
		PreTypingDelay: -1,
		PaceDelay:      -1,
	}
}

// MockChannelClient implements output.ChannelClient for testing
type MockChannelClient struct {
	SendTextFunc      func(ctx context.Context, conversationID, text string) error
	MarkTypingFunc    func(ctx context.Context, messageID string) error
	DownloadMediaFunc func(ctx context.Context, mediaID string) ([]byte, string, error)

	mu sync.Mutex
	// Captured values for assertions
	SentMessages []string
	TypingCalls  []string
}

func (m *MockChannelClient) SendText(ctx context.Context, conversationID, text string) error {
	m.mu.Lock()
	m.SentMessages = append(m.SentMessages, text)
	m.mu.Unlock()
	if m.SendTextFunc != nil {
		return m.SendTextFunc(ctx, conversationID, text)
	}
	return nil
}

func (m *MockChannelClient) MarkTyping(ctx context.Context, messageID string) error {
	m.mu.Lock()
	m.TypingCalls = append(m.TypingCalls, messageID)
	m.mu.Unlock()
	if m.MarkTypingFunc != nil {
		return m.MarkTypingFunc(ctx, messageID)
	}
	return nil
}

func (m *MockChannelClient) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	if m.DownloadMediaFunc != nil {
		return m.DownloadMediaFunc(ctx, mediaID)
	}
	return []byte("media-bytes"), "audio/ogg", nil
}

func (m *MockChannelClient) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.SentMessages))
	copy(out, m.SentMessages)
	return out
}

// MockOrderLookup implements output.OrderLookup for testing
type MockOrderLookup struct {
	FindByOrderNumberFunc func(ctx context.Context, number string) (*domain.OrderSummary, error)
	FindByEmailFunc       func(ctx context.Context, email string) ([]domain.OrderSummary, error)
	FindByTaxIDFunc       func(ctx context.Context, taxID string) (*domain.OrderSummary, error)

	mu sync.Mutex
	// Captured values for assertions
	NumberLookups []string
	EmailLookups  []string
	TaxIDLookups  []string
}

func (m *MockOrderLookup) FindByOrderNumber(ctx context.Context, number string) (*domain.OrderSummary, error) {
	m.mu.Lock()
	m.NumberLookups = append(m.NumberLookups, number)
	m.mu.Unlock()
	if m.FindByOrderNumberFunc != nil {
		return m.FindByOrderNumberFunc(ctx, number)
	}
	return nil, nil
}

func (m *MockOrderLookup) FindByEmail(ctx context.Context, email string) ([]domain.OrderSummary, error) {
	m.mu.Lock()
	m.EmailLookups = append(m.EmailLookups, email)
	m.mu.Unlock()
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *MockOrderLookup) FindByTaxID(ctx context.Context, taxID string) (*domain.OrderSummary, error) {
	m.mu.Lock()
	m.TaxIDLookups = append(m.TaxIDLookups, taxID)
	m.mu.Unlock()
	if m.FindByTaxIDFunc != nil {
		return m.FindByTaxIDFunc(ctx, taxID)
	}
	return nil, nil
}

// MockSessionStore implements output.SessionStore for testing
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	maxTurns int
}

func NewMockSessionStore(maxTurns int) *MockSessionStore {
	return &MockSessionStore{
		sessions: make(map[string]*domain.Session),
		maxTurns: maxTurns,
	}
}

func (m *MockSessionStore) GetOrCreate(conversationID string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[conversationID]; ok {
		return session
	}
	session := domain.NewSession(conversationID, m.maxTurns)
	m.sessions[conversationID] = session
	return session
}

func (m *MockSessionStore) Delete(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, conversationID)
}

func (m *MockSessionStore) Sweep(idleThreshold time.Duration) int {
	return 0
}

// MockTranscriptRepository implements output.TranscriptRepository for testing
type MockTranscriptRepository struct {
	RecordFunc func(conversationID string, direction domain.MessageDirection, body string) error

	mu sync.Mutex
	// Captured values for assertions
	Records []recordedTranscript
}

type recordedTranscript struct {
	conversationID string
	direction      domain.MessageDirection
	body           string
}

func (m *MockTranscriptRepository) Record(conversationID string, direction domain.MessageDirection, body string) error {
	m.mu.Lock()
	m.Records = append(m.Records, recordedTranscript{conversationID, direction, body})
	m.mu.Unlock()
	if m.RecordFunc != nil {
		return m.RecordFunc(conversationID, direction, body)
	}
	return nil
}

func (m *MockTranscriptRepository) recorded() []recordedTranscript {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recordedTranscript, len(m.Records))
	copy(out, m.Records)
	return out
}

// Test helpers

func newTestService(channel *MockChannelClient, completion *MockCompletionClient, orders *MockOrderLookup, sessions *MockSessionStore, transcript *MockTranscriptRepository) *ChatService {
	composer := NewComposer(completion, "Fernanda", "AquaFit Brasil", "")
	return NewChatService(channel, orders, sessions, transcript, composer, testSettings())
}

func textMessage(conversationID, messageID, text string) domain.InboundMessage {
	return domain.InboundMessage{
		ConversationID: conversationID,
		MessageID:      messageID,
		DisplayName:    "Maria Silva",
		Type:           domain.InboundMessageTypeText,
		Text:           text,
		Timestamp:      time.Now(),
	}
}

// waitFor polls a condition until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

// TestFirstContact_RepliesAndMarksGreeted tests the full first response cycle
func TestFirstContact_RepliesAndMarksGreeted(t *testing.T) {
	channel := &MockChannelClient{}
	completion := &MockCompletionClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return "Oi, Maria? Aqui é a Fernanda, da AquaFit Brasil. Como posso te ajudar hoje?", nil
		},
	}
	orders := &MockOrderLookup{}
	sessions := NewMockSessionStore(12)
	transcript := &MockTranscriptRepository{}

	service := newTestService(channel, completion, orders, sessions, transcript)

	err := service.HandleInbound(textMessage("5511999990000", "wamid.1", "Oi"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	waitFor(t, "reply to be sent", func() bool { return len(channel.sent()) > 0 })

	session := sessions.GetOrCreate("5511999990000")
	waitFor(t, "session to be greeted", session.Greeted)

	if got := channel.sent(); len(got) != 1 {
		t.Errorf("Expected exactly 1 outbound message, got %d", len(got))
	}
	if session.DisplayName() != "Maria" {
		t.Errorf("Expected display name trimmed to first name 'Maria', got '%s'", session.DisplayName())
	}

	history := session.History()
	if len(history) != 2 {
		t.Fatalf("Expected one exchange in history, got %d messages", len(history))
	}
	if history[0].Content != "Oi" {
		t.Errorf("Expected user text 'Oi' in history, got %q", history[0].Content)
	}
}

// TestBurst_CoalescesIntoSingleResponseCycle tests that a rapid burst yields one reply
func TestBurst_CoalescesIntoSingleResponseCycle(t *testing.T) {
	var prompts []string
	var promptsMu sync.Mutex

	channel := &MockChannelClient{}
	completion := &MockCompletionClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			promptsMu.Lock()
			prompts = append(prompts, prompt)
			promptsMu.Unlock()
			return "Deixa eu verificar!", nil
		},
	}
	sessions := NewMockSessionStore(12)
	service := newTestService(channel, completion, &MockOrderLookup{}, sessions, &MockTranscriptRepository{})

	_ = service.HandleInbound(textMessage("conv-1", "wamid.1", "Oi"))
	_ = service.HandleInbound(textMessage("conv-1", "wamid.2", "meu pedido não chegou"))
	_ = service.HandleInbound(textMessage("conv-1", "wamid.3", "pode verificar?"))

	waitFor(t, "reply to be sent", func() bool { return len(channel.sent()) > 0 })

	promptsMu.Lock()
	defer promptsMu.Unlock()
	if len(prompts) != 1 {
		t.Fatalf("Expected a single completion call for the burst, got %d", len(prompts))
	}
	if !strings.Contains(prompts[0], "Oi\nmeu pedido não chegou\npode verificar?") {
		t.Errorf("Expected the coalesced turn in the prompt.\nPrompt:\n%s", prompts[0])
	}
}

// TestOrderNumberTurn_LooksUpAndFeedsTracking tests identifier extraction feeding the prompt
func TestOrderNumberTurn_LooksUpAndFeedsTracking(t *testing.T) {
	channel := &MockChannelClient{}
	completion := &MockCompletionClient{}
	orders := &MockOrderLookup{
		FindByOrderNumberFunc: func(ctx context.Context, number string) (*domain.OrderSummary, error) {
			return &domain.OrderSummary{
				Number:         "#17545",
				Status:         domain.OrderStatusShipped,
				TrackingNumber: "BR123456789",
				TrackingURL:    "https://aquafitbrasil.com/pages/rastreamento?codigo=BR123456789",
			}, nil
		},
	}
	sessions := NewMockSessionStore(12)
	service := newTestService(channel, completion, orders, sessions, &MockTranscriptRepository{})

	_ = service.HandleInbound(textMessage("conv-1", "wamid.1", "meu pedido é 17545"))

	waitFor(t, "reply to be sent", func() bool { return len(channel.sent()) > 0 })

	orders.mu.Lock()
	lookups := append([]string(nil), orders.NumberLookups...)
	orders.mu.Unlock()
	if len(lookups) != 1 || lookups[0] != "17545" {
		t.Fatalf("Expected one lookup for '17545', got %v", lookups)
	}

	if !strings.Contains(completion.LastPrompt, "BR123456789") {
		t.Error("Expected the tracking number in the prompt")
	}

	session := sessions.GetOrCreate("conv-1")
	if order := session.Order(); order == nil || order.Number != "#17545" {
		t.Error("Expected the order summary cached on the session")
	}
}

// TestLookupFailure_StillReplies tests graceful degradation on backend errors
func TestLookupFailure_StillReplies(t *testing.T) {
	channel := &MockChannelClient{}
	completion := &MockCompletionClient{}
	orders := &MockOrderLookup{
		FindByOrderNumberFunc: func(ctx context.Context, number string) (*domain.OrderSummary, error) {
			return nil, errors.New("shopify: 503 service unavailable")
		},
	}
	sessions := NewMockSessionStore(12)
	service := newTestService(channel, completion, orders, sessions, &MockTranscriptRepository{})

	_ = service.HandleInbound(textMessage("conv-1", "wamid.1", "pedido 17545"))

	waitFor(t, "reply to be sent", func() bool { return len(channel.sent()) > 0 })

	session := sessions.GetOrCreate("conv-1")
	if session.Order() != nil {
		t.Error("Expected no order cached after a failed lookup")
	}
	if !session.Greeted() {
		waitFor(t, "session to be greeted", session.Greeted)
	}
	if strings.Contains(completion.LastPrompt, "Pedido:") {
		t.Error("Expected no order block in the prompt after a failed lookup")
	}
}

// TestStickyOrderContext_SurvivesFailedLookups tests that cached context persists
func TestStickyOrderContext_SurvivesFailedLookups(t *testing.T) {
	channel := &MockChannelClient{}
	completion := &MockCompletionClient{}

	healthy := true
	orders := &MockOrderLookup{
		FindByOrderNumberFunc: func(ctx context.Context, number string) (*domain.OrderSummary, error) {
			if !healthy {
				return nil, errors.New("backend down")
			}
			return &domain.OrderSummary{Number: "#17545", Status: domain.OrderStatusShipped, TrackingNumber: "BR123456789"}, nil
		},
	}
	sessions := NewMockSessionStore(12)
	service := newTestService(channel, completion, orders, sessions, &MockTranscriptRepository{})

	// First turn caches the summary.
	_ = service.HandleInbound(textMessage("conv-1", "wamid.1", "pedido 17545"))
	waitFor(t, "first reply", func() bool { return len(channel.sent()) >= 1 })

	// Backend degrades; the next turn repeats the number.
	healthy = false
	_ = service.HandleInbound(textMessage("conv-1", "wamid.2", "e o 17545, chegou?"))
	waitFor(t, "second reply", func() bool { return len(channel.sent()) >= 2 })

	if !strings.Contains(completion.LastPrompt, "BR123456789") {
		t.Error("Expected the cached order context to survive the failed lookup")
	}
}

// TestCompletionFailure_SendsFallbackApology tests the degraded reply path
func TestCompletionFailure_SendsFallbackApology(t *testing.T) {
	channel := &MockChannelClient{}
	completion := &MockCompletionClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", domain.ErrCompletionUnavailable
		},
	}
	sessions := NewMockSessionStore(12)
	service := newTestService(channel, completion, &MockOrderLookup{}, sessions, &MockTranscriptRepository{})

	_ = service.HandleInbound(textMessage("conv-1", "wamid.1", "Oi"))

	waitFor(t, "fallback to be sent", func() bool { return len(channel.sent()) > 0 })

	sent := channel.sent()
	if len(sent) != 1 {
		t.Fatalf("Expected 1 outbound message, got %d", len(sent))
	}
	if sent[0] != fallbackApology {
		t.Errorf("Expected the fallback apology, got %q", sent[0])
	}

	// The turn still completes: greeted and recorded in history.
	session := sessions.GetOrCreate("conv-1")
	waitFor(t, "session to be greeted", session.Greeted)
	history := session.History()
	if len(history) != 2 || history[1].Content != fallbackApology {
		t.Error("Expected the fallback recorded as the agent's answer")
	}
}

// TestEmptyInboundText_IsIgnored tests that blank messages never open a window
func TestEmptyInboundText_IsIgnored(t *testing.T) {
	channel := &MockChannelClient{}
	completion := &MockCompletionClient{}
	sessions := NewMockSessionStore(12)
	service := newTestService(channel, completion, &MockOrderLookup{}, sessions, &MockTranscriptRepository{})

	err := service.HandleInbound(textMessage("conv-1", "wamid.1", "   "))
	if err != nil {
		t.Fatalf("Expected no error for a blank message, got: %v", err)
	}

	time.Sleep(80 * time.Millisecond)
	if got := channel.sent(); len(got) != 0 {
		t.Errorf("Expected no outbound messages, got %d", len(got))
	}
	if service.aggregator.Buffering("conv-1") {
		t.Error("Expected no open aggregation window for a blank message")
	}
}

// TestAudioMessage_IsTranscribedBeforeBuffering tests the media pre-processing path
func TestAudioMessage_IsTranscribedBeforeBuffering(t *testing.T) {
	channel := &MockChannelClient{
		DownloadMediaFunc: func(ctx context.Context, mediaID string) ([]byte, string, error) {
			if mediaID != "media-42" {
				t.Errorf("Expected media ID 'media-42', got %q", mediaID)
			}
			return []byte("ogg-bytes"), "audio/ogg", nil
		},
	}
	completion := &MockCompletionClient{
		DescribeMediaFunc: func(ctx context.Context, mimeType string, data []byte, instruction string) (string, error) {
			return "quero saber do pedido 17545", nil
		},
	}
	orders := &MockOrderLookup{}
	sessions := NewMockSessionStore(12)
	service := newTestService(channel, completion, orders, sessions, &MockTranscriptRepository{})

	err := service.HandleInbound(domain.InboundMessage{
		ConversationID: "conv-1",
		MessageID:      "wamid.1",
		Type:           domain.InboundMessageTypeAudio,
		MediaID:        "media-42",
		Timestamp:      time.Now(),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	waitFor(t, "reply to be sent", func() bool { return len(channel.sent()) > 0 })

	// The transcription entered the turn and its order number was looked up.
	orders.mu.Lock()
	lookups := append([]string(nil), orders.NumberLookups...)
	orders.mu.Unlock()
	if len(lookups) != 1 || lookups[0] != "17545" {
		t.Errorf("Expected the transcribed order number to be looked up, got %v", lookups)
	}
}

// TestMediaDownloadFailure_SurfacesError tests the pre-processing error path
func TestMediaDownloadFailure_SurfacesError(t *testing.T) {
	channel := &MockChannelClient{
		DownloadMediaFunc: func(ctx context.Context, mediaID string) ([]byte, string, error) {
			return nil, "", errors.New("media expired")
		},
	}
	completion := &MockCompletionClient{}
	sessions := NewMockSessionStore(12)
	service := newTestService(channel, completion, &MockOrderLookup{}, sessions, &MockTranscriptRepository{})

	err := service.HandleInbound(domain.InboundMessage{
		ConversationID: "conv-1",
		MessageID:      "wamid.1",
		Type:           domain.InboundMessageTypeImage,
		MediaID:        "media-9",
	})
	if err == nil {
		t.Fatal("Expected an error when media download fails")
	}
}

// TestTranscript_RecordsBothDirections tests the audit log wiring
func TestTranscript_RecordsBothDirections(t *testing.T) {
	channel := &MockChannelClient{}
	completion := &MockCompletionClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return "Tudo certo!", nil
		},
	}
	sessions := NewMockSessionStore(12)
	transcript := &MockTranscriptRepository{}
	service := newTestService(channel, completion, &MockOrderLookup{}, sessions, transcript)

	_ = service.HandleInbound(textMessage("conv-1", "wamid.1", "Oi"))

	waitFor(t, "transcript entries", func() bool { return len(transcript.recorded()) >= 2 })

	records := transcript.recorded()
	if records[0].direction != domain.MessageDirectionInbound || records[0].body != "Oi" {
		t.Errorf("Expected the inbound turn recorded first, got %+v", records[0])
	}
	if records[1].direction != domain.MessageDirectionOutbound || records[1].body != "Tudo certo!" {
		t.Errorf("Expected the outbound chunk recorded, got %+v", records[1])
	}
}

// TestTypingIndicator_UsesNewestMessageID tests the mark-typing call
func TestTypingIndicator_UsesNewestMessageID(t *testing.T) {
	channel := &MockChannelClient{}
	completion := &MockCompletionClient{}
	sessions := NewMockSessionStore(12)
	service := newTestService(channel, completion, &MockOrderLookup{}, sessions, &MockTranscriptRepository{})

	_ = service.HandleInbound(textMessage("conv-1", "wamid.1", "Oi"))
	_ = service.HandleInbound(textMessage("conv-1", "wamid.2", "tudo bem?"))

	waitFor(t, "reply to be sent", func() bool { return len(channel.sent()) > 0 })

	channel.mu.Lock()
	typing := append([]string(nil), channel.TypingCalls...)
	channel.mu.Unlock()
	if len(typing) != 1 || typing[0] != "wamid.2" {
		t.Errorf("Expected typing marked on the newest message ID, got %v", typing)
	}
}

// TestFirstName tests push-name trimming
func TestFirstName(t *testing.T) {
	cases := map[string]string{
		"Maria Silva":    "Maria",
		"João":           "João",
		"  Ana  Beatriz": "Ana",
		"":               "",
		"   ":            "",
	}
	for in, want := range cases {
		if got := firstName(in); got != want {
			t.Errorf("firstName(%q): expected %q, got %q", in, want, got)
		}
	}
}
