package application

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
)

// MockCompletionClient implements output.CompletionClient for testing
type MockCompletionClient struct {
	CompleteFunc      func(ctx context.Context, prompt string) (string, error)
	DescribeMediaFunc func(ctx context.Context, mimeType string, data []byte, instruction string) (string, error)

	// Captured values for assertions
	LastPrompt      string
	LastInstruction string
	LastMimeType    string
}

func (m *MockCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.LastPrompt = prompt
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "Claro, posso ajudar!", nil
}

func (m *MockCompletionClient) DescribeMedia(ctx context.Context, mimeType string, data []byte, instruction string) (string, error) {
	m.LastMimeType = mimeType
	m.LastInstruction = instruction
	if m.DescribeMediaFunc != nil {
		return m.DescribeMediaFunc(ctx, mimeType, data, instruction)
	}
	return "transcribed text", nil
}

// TestSplitChunks_ShortTextSingleChunk tests that text within the limit is untouched
func TestSplitChunks_ShortTextSingleChunk(t *testing.T) {
	text := "Olá! Seu pedido está a caminho."
	chunks := SplitChunks(text, 300)

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("Expected text unchanged, got %q", chunks[0])
	}
}

// TestSplitChunks_NeverSplitsWords tests whitespace-boundary cutting
func TestSplitChunks_NeverSplitsWords(t *testing.T) {
	words := strings.Fields(strings.Repeat("palavra bonita rastreamento ", 40))
	text := strings.Join(words, " ")

	chunks := SplitChunks(text, 100)

	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks for %d chars, got %d", len(text), len(chunks))
	}

	for i, chunk := range chunks {
		if utf8.RuneCountInString(chunk) > 100 {
			t.Errorf("Chunk %d exceeds limit: %d runes", i, utf8.RuneCountInString(chunk))
		}
	}

	// Rejoining on single spaces reproduces the original text, which
	// also proves no word was cut in half.
	if rejoined := strings.Join(chunks, " "); rejoined != text {
		t.Errorf("Expected chunks to rejoin into the original text.\nExpected length %d, got %d", len(text), len(rejoined))
	}
}

// TestSplitChunks_HardCutWithoutWhitespace tests the unbroken-run fallback
func TestSplitChunks_HardCutWithoutWhitespace(t *testing.T) {
	text := strings.Repeat("x", 750)
	chunks := SplitChunks(text, 300)

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks for a 750-rune run at limit 300, got %d", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Error("Expected hard cuts to preserve every rune")
	}
}

// TestSplitChunks_CountsRunesNotBytes tests multibyte handling
func TestSplitChunks_CountsRunesNotBytes(t *testing.T) {
	// Each rune is multibyte; a byte-counting split would cut early.
	text := strings.Repeat("ã", 450)
	chunks := SplitChunks(text, 300)

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks for 450 runes at limit 300, got %d", len(chunks))
	}
	if utf8.RuneCountInString(chunks[0]) != 300 {
		t.Errorf("Expected first chunk to carry 300 runes, got %d", utf8.RuneCountInString(chunks[0]))
	}
}

// TestCompose_PromptCarriesScriptHistoryAndNewTurn tests prompt assembly
func TestCompose_PromptCarriesScriptHistoryAndNewTurn(t *testing.T) {
	mock := &MockCompletionClient{}
	composer := NewComposer(mock, "Fernanda", "AquaFit Brasil", "")

	session := domain.NewSession("conv-1", 12)
	session.SetDisplayNameOnce("Maria")
	session.AddTurn("Oi", "Olá Maria!")
	session.MarkGreeted()

	_, _, err := composer.Compose(context.Background(), session, "cadê meu pedido?", nil, false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	prompt := mock.LastPrompt
	for _, want := range []string{
		"Fernanda",
		"AquaFit Brasil",
		"Maria",
		"Cliente: Oi",
		"Fernanda: Olá Maria!",
		"cadê meu pedido?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q.\nPrompt:\n%s", want, prompt)
		}
	}
}

// TestCompose_IntroductionOnlyOnFirstTurn tests the one-time introduction instruction
func TestCompose_IntroductionOnlyOnFirstTurn(t *testing.T) {
	mock := &MockCompletionClient{}
	composer := NewComposer(mock, "Fernanda", "AquaFit Brasil", "")

	session := domain.NewSession("conv-1", 12)

	_, _, err := composer.Compose(context.Background(), session, "Oi", nil, true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(mock.LastPrompt, "apresente") {
		t.Error("Expected the first-turn prompt to carry the introduction instruction")
	}

	session.AddTurn("Oi", "Olá!")
	session.MarkGreeted()

	_, _, err = composer.Compose(context.Background(), session, "e aí?", nil, false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if strings.Contains(mock.LastPrompt, "apresente") {
		t.Error("Expected later prompts to not repeat the introduction instruction")
	}
}

// TestCompose_OrderBlockWithTracking tests the order context block
func TestCompose_OrderBlockWithTracking(t *testing.T) {
	mock := &MockCompletionClient{}
	composer := NewComposer(mock, "Fernanda", "AquaFit Brasil", "")

	session := domain.NewSession("conv-1", 12)
	summary := &domain.OrderSummary{
		Number:         "#17545",
		Status:         domain.OrderStatusShipped,
		TrackingNumber: "BR123456789",
		TrackingURL:    "https://aquafitbrasil.com/pages/rastreamento?codigo=BR123456789",
	}

	_, _, err := composer.Compose(context.Background(), session, "17545", summary, true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	prompt := mock.LastPrompt
	for _, want := range []string{"#17545", "shipped", "BR123456789", "rastreamento?codigo=BR123456789"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected order block to contain %q.\nPrompt:\n%s", want, prompt)
		}
	}
}

// TestCompose_OrderBlockWithoutTracking tests the no-tracking variant
func TestCompose_OrderBlockWithoutTracking(t *testing.T) {
	mock := &MockCompletionClient{}
	composer := NewComposer(mock, "Fernanda", "AquaFit Brasil", "")

	session := domain.NewSession("conv-1", 12)
	summary := &domain.OrderSummary{Number: "#17545", Status: domain.OrderStatusProcessing}

	_, _, err := composer.Compose(context.Background(), session, "17545", summary, true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(mock.LastPrompt, "não disponível") {
		t.Error("Expected the prompt to state tracking is not available")
	}
}

// TestCompose_EmptyCompletionIsAnError tests the whitespace-only answer path
func TestCompose_EmptyCompletionIsAnError(t *testing.T) {
	mock := &MockCompletionClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return "   \n  ", nil
		},
	}
	composer := NewComposer(mock, "Fernanda", "AquaFit Brasil", "")
	session := domain.NewSession("conv-1", 12)

	_, _, err := composer.Compose(context.Background(), session, "Oi", nil, true)
	if err == nil {
		t.Fatal("Expected an error for a whitespace-only completion")
	}
}

// TestCompose_ReturnsFullTextAlongsideChunks tests the history copy of the answer
func TestCompose_ReturnsFullTextAlongsideChunks(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("resposta detalhada sobre o pedido ", 20))
	mock := &MockCompletionClient{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			return long, nil
		},
	}
	composer := NewComposer(mock, "Fernanda", "AquaFit Brasil", "")
	session := domain.NewSession("conv-1", 12)

	chunks, full, err := composer.Compose(context.Background(), session, "Oi", nil, true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if full != long {
		t.Error("Expected the full un-split answer to be returned for the history")
	}
	if len(chunks) < 2 {
		t.Errorf("Expected a long answer to split, got %d chunk(s)", len(chunks))
	}
}
