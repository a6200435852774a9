package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/ports/input"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure ChatService implements the input port
var _ input.ChatService = (*ChatService)(nil)

// Orchestration pacing defaults
const (
	// Pause before and after the typing indicator once a session is
	// greeted; simulates a human picking up the conversation.
	defaultPreTypingDelay = 1500 * time.Millisecond
	// Pause between consecutive outbound chunks.
	defaultPaceDelay = 1 * time.Second
	// Upper bound for one whole response cycle.
	defaultTurnTimeout = 2 * time.Minute
)

// Settings holds the tunable knobs of the chat service
type Settings struct {
	FirstWindow    time.Duration // debounce window for a session's first turn
	NextWindow     time.Duration // debounce window for later turns
	PreTypingDelay time.Duration
	PaceDelay      time.Duration
	TurnTimeout    time.Duration
}

func (s *Settings) applyDefaults() {
	if s.FirstWindow <= 0 {
		s.FirstWindow = 25 * time.Second
	}
	if s.NextWindow <= 0 {
		s.NextWindow = 10 * time.Second
	}
	// Negative pacing values mean "no pause" (used by tests); zero
	// means "use the default".
	if s.PreTypingDelay == 0 {
		s.PreTypingDelay = defaultPreTypingDelay
	}
	if s.PaceDelay == 0 {
		s.PaceDelay = defaultPaceDelay
	}
	if s.TurnTimeout <= 0 {
		s.TurnTimeout = defaultTurnTimeout
	}
}

// ChatService struct - Application service implementing the support-chat
// use case: aggregate inbound bursts, enrich with order context, compose
// a reply, and send it through the channel.
type ChatService struct {
	channel    output.ChannelClient
	orders     output.OrderLookup
	sessions   output.SessionStore
	transcript output.TranscriptRepository
	composer   *Composer
	aggregator *Aggregator
	settings   Settings

	// One mutex per conversation: a flush never overlaps another
	// response cycle for the same conversation.
	turnLocks sync.Map
}

// NewChatService func - Creates new chat service and wires its aggregator
func NewChatService(
	channel output.ChannelClient,
	orders output.OrderLookup,
	sessions output.SessionStore,
	transcript output.TranscriptRepository,
	composer *Composer,
	settings Settings,
) *ChatService {
	settings.applyDefaults()
	s := &ChatService{
		channel:    channel,
		orders:     orders,
		sessions:   sessions,
		transcript: transcript,
		composer:   composer,
		settings:   settings,
	}
	s.aggregator = NewAggregator(s.runTurn, settings.FirstWindow, settings.NextWindow)
	return s
}

// HandleInbound - Use case: one inbound message event from the channel.
// Media is pre-processed into text, then the fragment enters the
// conversation's debounce buffer.
func (s *ChatService) HandleInbound(msg domain.InboundMessage) error {
	text, err := s.resolveText(msg)
	if err != nil {
		logrus.Errorf("Failed to pre-process media for %s: %v", msg.ConversationID, err)
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		logrus.Infof("Ignoring empty inbound message: conversation=%s type=%s", msg.ConversationID, msg.Type)
		return nil
	}

	session := s.sessions.GetOrCreate(msg.ConversationID)
	session.SetDisplayNameOnce(firstName(msg.DisplayName))

	s.aggregator.Append(msg.ConversationID, text, msg.MessageID, !session.Greeted())
	return nil
}

// resolveText turns a non-text message into plain text via the multimodal
// backend before it reaches the aggregator. Text messages pass through.
func (s *ChatService) resolveText(msg domain.InboundMessage) (string, error) {
	switch msg.Type {
	case domain.InboundMessageTypeAudio, domain.InboundMessageTypeImage:
	default:
		return msg.Text, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.settings.TurnTimeout)
	defer cancel()

	data, mimeType, err := s.channel.DownloadMedia(ctx, msg.MediaID)
	if err != nil {
		return "", err
	}

	instruction := describeImageInstruction
	if msg.Type == domain.InboundMessageTypeAudio {
		instruction = transcribeInstruction
	}

	text, err := s.composer.completion.DescribeMedia(ctx, mimeType, data, instruction)
	if err != nil {
		return "", err
	}

	logrus.Infof("Pre-processed %s message from %s into text", msg.Type, msg.ConversationID)
	return text, nil
}

// runTurn is the aggregator's flush callback: one complete response cycle
// for one coalesced turn. Any panic escaping the cycle is answered with a
// generic apology and never crashes the process.
func (s *ChatService) runTurn(conversationID, turnText, messageID string) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Recovered from panic in response cycle for %s: %v", conversationID, r)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.channel.SendText(ctx, conversationID, genericApology); err != nil {
				logrus.Errorf("Failed to send apology to %s: %v", conversationID, err)
			}
		}
	}()

	lock := s.turnLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.settings.TurnTimeout)
	defer cancel()

	session := s.sessions.GetOrCreate(conversationID)
	firstTurn := !session.Greeted()

	s.recordTranscript(conversationID, domain.MessageDirectionInbound, turnText)

	// Natural pause before the typing indicator, once past first contact.
	if !firstTurn {
		s.pause(s.settings.PreTypingDelay)
	}
	if messageID != "" {
		if err := s.channel.MarkTyping(ctx, messageID); err != nil {
			logrus.Warnf("Failed to set typing indicator for %s: %v", conversationID, err)
		}
	}
	if !firstTurn {
		s.pause(s.settings.PreTypingDelay)
	}

	// Sticky order context: a failed or absent lookup falls back to the
	// summary cached by an earlier turn.
	summary := session.Order()
	if candidate, ok := domain.ExtractIdentifier(turnText); ok {
		if fresh := s.lookupOrder(ctx, candidate); fresh != nil {
			summary = fresh
			session.SetOrder(fresh)
			logrus.Infof("Order %s cached for conversation %s (status=%s)", fresh.Number, conversationID, fresh.Status)
		}
	}

	chunks, full, err := s.composer.Compose(ctx, session, turnText, summary, firstTurn)
	if err != nil {
		logrus.Errorf("Completion failed for %s: %v", conversationID, err)
		chunks = []string{fallbackApology}
		full = fallbackApology
	}

	for i, chunk := range chunks {
		if err := s.channel.SendText(ctx, conversationID, chunk); err != nil {
			// Best effort, no retry: a duplicate message is worse
			// than a missing one.
			logrus.Errorf("Failed to send chunk %d/%d to %s: %v", i+1, len(chunks), conversationID, err)
			continue
		}
		s.recordTranscript(conversationID, domain.MessageDirectionOutbound, chunk)
		if i < len(chunks)-1 {
			s.pause(s.settings.PaceDelay)
		}
	}

	session.AddTurn(turnText, full)
	session.MarkGreeted()
	session.Touch()
}

// lookupOrder resolves an extracted identifier against the commerce
// backend. Failures and misses both come back nil; the caller degrades
// to the previously cached summary.
func (s *ChatService) lookupOrder(ctx context.Context, candidate domain.Identifier) *domain.OrderSummary {
	switch candidate.Kind {
	case domain.IdentifierOrderNumber:
		summary, err := s.orders.FindByOrderNumber(ctx, candidate.Value)
		if err != nil {
			logrus.Errorf("Order lookup by number %s failed: %v", candidate.Value, err)
			return nil
		}
		return summary

	case domain.IdentifierEmail:
		summaries, err := s.orders.FindByEmail(ctx, candidate.Value)
		if err != nil {
			logrus.Errorf("Order lookup by email failed: %v", err)
			return nil
		}
		if len(summaries) == 0 {
			return nil
		}
		return &summaries[0]

	case domain.IdentifierTaxID:
		summary, err := s.orders.FindByTaxID(ctx, candidate.Value)
		if err != nil {
			logrus.Errorf("Order lookup by tax ID failed: %v", err)
			return nil
		}
		return summary

	default:
		return nil
	}
}

func (s *ChatService) recordTranscript(conversationID string, direction domain.MessageDirection, body string) {
	if s.transcript == nil {
		return
	}
	if err := s.transcript.Record(conversationID, direction, body); err != nil {
		logrus.Warnf("Failed to record transcript entry for %s: %v", conversationID, err)
	}
}

func (s *ChatService) turnLock(conversationID string) *sync.Mutex {
	lock, _ := s.turnLocks.LoadOrStore(conversationID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *ChatService) pause(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// firstName trims a contact push name down to its first word, the way a
// human attendant would address the customer.
func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
