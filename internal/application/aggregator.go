package application

import (
	"strings"
	"sync"
	"time"
)

// FlushFunc is invoked when a conversation's debounce window closes.
// turnText is the buffered fragments newline-joined in arrival order;
// messageID is the channel identifier of the newest fragment.
type FlushFunc func(conversationID, turnText, messageID string)

// pendingBuffer holds the not-yet-flushed fragments of one conversation.
// gen counts re-arms: a fired timer whose generation no longer matches
// was cancelled by a later fragment and must not flush.
type pendingBuffer struct {
	texts         []string
	lastMessageID string
	timer         *time.Timer
	gen           uint64
}

// Aggregator coalesces bursts of rapid inbound messages into one logical
// turn per conversation. Each conversation moves Idle -> Buffering (timer
// armed, reset on every new fragment) -> Flushing (buffer swapped out,
// flush callback invoked) -> Idle. Fragments arriving during a flush start
// a fresh buffering cycle; they never join the in-flight turn.
type Aggregator struct {
	mu      sync.Mutex
	pending map[string]*pendingBuffer

	flush       FlushFunc
	firstWindow time.Duration
	nextWindow  time.Duration
}

// NewAggregator creates an aggregator. firstWindow applies to a
// conversation's first turn (first contact tends to arrive as several
// rapid fragments), nextWindow to every turn after that.
func NewAggregator(flush FlushFunc, firstWindow, nextWindow time.Duration) *Aggregator {
	return &Aggregator{
		pending:     make(map[string]*pendingBuffer),
		flush:       flush,
		firstWindow: firstWindow,
		nextWindow:  nextWindow,
	}
}

// Append adds one message fragment to the conversation's buffer and
// (re)arms the debounce timer. firstTurn selects the longer window.
func (a *Aggregator) Append(conversationID, text, messageID string, firstTurn bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.pending[conversationID]
	if !ok {
		p = &pendingBuffer{}
		a.pending[conversationID] = p
	}

	p.texts = append(p.texts, text)
	p.lastMessageID = messageID

	// Debounce: every new fragment cancels the scheduled flush and
	// restarts the wait window.
	if p.timer != nil {
		p.timer.Stop()
	}
	p.gen++

	window := a.nextWindow
	if firstTurn {
		window = a.firstWindow
	}

	gen := p.gen
	p.timer = time.AfterFunc(window, func() {
		a.fire(conversationID, gen)
	})
}

// fire runs in the timer goroutine. It swaps the buffer out atomically so
// new fragments arriving during the flush callback open a fresh cycle.
func (a *Aggregator) fire(conversationID string, gen uint64) {
	a.mu.Lock()
	p, ok := a.pending[conversationID]
	if !ok || p.gen != gen {
		// Stale timer: cancelled by a re-arm that raced the fire.
		a.mu.Unlock()
		return
	}
	texts := p.texts
	messageID := p.lastMessageID
	delete(a.pending, conversationID)
	a.mu.Unlock()

	a.flush(conversationID, strings.Join(texts, "\n"), messageID)
}

// Buffering reports whether a conversation currently has an open window
func (a *Aggregator) Buffering(conversationID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[conversationID]
	return ok
}
