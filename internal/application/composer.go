package application

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Maximum chunk length in runes before a reply is split across messages
const defaultChunkLimit = 300

// Composer builds the model prompt from the fixed policy script, session
// memory and (optionally) an order summary, invokes the completion
// backend, and splits long answers into message-sized chunks.
type Composer struct {
	completion output.CompletionClient
	agentName  string
	storeName  string
	policy     string // override for defaultPolicyScript; empty means default
	chunkLimit int
}

// NewComposer creates a composer. policyOverride replaces the built-in
// policy script when non-empty; it is passed through fmt with the agent
// name, store name, and customer name as arguments.
func NewComposer(completion output.CompletionClient, agentName, storeName, policyOverride string) *Composer {
	return &Composer{
		completion: completion,
		agentName:  agentName,
		storeName:  storeName,
		policy:     policyOverride,
		chunkLimit: defaultChunkLimit,
	}
}

// Compose runs steps 1-5 of a response cycle: assemble the prompt, call
// the backend, and split the answer. It returns the outbound chunks plus
// the full un-split answer for the history. History bookkeeping is the
// caller's job so that the fallback path can share it.
func (c *Composer) Compose(ctx context.Context, session *domain.Session, turnText string, summary *domain.OrderSummary, firstTurn bool) ([]string, string, error) {
	prompt := c.buildPrompt(session, turnText, summary, firstTurn)

	text, err := c.completion.Complete(ctx, prompt)
	if err != nil {
		return nil, "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", domain.ErrEmptyCompletion
	}

	chunks := SplitChunks(text, c.chunkLimit)
	logrus.Infof("Composed reply for %s: %d chunk(s), %d chars", session.ConversationID, len(chunks), len(text))

	return chunks, text, nil
}

// buildPrompt assembles the policy prefix, the one-time introduction
// instruction, the order context block, the bounded history, and the new
// turn into a single prompt.
func (c *Composer) buildPrompt(session *domain.Session, turnText string, summary *domain.OrderSummary, firstTurn bool) string {
	customer := session.DisplayName()
	if customer == "" {
		customer = "não informado"
	}

	script := c.policy
	if script == "" {
		script = defaultPolicyScript
	}

	var b strings.Builder
	fmt.Fprintf(&b, script, c.agentName, c.storeName, customer)
	b.WriteString("\n")

	if firstTurn && !session.Greeted() {
		b.WriteString("\n")
		fmt.Fprintf(&b, introInstruction, c.agentName, c.storeName, customer)
		b.WriteString("\n")
	}

	if summary != nil {
		b.WriteString("\nPedido:\n")
		fmt.Fprintf(&b, "- Número: %s\n", summary.Number)
		fmt.Fprintf(&b, "- Status: %s\n", summary.Status)
		if summary.TrackingNumber != "" {
			fmt.Fprintf(&b, "- Rastreamento: %s\n", summary.TrackingNumber)
			fmt.Fprintf(&b, "- Link: %s\n", summary.TrackingURL)
			fmt.Fprintf(&b, "Diga algo como: \"O número de rastreamento é *%s*. Você pode acompanhá-lo no link abaixo:\" e então envie o link completo.\n", summary.TrackingNumber)
		} else {
			b.WriteString("- Rastreamento: não disponível\n")
		}
	}

	b.WriteString("\nHistórico:\n")
	for _, msg := range session.History() {
		speaker := "Cliente"
		if msg.Role == domain.ChatMessageRoleAgent {
			speaker = c.agentName
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, msg.Content)
	}

	fmt.Fprintf(&b, "\nNova mensagem:\n\"%s\"\n", turnText)
	fmt.Fprintf(&b, "\nResponda como *%s*, de forma empática, natural e breve (no máximo duas mensagens curtas). Foque apenas na última mensagem recebida; use o histórico apenas como contexto leve e não repita informações já confirmadas, a menos que a cliente peça novamente.\n", c.agentName)

	return b.String()
}

// SplitChunks splits text into chunks of at most limit runes, cutting at
// the nearest whitespace boundary at or before the limit so no word is
// split. A run longer than the limit with no whitespace is cut hard.
func SplitChunks(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}

		cut := -1
		for i := limit; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		if cut <= 0 {
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
			continue
		}

		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut+1:] // drop the single separator at the boundary
	}

	return chunks
}
