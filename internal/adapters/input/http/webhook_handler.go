package http

import (
	"strconv"
	"time"

	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/ports/input"
	"github.com/JoaoVlLeao/wpp-gemini-bot/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// WebhookHandler struct - Primary/Driving adapter for the WhatsApp Cloud
// API webhook
type WebhookHandler struct {
	service     input.ChatService
	verifyToken string
	validator   validator.Validator
}

// NewWebhookHandler func - Creates new webhook handler
func NewWebhookHandler(service input.ChatService, verifyToken string) *WebhookHandler {
	return &WebhookHandler{
		service:     service,
		verifyToken: verifyToken,
		validator:   validator.New(),
	}
}

// VerifyWebhook func - Answers the Cloud API subscription challenge
// @Summary WhatsApp webhook verification
// @Description Echoes the hub.challenge when the verify token matches
// @Tags WhatsApp
// @Produce plain
// @Success 200 {string} string
// @Router /webhook/whatsapp [get]
func (h *WebhookHandler) VerifyWebhook(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		logrus.Warnf("Webhook verification rejected: mode=%s", mode)
		return c.Status(fiber.StatusForbidden).JSON(ResponseBody{Status: Forbidden})
	}

	logrus.Info("Webhook verified")
	return c.Status(fiber.StatusOK).SendString(challenge)
}

// HandleWebhook func - Handles incoming WhatsApp webhook events
// @Summary WhatsApp Webhook
// @Description Handles message events from the WhatsApp Business Cloud API
// @Tags WhatsApp
// @Accept application/json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /webhook/whatsapp [post]
func (h *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		logrus.Errorf("Failed to parse webhook payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(ResponseBody{Status: BadRequest})
	}
	if err := h.validator.ValidateStruct(payload); err != nil {
		logrus.Errorf("Invalid webhook payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(ResponseBody{Status: BadRequest})
	}

	for _, msg := range h.collectInbound(payload) {
		if err := h.service.HandleInbound(msg); err != nil {
			// Log and keep going: answering non-200 would make the
			// Cloud API redeliver the whole batch.
			logrus.Errorf("Failed to handle inbound message %s: %v", msg.MessageID, err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success})
}

// collectInbound flattens the webhook envelope into domain inbound events
func (h *WebhookHandler) collectInbound(payload WebhookPayload) []domain.InboundMessage {
	var inbound []domain.InboundMessage

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			names := contactNames(change.Value.Contacts)
			for _, msg := range change.Value.Messages {
				inbound = append(inbound, h.convertMessage(msg, names[msg.From]))
			}
		}
	}

	return inbound
}

// convertMessage - Converts a webhook message to a domain inbound event
func (h *WebhookHandler) convertMessage(msg WebhookMessage, displayName string) domain.InboundMessage {
	event := domain.InboundMessage{
		ConversationID: msg.From,
		MessageID:      msg.ID,
		DisplayName:    displayName,
		Timestamp:      parseTimestamp(msg.Timestamp),
	}

	switch msg.Type {
	case "text":
		event.Type = domain.InboundMessageTypeText
		if msg.Text != nil {
			event.Text = msg.Text.Body
		}
	case "audio":
		event.Type = domain.InboundMessageTypeAudio
		applyMedia(&event, msg.Audio)
	case "image":
		event.Type = domain.InboundMessageTypeImage
		applyMedia(&event, msg.Image)
	case "video":
		event.Type = domain.InboundMessageTypeVideo
		applyMedia(&event, msg.Video)
	case "document":
		event.Type = domain.InboundMessageTypeDocument
		applyMedia(&event, msg.Document)
	case "sticker":
		event.Type = domain.InboundMessageTypeSticker
		applyMedia(&event, msg.Sticker)
	default:
		logrus.Infof("Unsupported message type: %s", msg.Type)
		event.Type = domain.InboundMessageTypeUnknown
	}

	return event
}

func applyMedia(event *domain.InboundMessage, media *WebhookMedia) {
	if media == nil {
		return
	}
	event.MediaID = media.ID
	event.MimeType = media.MimeType
	event.Text = media.Caption
}

func contactNames(contacts []WebhookContact) map[string]string {
	names := make(map[string]string, len(contacts))
	for _, contact := range contacts {
		if contact.Profile.Name != "" {
			names[contact.WaID] = contact.Profile.Name
		}
	}
	return names
}

func parseTimestamp(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(secs, 0)
}
