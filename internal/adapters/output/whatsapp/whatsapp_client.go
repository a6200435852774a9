package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JoaoVlLeao/wpp-gemini-bot/configs"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure WhatsAppClientAdapter implements the output port
var _ output.ChannelClient = (*WhatsAppClientAdapter)(nil)

// WhatsAppClientAdapter struct - Output adapter for the WhatsApp Business
// Cloud API (Graph HTTP). Sends are best-effort: callers log failures and
// never retry, to avoid duplicate messages.
type WhatsAppClientAdapter struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	phoneNumberID string
}

// NewWhatsAppClientAdapter func - Creates new WhatsApp Cloud API client adapter
func NewWhatsAppClientAdapter(config configs.WhatsApp) (*WhatsAppClientAdapter, error) {
	if config.AccessToken == "" || config.PhoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp access token and phone number id are required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	apiVersion := config.APIVersion
	if apiVersion == "" {
		apiVersion = "v19.0"
	}

	return &WhatsAppClientAdapter{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:       fmt.Sprintf("%s/%s", baseURL, apiVersion),
		accessToken:   config.AccessToken,
		phoneNumberID: config.PhoneNumberID,
	}, nil
}

// SendText sends one outbound text message to a conversation
func (a *WhatsAppClientAdapter) SendText(ctx context.Context, conversationID, text string) error {
	payload := outgoingMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               conversationID,
		Type:             "text",
		Text:             &textPayload{PreviewURL: true, Body: text},
	}

	if err := a.postMessages(ctx, payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrChannelSend, err)
	}

	logrus.Infof("Sent text message to %s (%d chars)", conversationID, len(text))
	return nil
}

// MarkTyping marks the triggering inbound message as read and shows a
// typing indicator. The Cloud API clears the indicator automatically when
// the next message is sent.
func (a *WhatsAppClientAdapter) MarkTyping(ctx context.Context, messageID string) error {
	payload := outgoingMessageRequest{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
		TypingIndicator:  &typingIndicatorPayload{Type: "text"},
	}

	if err := a.postMessages(ctx, payload); err != nil {
		return fmt.Errorf("failed to set typing indicator: %w", err)
	}
	return nil
}

// DownloadMedia resolves a media identifier to its download URL and
// fetches the raw bytes and MIME type.
func (a *WhatsAppClientAdapter) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	url := fmt.Sprintf("%s/%s", a.baseURL, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create media metadata request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch media metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("media metadata request failed: status %d - %s", resp.StatusCode, string(body))
	}

	var meta mediaMetadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, "", fmt.Errorf("failed to parse media metadata: %w", err)
	}
	if meta.URL == "" {
		return nil, "", fmt.Errorf("media %s has no download url", mediaID)
	}

	dlReq, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create media download request: %w", err)
	}
	dlReq.Header.Set("Authorization", "Bearer "+a.accessToken)

	dlResp, err := a.httpClient.Do(dlReq)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download media: %w", err)
	}
	defer dlResp.Body.Close()

	if dlResp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download failed: status %d", dlResp.StatusCode)
	}

	data, err := io.ReadAll(dlResp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}

	logrus.Infof("Downloaded media %s (%s, %d bytes)", mediaID, meta.MimeType, len(data))

	return data, meta.MimeType, nil
}

// postMessages POSTs a payload to the phone number's /messages endpoint
func (a *WhatsAppClientAdapter) postMessages(ctx context.Context, payload outgoingMessageRequest) error {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", a.baseURL, a.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("graph api returned status %d - %s", resp.StatusCode, string(body))
	}

	return nil
}

// API request/response structures for the WhatsApp Cloud API

type textPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type typingIndicatorPayload struct {
	Type string `json:"type"`
}

type outgoingMessageRequest struct {
	MessagingProduct string                  `json:"messaging_product"`
	RecipientType    string                  `json:"recipient_type,omitempty"`
	To               string                  `json:"to,omitempty"`
	Type             string                  `json:"type,omitempty"`
	Text             *textPayload            `json:"text,omitempty"`
	Status           string                  `json:"status,omitempty"`
	MessageID        string                  `json:"message_id,omitempty"`
	TypingIndicator  *typingIndicatorPayload `json:"typing_indicator,omitempty"`
}

type mediaMetadataResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	ID       string `json:"id"`
}
