package http

// HTTP request DTOs for the WhatsApp Cloud API webhook

type (
	// WebhookPayload struct - top-level webhook request DTO
	WebhookPayload struct {
		Object string         `json:"object" validate:"required"`
		Entry  []WebhookEntry `json:"entry" validate:"omitempty,dive"`
	}

	// WebhookEntry struct
	WebhookEntry struct {
		ID      string          `json:"id"`
		Changes []WebhookChange `json:"changes"`
	}

	// WebhookChange struct
	WebhookChange struct {
		Field string       `json:"field"`
		Value WebhookValue `json:"value"`
	}

	// WebhookValue struct - one batch of message events and contacts
	WebhookValue struct {
		MessagingProduct string           `json:"messaging_product"`
		Contacts         []WebhookContact `json:"contacts"`
		Messages         []WebhookMessage `json:"messages"`
	}

	// WebhookContact struct
	WebhookContact struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	}

	// WebhookMessage struct - one inbound message event
	WebhookMessage struct {
		From      string           `json:"from"`
		ID        string           `json:"id"`
		Timestamp string           `json:"timestamp"` // unix seconds, as string
		Type      string           `json:"type"`
		Text      *WebhookText     `json:"text"`
		Audio     *WebhookMedia    `json:"audio"`
		Image     *WebhookMedia    `json:"image"`
		Video     *WebhookMedia    `json:"video"`
		Document  *WebhookMedia    `json:"document"`
		Sticker   *WebhookMedia    `json:"sticker"`
	}

	// WebhookText struct
	WebhookText struct {
		Body string `json:"body"`
	}

	// WebhookMedia struct
	WebhookMedia struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
		Caption  string `json:"caption"`
	}
)
