// Package relay forwards inbound messages to the Core webhook, best effort.
package relay

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omnichat/telegram-adapter/internal/metrics"
	"github.com/omnichat/telegram-adapter/tgclient"
)

const deliveryTimeout = 10 * time.Second

// Payload is the normalized webhook body delivered to Core.
type Payload struct {
	SessionID string      `json:"sessionId"`
	Event     string      `json:"event"`
	Data      MessageData `json:"data"`
}

type MessageData struct {
	ID             int    `json:"id"`
	Text           string `json:"text"`
	Date           int64  `json:"date"`
	SenderID       string `json:"senderId"`
	SenderName     string `json:"senderName"`
	SenderUsername string `json:"senderUsername"`
	SenderPhone    string `json:"senderPhone"`
}

type Relay struct {
	client     *resty.Client
	webhookURL string
	log        zerolog.Logger
}

func New(webhookURL string, log zerolog.Logger) *Relay {
	return &Relay{
		client:     resty.New().SetTimeout(deliveryTimeout),
		webhookURL: webhookURL,
		log:        log.With().Str("component", "relay").Logger(),
	}
}

// Forward delivers one inbound message to Core. A failed delivery (transport
// error or non-2xx) is logged and dropped: no retry, no queue, no effect on
// the session's connection or auth state.
func (r *Relay) Forward(ctx context.Context, sessionID string, msg tgclient.Message) {
	log := r.log.With().
		Str("session_id", sessionID).
		Str("delivery_id", uuid.New().String()).
		Int("message_id", msg.ID).
		Logger()

	log.Debug().Str("sender", msg.Sender.Name).Msg("Forwarding message to Core")

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(BuildPayload(sessionID, msg)).
		Post(r.webhookURL)
	if err != nil {
		metrics.MessagesDropped.Inc()
		log.Error().Err(err).Msg("Webhook delivery failed, dropping message")
		return
	}
	if resp.IsError() {
		metrics.MessagesDropped.Inc()
		log.Error().Int("status", resp.StatusCode()).Msg("Core rejected webhook, dropping message")
		return
	}
	metrics.MessagesRelayed.Inc()
}

// BuildPayload normalizes an inbound message for Core.
func BuildPayload(sessionID string, msg tgclient.Message) Payload {
	return Payload{
		SessionID: sessionID,
		Event:     "message",
		Data: MessageData{
			ID:             msg.ID,
			Text:           msg.Text,
			Date:           msg.Date,
			SenderID:       strconv.FormatInt(msg.Sender.ID, 10),
			SenderName:     msg.Sender.Name,
			SenderUsername: msg.Sender.Username,
			SenderPhone:    msg.Sender.Phone,
		},
	}
}
