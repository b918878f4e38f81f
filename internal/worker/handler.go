// Package worker turns order events into customer notifications.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/meyshop/internal/domain"
	"github.com/joao-fontenele/meyshop/internal/messaging"
)

type NotificationHandler struct {
	emailServiceURL string
	shopName        string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewNotificationHandler(emailServiceURL, shopName string, client *http.Client, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		emailServiceURL: emailServiceURL,
		shopName:        shopName,
		httpClient:      client,
		logger:          logger,
	}
}

type emailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Handle sends the email matching the event. Undecodable events, unknown types and
// events without a recipient are logged and skipped; a failing email service is returned
// so the message is retried.
func (h *NotificationHandler) Handle(ctx context.Context, d messaging.Delivery) error {
	var event domain.OrderEvent
	if err := json.Unmarshal(d.Payload, &event); err != nil {
		h.logger.WarnContext(ctx, "skipping undecodable order event", "error", err, "key", d.Key)
		return nil
	}

	if d.EventType != "" && domain.OrderEventType(d.EventType) != event.Type {
		h.logger.WarnContext(ctx, "event type header does not match payload",
			"header", d.EventType, "payload", event.Type, "order_id", event.OrderID)
	}

	msg, ok := h.compose(event)
	if !ok {
		h.logger.InfoContext(ctx, "ignoring order event", "event_type", event.Type, "order_id", event.OrderID)
		return nil
	}

	if msg.To == "" {
		h.logger.WarnContext(ctx, "order event has no recipient", "event_type", event.Type, "order_id", event.OrderID)
		return nil
	}

	if err := h.sendEmail(ctx, msg); err != nil {
		h.logger.ErrorContext(ctx, "failed to send notification", "error", err,
			"event_type", event.Type, "order_id", event.OrderID)
		return fmt.Errorf("send %s notification: %w", event.Type, err)
	}

	h.logger.InfoContext(ctx, "notification sent", "event_type", event.Type, "order_id", event.OrderID)
	return nil
}

func (h *NotificationHandler) compose(event domain.OrderEvent) (emailRequest, bool) {
	greeting := "Hi"
	if event.Name != "" {
		greeting = "Hi " + event.Name
	}

	switch event.Type {
	case domain.OrderEventCreated:
		return emailRequest{
			To:      event.Email,
			Subject: fmt.Sprintf("%s order confirmation: %s", h.shopName, event.OrderID),
			Body: fmt.Sprintf("%s,\n\nwe received your order %s with %d item(s), total %s.",
				greeting, event.OrderID, event.ItemCount, event.TotalPrice.StringFixed(2)),
		}, true

	case domain.OrderEventPaid:
		return emailRequest{
			To:      event.Email,
			Subject: fmt.Sprintf("%s payment receipt: %s", h.shopName, event.OrderID),
			Body: fmt.Sprintf("%s,\n\nyour payment of %s for order %s was received on %s.",
				greeting, event.TotalPrice.StringFixed(2), event.OrderID, event.Timestamp.Format("2006-01-02 15:04 MST")),
		}, true

	case domain.OrderEventDelivered:
		return emailRequest{
			To:      event.Email,
			Subject: fmt.Sprintf("%s order delivered: %s", h.shopName, event.OrderID),
			Body:    fmt.Sprintf("%s,\n\nyour order %s has been delivered.", greeting, event.OrderID),
		}, true

	default:
		return emailRequest{}, false
	}
}

func (h *NotificationHandler) sendEmail(ctx context.Context, msg emailRequest) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
