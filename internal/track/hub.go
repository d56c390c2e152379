package track

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Well-known topics published by the tracking server.
const (
	TopicUpdate         = "track.update"
	TopicActionDiscover = "track.action.discover"
	TopicActionLaunch   = "track.action.launch"
)

// Envelope is one event read off the server's event hub.
type Envelope struct {
	ID     string      `json:"id"`
	Topic  string      `json:"topic"`
	Data   EventData   `json:"data"`
	Source EventSource `json:"source"`
}

// EventData carries the topic-specific payload. Update events fill
// Entities; action launches fill Selection, ActionIdentifier and, on
// form submission, Values.
type EventData struct {
	Entities         []EntityChange         `json:"entities,omitempty"`
	Selection        []Selection            `json:"selection,omitempty"`
	ActionIdentifier string                 `json:"actionIdentifier,omitempty"`
	Values           map[string]interface{} `json:"values,omitempty"`
}

// EventSource identifies who triggered the event.
type EventSource struct {
	User EventUser `json:"user"`
}

// EventUser is the acting user on an event.
type EventUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// EntityChange describes one entity touched by an update event.
type EntityChange struct {
	EntityType string                 `json:"entity_type"`
	Action     string                 `json:"action"`
	EntityID   string                 `json:"entityId"`
	ParentID   string                 `json:"parentId,omitempty"`
	ParentType string                 `json:"parent_type,omitempty"`
	Changes    map[string]FieldChange `json:"changes,omitempty"`
}

// FieldChange holds the before and after values of one attribute.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Selection is one entity the user had selected when launching an
// action.
type Selection struct {
	EntityID   string `json:"entityId"`
	EntityType string `json:"entityType"`
}

// Handler processes one event. A non-nil return value is published as a
// reply to the event, which is how actions deliver forms and result
// messages.
type Handler func(ctx context.Context, ev Envelope) (interface{}, error)

type subscription struct {
	topic string
	fn    Handler
}

// Hub long-polls the server's event endpoint and dispatches envelopes
// to topic subscribers. Handler errors are logged and never stop the
// loop; only context cancellation ends Run.
type Hub struct {
	session      *Session
	logger       *slog.Logger
	subscriberID string
	retryDelay   time.Duration
	subs         []subscription
}

// NewHub creates an event hub reading from the given session's server.
func NewHub(session *Session, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		session:      session,
		logger:       logger,
		subscriberID: uuid.New().String(),
		retryDelay:   5 * time.Second,
	}
}

// Subscribe registers a handler for an exact topic. Subscribe must be
// called before Run.
func (h *Hub) Subscribe(topic string, fn Handler) {
	h.subs = append(h.subs, subscription{topic: topic, fn: fn})
}

// Run polls for events until ctx is cancelled. Transport errors are
// logged and retried after a short delay.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.Info("event hub listening",
		"server", h.session.BaseURL(),
		"subscriber", h.subscriberID,
		"topics", len(h.subs))

	for {
		envelopes, err := h.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.Warn("event read failed, retrying",
				"server", h.session.BaseURL(), "error", err)
			select {
			case <-time.After(h.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, ev := range envelopes {
			h.dispatch(ctx, ev)
		}
	}
}

func (h *Hub) poll(ctx context.Context) ([]Envelope, error) {
	req, err := h.session.newRequest(ctx, http.MethodGet,
		"/event/read?subscriber="+h.subscriberID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.session.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("event read request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("event endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		Events []Envelope `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode event batch: %w", err)
	}
	return payload.Events, nil
}

func (h *Hub) dispatch(ctx context.Context, ev Envelope) {
	for _, sub := range h.subs {
		if sub.topic != ev.Topic {
			continue
		}
		reply, err := sub.fn(ctx, ev)
		if err != nil {
			h.logger.Error("event handler failed",
				"topic", ev.Topic, "event", ev.ID, "error", err)
			continue
		}
		if reply == nil {
			continue
		}
		if err := h.reply(ctx, ev, reply); err != nil {
			h.logger.Error("event reply failed",
				"topic", ev.Topic, "event", ev.ID, "error", err)
		}
	}
}

// reply publishes a response envelope back to the event's source.
func (h *Hub) reply(ctx context.Context, ev Envelope, data interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"topic":             "track.reply",
		"in_reply_to_event": ev.ID,
		"data":              data,
	})
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}

	req, err := h.session.newRequest(ctx, http.MethodPost, "/event/publish", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.session.client.Do(req)
	if err != nil {
		return fmt.Errorf("event publish request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event publish returned status %d", resp.StatusCode)
	}
	return nil
}
