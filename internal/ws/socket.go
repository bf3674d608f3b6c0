package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"messenger-service/internal/calls"
	"messenger-service/internal/chat"
	"messenger-service/internal/middleware"
	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/presence"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

// SocketHandler owns the websocket endpoint: handshake, personal-room join,
// the inbound event loop, and disconnect cleanup.
type SocketHandler struct {
	hub       *Hub
	tracker   *presence.Tracker
	lifecycle *chat.Lifecycle
	engine    *calls.Engine
	users     repositories.UserRepository
	events    rabbitmq.Publisher
	jwtSecret []byte
	log       zerolog.Logger
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(
	hub *Hub,
	tracker *presence.Tracker,
	lifecycle *chat.Lifecycle,
	engine *calls.Engine,
	users repositories.UserRepository,
	events rabbitmq.Publisher,
	jwtSecret []byte,
	log zerolog.Logger,
) *SocketHandler {
	return &SocketHandler{
		hub:       hub,
		tracker:   tracker,
		lifecycle: lifecycle,
		engine:    engine,
		users:     users,
		events:    events,
		jwtSecret: jwtSecret,
		log:       log,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handle upgrades the connection, joins the user's personal room, and runs
// the event loop until the peer goes away.
func (h *SocketHandler) Handle(c *gin.Context) {
	_, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	token := c.GetHeader("Authorization")
	if token == "" {
		token = "Bearer " + c.Query("token")
	}
	userID, err := h.authenticate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		PushToken:   observability.PushTokenFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, info)

	// The request context dies when this handler returns a hijacked
	// connection; socket work gets its own.
	ctx := context.Background()

	h.hub.AddUser(userID, client)
	h.registerDevice(ctx, info)
	h.tracker.Connected(ctx, userID)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishConnEvent(ctx, info, "ws_connect", "")

	h.readLoop(ctx, client)
}

func (h *SocketHandler) authenticate(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) {
		return "", errors.New("missing token")
	}
	return middleware.UserIDFromToken(h.jwtSecret, header[len(prefix):])
}

func (h *SocketHandler) registerDevice(ctx context.Context, info ConnInfo) {
	if info.DeviceID == "" {
		return
	}
	err := h.users.UpsertDevice(ctx, models.Device{
		UserID:      info.UserID,
		DeviceID:    info.DeviceID,
		PushToken:   info.PushToken,
		LastLoginAt: time.Now().UTC(),
	})
	if err != nil {
		h.log.Error().Err(err).Str("user_id", info.UserID).Str("device_id", info.DeviceID).Msg("device upsert failed")
	}
}

func (h *SocketHandler) readLoop(ctx context.Context, client *Client) {
	info := client.Info()
	var closeReason string
	defer func() {
		h.hub.LeaveAllChats(client)
		h.hub.RemoveUser(info.UserID, client)
		h.tracker.Disconnected(ctx, info.UserID)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishConnEvent(ctx, info, "ws_disconnect", closeReason)
		client.Close()
	}()

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		var evt inboundEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			h.reject(client, "malformed event")
			continue
		}

		observability.IncWSEvent(evt.Event)
		// One bad event must not take the connection down.
		if err := h.dispatch(ctx, client, evt); err != nil {
			h.log.Error().Err(err).Str("event", evt.Event).Str("user_id", info.UserID).Msg("socket event failed")
			h.reject(client, "failed to process "+evt.Event)
		}
	}
}

func (h *SocketHandler) dispatch(ctx context.Context, client *Client, evt inboundEvent) error {
	switch evt.Event {
	case models.EvJoinChat:
		var chatID string
		if err := json.Unmarshal(evt.Data, &chatID); err != nil {
			return err
		}
		h.hub.JoinChat(chatID, client)
		return nil

	case models.EvLeaveChat:
		var chatID string
		if err := json.Unmarshal(evt.Data, &chatID); err != nil {
			return err
		}
		h.hub.LeaveChat(chatID, client)
		return nil

	case models.EvTyping:
		var p models.TypingPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return err
		}
		h.hub.BroadcastToChatExcept(p.ChatID, client, models.EvUserTyping, p)
		return nil

	case models.EvStopTyping:
		var p models.TypingPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return err
		}
		h.hub.BroadcastToChatExcept(p.ChatID, client, models.EvUserStopped, p)
		return nil

	case models.EvMarkDelivered:
		var p models.DeliveryPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return err
		}
		return h.lifecycle.MarkDelivered(ctx, p.SenderID, p.ReceiverID, p.ChatID, p.MessageID)

	case models.EvMarkRead:
		var p models.DeliveryPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return err
		}
		// The reader is the receiver of the unread messages.
		return h.lifecycle.MarkRead(ctx, p.ReceiverID, p.ChatID)

	case models.EvOffer:
		var p models.OfferSignal
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return err
		}
		if p.From == "" {
			p.From = client.UserID()
		}
		return h.engine.HandleOffer(ctx, p)

	case models.EvAnswer:
		var p models.AnswerSignal
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return err
		}
		if p.From == "" {
			p.From = client.UserID()
		}
		return h.engine.HandleAnswer(ctx, p)

	case models.EvIceCandidate:
		var p models.IceSignal
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return err
		}
		h.engine.RelayICE(p)
		return nil

	case models.EvEndCall:
		var p models.EndCallSignal
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return err
		}
		return h.engine.EndCall(ctx, p)

	default:
		h.log.Debug().Str("event", evt.Event).Msg("unknown socket event")
		return nil
	}
}

func (h *SocketHandler) reject(client *Client, message string) {
	if err := client.Send(models.EvError, models.ErrorPayload{Message: message}); err != nil {
		h.log.Warn().Err(err).Str("conn_id", client.ID()).Msg("error event write failed")
	}
}

func (h *SocketHandler) publishConnEvent(ctx context.Context, info ConnInfo, name, reason string) {
	if h.events == nil {
		return
	}
	err := h.events.Publish(ctx, "ws_events.messenger", telemetry.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: map[string]any{
			"conn_id":     info.ConnID,
			"user_id":     info.UserID,
			"device_id":   info.DeviceID,
			"ip":          info.IP,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
	})
	if err != nil {
		h.log.Warn().Err(err).Str("event", name).Msg("ws event publish failed")
	}
}
