package sessionwatch

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinova/clinova/internal/platform/auth"
	"github.com/clinova/clinova/internal/platform/session"
)

// Event is pushed to the browser when the inactivity window progresses.
type Event struct {
	Type     string `json:"type"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// clientMessage is what the browser sends. Any recognized activity event
// (pointer, key, scroll, touch, click) arrives as action "activity".
type clientMessage struct {
	Action string `json:"action"`
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves one Monitor per websocket connection. The logout event
// revokes the session server-side before the client is told to navigate
// away, so the stale cookie cannot resolve on the next request.
type Handler struct {
	sessions session.Store
	cfg      Config
	logger   zerolog.Logger
}

func NewHandler(sessions session.Store, cfg Config, logger zerolog.Logger) *Handler {
	return &Handler{sessions: sessions, cfg: cfg, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/session", h.HandleConnect)
}

type client struct {
	ws      *gorillawebsocket.Conn
	send    chan Event
	monitor *Monitor

	mu     sync.Mutex
	closed bool
}

// enqueue drops the event if the client's buffer is full or the connection
// is already shutting down.
func (cl *client) enqueue(ev Event) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return
	}
	select {
	case cl.send <- ev:
	default:
	}
}

// shutdown cancels the monitor and closes the send channel exactly once.
// The write pump drains what is left and closes the socket.
func (cl *client) shutdown() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return
	}
	cl.closed = true
	cl.monitor.Stop()
	close(cl.send)
}

func (h *Handler) HandleConnect(c echo.Context) error {
	sessionID := auth.SessionIDFromContext(c.Request().Context())
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	userID := auth.UserIDFromContext(c.Request().Context())

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{ws: ws, send: make(chan Event, 8)}
	cl.monitor = Start(h.cfg, Hooks{
		OnWarning: func() {
			cl.enqueue(Event{
				Type:    "warning",
				Message: "Your session is about to expire.",
			})
		},
		OnLogout: func() {
			h.forceLogout(cl, sessionID, userID)
		},
	})

	h.logger.Debug().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Msg("session watch started")

	go h.writePump(cl)
	go h.readPump(cl, sessionID)
	return nil
}

// forceLogout runs the three logout effects in order: server-side
// revocation, user notice, forced navigation. A failing revocation still
// pushes the client to the login page; the leftover session is caught by
// store validation on its next request.
func (h *Handler) forceLogout(cl *client, sessionID, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.sessions.Revoke(ctx, sessionID); err != nil {
		h.logger.Error().Err(err).
			Str("session_id", sessionID).
			Msg("inactivity revocation failed")
	}

	h.logger.Info().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Msg("session expired from inactivity")

	cl.enqueue(Event{
		Type:     "logout",
		Message:  "You were signed out after a period of inactivity.",
		Redirect: "/login",
	})
	cl.shutdown()
}

func (h *Handler) readPump(cl *client, sessionID string) {
	defer func() {
		// Teardown is total: monitor stopped, channel closed, socket
		// closed by the write pump.
		cl.shutdown()
	}()

	for {
		_, message, err := cl.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Action == "activity" {
			cl.monitor.Activity()
		}
	}
}

func (h *Handler) writePump(cl *client) {
	defer cl.ws.Close()

	for ev := range cl.send {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := cl.ws.WriteMessage(gorillawebsocket.TextMessage, data); err != nil {
			return
		}
	}
}
