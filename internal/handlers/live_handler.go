package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/foroapp/server/internal/helpers"
	"github.com/foroapp/server/internal/live"
	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Cross-origin policy is handled by the CORS middleware; the
		// cookie-based auth already gates the upgrade.
		return true
	},
}

const (
	pingPeriod = 30 * time.Second
	readWait   = 60 * time.Second
)

// MyEventsStream upgrades to a WebSocket and streams the caller's live
// "events I attend" view plus the participation summary. The per-user
// synchronizer and tracker are scoped to the connection and torn down,
// subscriptions first, when it closes.
func MyEventsStream(es *services.EventService, as *services.AttendanceService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := sessionClaims(c)
		if !ok {
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Error("WebSocket upgrade failed", "error", err, "user_id", claims.UserID)
			return
		}
		defer ws.Close()

		vs := live.NewViewSynchronizer(es, as, claims.UserID, logger)
		if err := vs.Start(c.Request.Context()); err != nil {
			logger.Error("view synchronizer start failed", "error", err, "user_id", claims.UserID)
			ws.WriteJSON(gin.H{"error": "failed to subscribe to events"})
			return
		}
		defer vs.Close()

		pt := live.NewParticipationTracker(es, as, logger)
		if err := pt.Start(c.Request.Context()); err != nil {
			logger.Error("participation tracker start failed", "error", err, "user_id", claims.UserID)
			ws.WriteJSON(gin.H{"error": "failed to subscribe to events"})
			return
		}
		defer pt.Close()

		done := readUntilClose(ws, logger, claims.UserID)
		pingTicker := time.NewTicker(pingPeriod)
		defer pingTicker.Stop()

		for {
			select {
			case update, ok := <-vs.Updates():
				if !ok {
					return
				}
				if err := ws.WriteJSON(gin.H{"type": "my_events", "events": update.Events, "round": update.Round}); err != nil {
					logger.Error("WebSocket write error", "error", err, "user_id", claims.UserID)
					return
				}
			case summary, ok := <-pt.Updates():
				if !ok {
					return
				}
				if err := ws.WriteJSON(gin.H{"type": "participation", "total_events": summary.TotalEvents, "total_attendances": summary.TotalAttendances}); err != nil {
					logger.Error("WebSocket write error", "error", err, "user_id", claims.UserID)
					return
				}
			case <-pingTicker.C:
				if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}

// AttendeeCountStream streams one event's live attendee count through
// the shared refcounted pool.
func AttendeeCountStream(pool *live.CountPool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID := helpers.StringTrim(c.Param("id"))
		if eventID == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("event ID is required"))
			return
		}
		claims, ok := sessionClaims(c)
		if !ok {
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Error("WebSocket upgrade failed", "error", err, "user_id", claims.UserID)
			return
		}
		defer ws.Close()

		type countMsg struct {
			count int
			err   error
		}
		counts := make(chan countMsg, 1)
		handle, err := pool.Acquire(c.Request.Context(), eventID, func(count int, err error) {
			// Latest-wins: a slow socket only ever misses intermediate
			// counts, never the final one.
			for {
				select {
				case counts <- countMsg{count, err}:
					return
				default:
					select {
					case <-counts:
					default:
					}
				}
			}
		})
		if err != nil {
			logger.Error("count subscription failed", "error", err, "event_id", eventID)
			ws.WriteJSON(gin.H{"error": "failed to subscribe to attendee count"})
			return
		}
		defer handle.Release()

		done := readUntilClose(ws, logger, claims.UserID)
		pingTicker := time.NewTicker(pingPeriod)
		defer pingTicker.Stop()

		for {
			select {
			case msg := <-counts:
				frame := gin.H{"type": "count", "event_id": eventID}
				if msg.err != nil {
					frame["error"] = msg.err.Error()
				} else {
					frame["count"] = msg.count
				}
				if err := ws.WriteJSON(frame); err != nil {
					return
				}
			case <-pingTicker.C:
				if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}

func sessionClaims(c *gin.Context) (*helpers.SessionClaims, bool) {
	userClaims, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
		return nil, false
	}
	claims, ok := userClaims.(*helpers.SessionClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("invalid user claims"))
		return nil, false
	}
	return claims, true
}

// readUntilClose drains the socket so close frames and pongs are
// processed, signalling on the returned channel when the peer goes away.
func readUntilClose(ws *websocket.Conn, logger *slog.Logger, userID string) <-chan struct{} {
	done := make(chan struct{})
	ws.SetReadLimit(1024)
	ws.SetReadDeadline(time.Now().Add(readWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Error("WebSocket read error", "error", err, "user_id", userID)
				}
				return
			}
		}
	}()
	return done
}
