package server

import (
	"net/http"
	"strings"
	"time"

	"harbormaster/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Allow connections without origin header (e.g., CLI tools)
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
			"http://[::1]",
			"https://[::1]",
		}
		for _, allowed := range allowedOrigins {
			if strings.HasPrefix(origin, allowed) {
				return true
			}
		}

		logger.WithFields(logger.Fields{
			"origin": origin,
			"remote": r.RemoteAddr,
		}).Warn("WebSocket connection rejected - invalid origin")
		return false
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const logStreamInterval = 2 * time.Second

// LogStreamMessage is one websocket frame of appended log output.
type LogStreamMessage struct {
	Container string `json:"container"`
	Logs      string `json:"logs,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleLogStream upgrades to a websocket and pushes container log output
// for a project as it grows, polling the runtime at a fixed interval.
func (s *Server) handleLogStream(c echo.Context) error {
	name := c.Param("name")
	if _, err := s.ops.GetProject(name); err != nil {
		return handleError(err)
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "websocket upgrade failed")
	}
	defer ws.Close()

	ctx := c.Request().Context()
	ticker := time.NewTicker(logStreamInterval)
	defer ticker.Stop()

	// Drain client frames so close messages are processed.
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sent := map[string]string{}
	for {
		entries, err := s.ops.GetProjectLogs(ctx, name, 0)
		if err != nil {
			ws.WriteJSON(LogStreamMessage{Error: err.Error()})
			return nil
		}
		for _, entry := range entries {
			if entry.Error != "" {
				if sent[entry.ContainerID] != entry.Error {
					sent[entry.ContainerID] = entry.Error
					if err := ws.WriteJSON(LogStreamMessage{Container: entry.ContainerID, Error: entry.Error}); err != nil {
						return nil
					}
				}
				continue
			}
			delta := appendedSince(sent[entry.ContainerID], entry.Logs)
			if delta == "" {
				continue
			}
			sent[entry.ContainerID] = entry.Logs
			if err := ws.WriteJSON(LogStreamMessage{Container: entry.ContainerID, Logs: delta}); err != nil {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// appendedSince returns the part of current not yet covered by previous.
// The tail window slides, so previous may no longer be a prefix; in that
// case the full current snapshot is returned rather than guessing overlap.
func appendedSince(previous, current string) string {
	if current == previous {
		return ""
	}
	if previous != "" && strings.HasPrefix(current, previous) {
		return current[len(previous):]
	}
	return current
}
