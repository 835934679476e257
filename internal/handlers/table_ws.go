// internal/handlers/table_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/fourcard/internal/assets"
	"github.com/jason-s-yu/fourcard/internal/deck"
	"github.com/jason-s-yu/fourcard/internal/middleware"
	"github.com/jason-s-yu/fourcard/internal/puzzle"
	"github.com/jason-s-yu/fourcard/internal/table"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the WebSocket subprotocol clients must request.
const Subprotocol = "table"

// TableMessage is an inbound message from the display page.
type TableMessage struct {
	Type string `json:"type"`

	// Slot, Path and Reason describe an image that failed to load (asset_error).
	Slot   int    `json:"slot,omitempty"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason,omitempty"`

	// Theme selects the theme for following rounds (theme).
	Theme string `json:"theme,omitempty"`

	// Answer is the expression to judge (check); All asks for every solution (help).
	Answer string `json:"answer,omitempty"`
	All    bool   `json:"all,omitempty"`
}

// SlotMessage assigns an image path to a display slot.
type SlotMessage struct {
	Type string `json:"type"`
	Slot int    `json:"slot"`
	Path string `json:"path"`
}

// RoundMessage announces a completed round after its slots were sent.
type RoundMessage struct {
	Type string `json:"type"`
	roundView
}

// CheckMessage carries the verdict on a "check" answer.
type CheckMessage struct {
	Type   string        `json:"type"`
	Result puzzle.Result `json:"result"`
}

// HelpMessage carries solutions for the current hand.
type HelpMessage struct {
	Type string `json:"type"`
	helpResponse
}

// wsSink is a table.Sink that forwards slot assignments over the connection.
type wsSink struct {
	ctx context.Context
	c   *websocket.Conn
}

func (s wsSink) SetSlotImage(slot int, path string) error {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(ctx, s.c, SlotMessage{Type: "set_slot", Slot: slot, Path: path})
}

// TableWSHandler upgrades to a WebSocket that drives one table. The page sends
// "ready" once loaded and "new_round" on every button press; each deals a
// round whose slots are pushed back as set_slot messages.
func TableWSHandler(logger *logrus.Logger, s *TableServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		theme, err := s.Themes.Lookup(r.URL.Query().Get("theme"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		tableID, err := EnsureTableSession(w, r)
		if err != nil {
			logger.Errorf("failed to establish table session: %v", err)
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols: []string{Subprotocol},
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for table %s: %v", tableID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != Subprotocol {
			logger.Warnf("Client for table %s connected with invalid subprotocol: %q", tableID, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'table' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		t := s.tableFor(tableID, theme)
		t.SetTheme(theme)
		t.Attach()
		defer t.Detach()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		err = readTableMessages(ctx, c, t, s.Themes, logger)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
		if err == nil {
			c.Close(websocket.StatusNormalClosure, "")
		}
	}
}

// readTableMessages reads client messages until the connection closes and
// routes each one to the table. It returns nil on a normal closure.
func readTableMessages(ctx context.Context, c *websocket.Conn, t *table.Table, themes *assets.Themes, logger *logrus.Logger) error {
	sink := wsSink{ctx: ctx, c: c}
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d for table %s. Ignoring.", msgType, t.ID)
			continue
		}

		var msg TableMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON received for table %s: %v", t.ID, err)
			sendWsError(ctx, c, logger, "Invalid JSON format.")
			continue
		}

		logger.Debugf("Received '%s' for table %s.", clipMessageType(msg.Type), t.ID)

		switch msg.Type {
		case string(table.TriggerReady), string(table.TriggerNewRound):
			round, err := t.Handle(ctx, table.Trigger(msg.Type), sink)
			if err != nil {
				sendWsError(ctx, c, logger, err.Error())
				continue
			}
			sendWsMessage(ctx, c, logger, RoundMessage{Type: "round", roundView: newRoundView(round)})

		case "asset_error":
			if err := checkAssetError(msg); err != nil {
				sendWsError(ctx, c, logger, err.Error())
				continue
			}
			t.ReportAssetError(msg.Slot, msg.Path, msg.Reason)

		case "theme":
			th, err := themes.Lookup(msg.Theme)
			if err != nil {
				sendWsError(ctx, c, logger, err.Error())
				continue
			}
			t.SetTheme(th)
			sendWsMessage(ctx, c, logger, map[string]string{"type": "theme", "theme": t.Theme().Name})

		case "check":
			values, err := tableValues(t)
			if err != nil {
				sendWsError(ctx, c, logger, err.Error())
				continue
			}
			sendWsMessage(ctx, c, logger, CheckMessage{Type: "check", Result: puzzle.Check(values, msg.Answer)})

		case "help":
			values, err := tableValues(t)
			if err != nil {
				sendWsError(ctx, c, logger, err.Error())
				continue
			}
			sendWsMessage(ctx, c, logger, HelpMessage{Type: "help", helpResponse: newHelpResponse(values, msg.All)})

		case "restart":
			t.Reset()
			sendWsMessage(ctx, c, logger, map[string]string{"type": "restarted"})

		case "ping":
			sendWsMessage(ctx, c, logger, map[string]string{"type": "pong"})

		default:
			logger.Warnf("Unknown message type '%s' for table %s.", clipMessageType(msg.Type), t.ID)
			sendWsError(ctx, c, logger, fmt.Sprintf("Unknown message type: %s", clipMessageType(msg.Type)))
		}
	}
}

// checkAssetError rejects load-failure reports that do not name a display
// slot and a card image.
func checkAssetError(msg TableMessage) error {
	if msg.Slot < 0 || msg.Slot >= deck.HandSize {
		return fmt.Errorf("asset_error: slot %d out of range", msg.Slot)
	}
	if _, err := deck.ParseCode(path.Base(msg.Path)); err != nil {
		return fmt.Errorf("asset_error: %w", deck.ErrInvalidCode)
	}
	return nil
}

// clipMessageType bounds an unknown client message type before it is echoed or logged.
func clipMessageType(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}

// sendWsMessage writes a JSON message with a write timeout. Write errors are
// only logged; the read loop notices a dead connection on its own.
func sendWsMessage(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, message interface{}) {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := wsjson.Write(writeCtx, c, message); err != nil {
		logger.Debugf("Error writing WebSocket message: %v", err)
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, errorMsg string) {
	sendWsMessage(ctx, c, logger, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
