// internal/handlers/table_ws_test.go
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/fourcard/internal/puzzle"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsReply is a superset of every server message.
type wsReply struct {
	Type     string `json:"type"`
	Slot     int    `json:"slot"`
	Path     string `json:"path"`
	Seq      int    `json:"seq"`
	Theme    string `json:"theme"`
	Question string `json:"question"`
	Message  string `json:"message"`
	Values   []int  `json:"values"`

	Result      puzzle.Result `json:"result"`
	Solutions   []string      `json:"solutions"`
	HasSolution bool          `json:"has_solution"`
	Images   []struct {
		Code string `json:"code"`
		URL  string `json:"url"`
	} `json:"images"`
}

func dialTable(t *testing.T, srv *httptest.Server, query string) (*websocket.Conn, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/table/ws" + query
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{Subprotocol}})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c, ctx
}

func readReply(t *testing.T, ctx context.Context, c *websocket.Conn) wsReply {
	t.Helper()
	var r wsReply
	require.NoError(t, wsjson.Read(ctx, c, &r))
	return r
}

// readRound reads the four set_slot messages and the round summary that follows.
func readRound(t *testing.T, ctx context.Context, c *websocket.Conn) ([]wsReply, wsReply) {
	t.Helper()
	var slots []wsReply
	for i := 0; i < 4; i++ {
		msg := readReply(t, ctx, c)
		require.Equal(t, "set_slot", msg.Type)
		slots = append(slots, msg)
	}
	round := readReply(t, ctx, c)
	require.Equal(t, "round", round.Type)
	return slots, round
}

func TestTableWSReadyAndNewRound(t *testing.T) {
	s := newTestTableServer(t)
	srv := httptest.NewServer(s.Routes(t.TempDir()))
	defer srv.Close()

	c, ctx := dialTable(t, srv, "")

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "ready"}))
	slots, round := readRound(t, ctx, c)
	assert.Equal(t, 1, round.Seq)
	assert.Equal(t, "classic", round.Theme)
	for i, sl := range slots {
		assert.Equal(t, i, sl.Slot)
		assert.Regexp(t, assetURLPattern, sl.Path)
		assert.Equal(t, round.Images[i].URL, sl.Path)
	}

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "new_round"}))
	_, round2 := readRound(t, ctx, c)
	assert.Equal(t, 2, round2.Seq)
}

func TestTableWSThemeSwitch(t *testing.T) {
	s := newTestTableServer(t)
	srv := httptest.NewServer(s.Routes(t.TempDir()))
	defer srv.Close()

	c, ctx := dialTable(t, srv, "?theme=default")

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "ready"}))
	slots, _ := readRound(t, ctx, c)
	assert.True(t, strings.HasPrefix(slots[0].Path, "/assets/default/"))

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "theme", Theme: "classic"}))
	ack := readReply(t, ctx, c)
	assert.Equal(t, "theme", ack.Type)
	assert.Equal(t, "classic", ack.Theme)
	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "new_round"}))
	slots, round := readRound(t, ctx, c)
	assert.Equal(t, "classic", round.Theme)
	assert.True(t, strings.HasPrefix(slots[0].Path, "/assets/classic/"))

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "theme", Theme: "neon"}))
	msg := readReply(t, ctx, c)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, "unknown theme")
}

func TestTableWSAssetErrorKeepsConnection(t *testing.T) {
	s := newTestTableServer(t)
	srv := httptest.NewServer(s.Routes(t.TempDir()))
	defer srv.Close()

	c, ctx := dialTable(t, srv, "")

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "ready"}))
	slots, _ := readRound(t, ctx, c)

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "asset_error", Slot: 2, Path: slots[2].Path, Reason: "404"}))

	// the connection still answers and no round is redealt
	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "ping"}))
	assert.Equal(t, "pong", readReply(t, ctx, c).Type)
}

func TestTableWSBadInput(t *testing.T) {
	s := newTestTableServer(t)
	srv := httptest.NewServer(s.Routes(t.TempDir()))
	defer srv.Close()

	c, ctx := dialTable(t, srv, "")

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("{not json")))
	msg := readReply(t, ctx, c)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "Invalid JSON format.", msg.Message)

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "deal_five"}))
	msg = readReply(t, ctx, c)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, "deal_five")
}

func TestTableWSUnknownThemeRejected(t *testing.T) {
	s := newTestTableServer(t)
	srv := httptest.NewServer(s.Routes(t.TempDir()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/table/ws?theme=neon"
	_, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{Subprotocol}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTableWSSubprotocolRequired(t *testing.T) {
	s := newTestTableServer(t)
	srv := httptest.NewServer(s.Routes(t.TempDir()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/table/ws"
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer c.CloseNow()

	_, _, err = c.Read(ctx)
	assert.Equal(t, BadSubprotocolError, websocket.CloseStatus(err))
}

func TestTableWSAssetErrorRejectsBogusReports(t *testing.T) {
	s := newTestTableServer(t)
	srv := httptest.NewServer(s.Routes(t.TempDir()))
	defer srv.Close()

	c, ctx := dialTable(t, srv, "")

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "asset_error", Slot: 1, Path: "/etc/passwd", Reason: "x"}))
	msg := readReply(t, ctx, c)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, "invalid card code")

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "asset_error", Slot: 7, Path: "/assets/classic/AH.png"}))
	msg = readReply(t, ctx, c)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, "out of range")

	// a well-formed report gets no reply
	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "asset_error", Slot: 0, Path: "/assets/classic/10S.png", Reason: "404"}))
	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "ping"}))
	assert.Equal(t, "pong", readReply(t, ctx, c).Type)
}

func TestTableWSCheckHelpRestart(t *testing.T) {
	s := newTestTableServer(t)
	srv := httptest.NewServer(s.Routes(t.TempDir()))
	defer srv.Close()

	c, ctx := dialTable(t, srv, "")

	// nothing dealt yet
	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "help"}))
	msg := readReply(t, ctx, c)
	assert.Equal(t, "error", msg.Type)

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "ready"}))
	_, round := readRound(t, ctx, c)
	require.Len(t, round.Values, 4)

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "help", All: true}))
	help := readReply(t, ctx, c)
	assert.Equal(t, "help", help.Type)
	assert.Equal(t, len(help.Solutions) > 0, help.HasSolution)

	answer := "no solution"
	if help.HasSolution {
		answer = help.Solutions[0]
	}
	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "check", Answer: answer}))
	check := readReply(t, ctx, c)
	assert.Equal(t, "check", check.Type)
	assert.True(t, check.Result.OK, check.Result.Reason)

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "check", Answer: "1+1"}))
	check = readReply(t, ctx, c)
	assert.False(t, check.Result.OK)

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "restart"}))
	assert.Equal(t, "restarted", readReply(t, ctx, c).Type)

	require.NoError(t, wsjson.Write(ctx, c, TableMessage{Type: "new_round"}))
	_, round = readRound(t, ctx, c)
	assert.Equal(t, 1, round.Seq)
}

func TestSendWsMessageLogsWriteFailureToHandlerLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(done)
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		c.CloseNow()
		sendWsMessage(r.Context(), c, logger, map[string]string{"type": "pong"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer c.CloseNow()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("handler did not finish")
	}
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Contains(t, entry.Message, "Error writing WebSocket message")
}
