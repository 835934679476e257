// internal/handlers/puzzle.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jason-s-yu/fourcard/internal/puzzle"
	"github.com/jason-s-yu/fourcard/internal/table"
	"github.com/sirupsen/logrus"
)

// errNoRound is returned when a request names no hand and its session has not dealt one.
var errNoRound = errors.New("no round dealt on this table")

// maxBodyBytes caps puzzle request bodies.
const maxBodyBytes = 4096

type checkRequest struct {
	Values []int  `json:"values"`
	Answer string `json:"answer"`
}

type helpRequest struct {
	Values []int `json:"values"`
	All    bool  `json:"all"`
}

type helpResponse struct {
	Solutions   []string `json:"solutions"`
	HasSolution bool     `json:"has_solution"`
}

func newHelpResponse(values []int, all bool) helpResponse {
	sols := puzzle.Help(values, all)
	return helpResponse{Solutions: sols, HasSolution: len(sols) > 0}
}

// tableValues returns the card values of the table's last round.
func tableValues(t *table.Table) ([]int, error) {
	round, ok := t.LastRound()
	if !ok {
		return nil, errNoRound
	}
	return puzzle.Values(round.Cards), nil
}

// handValues resolves the hand a request refers to: the values in its body,
// or else the last round dealt on the caller's table.
func (s *TableServer) handValues(r *http.Request, values []int) ([]int, error) {
	if len(values) == 0 {
		id, ok := TableSessionID(r)
		if !ok {
			return nil, errNoRound
		}
		t, ok := s.Tables.GetTable(id)
		if !ok {
			return nil, errNoRound
		}
		v, err := tableValues(t)
		if err != nil {
			return nil, err
		}
		values = v
	}
	if err := puzzle.Validate(values); err != nil {
		return nil, err
	}
	return values, nil
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

// CheckHandler judges an answer for a hand.
// POST /api/check {"values":[1,2,3,4],"answer":"(1+2+3)*4"}
// With no values the caller's last round is used.
func CheckHandler(s *TableServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkRequest
		if err := decodeBody(r, &req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		values, err := s.handValues(r, req.Values)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res := puzzle.Check(values, req.Answer)
		s.Logger.WithFields(logrus.Fields{
			"values": values,
			"ok":     res.OK,
			"kind":   res.Kind,
		}).Debug("Checked answer")
		writeJSON(w, http.StatusOK, res)
	}
}

// HelpHandler returns one solution for a hand, or all of them with "all".
// POST /api/help {"values":[1,2,3,4],"all":true}
func HelpHandler(s *TableServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req helpRequest
		if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		values, err := s.handValues(r, req.Values)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, newHelpResponse(values, req.All))
	}
}

// RestartHandler puts the caller's table back to idle and restarts its round numbering.
// POST /api/restart
func RestartHandler(s *TableServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := TableSessionID(r); ok {
			if t, ok := s.Tables.GetTable(id); ok {
				t.Reset()
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "msg": "Pool reset"})
	}
}
