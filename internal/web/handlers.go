package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
	"github.com/jaminalder/tictactoe-ai/internal/identity"
	"github.com/jaminalder/tictactoe-ai/internal/leaderboard"
)

type handlers struct {
	svc    *app.Service
	tpl    *templates
	scores leaderboard.Store
	issuer *identity.Issuer
}

// turnReply is the JSON body returned by the game endpoints.
type turnReply struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	User      string `json:"user,omitempty"`
	AIMoved   bool   `json:"aiMoved"`
	AIMoveRow *int   `json:"aiMoveRow,omitempty"`
	AIMoveCol *int   `json:"aiMoveCol,omitempty"`
	GameOver  bool   `json:"gameOver"`
	Board     string `json:"board,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write-json")
	}
}

func isHTMX(r *http.Request) bool { return r.Header.Get("HX-Request") == "true" }

func (h *handlers) renderBoard(gs app.GameState, errMsg, status string) []byte {
	return renderTemplate(h.tpl.board, newBoardData(gs, errMsg, status))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.index, nil))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.CreateGame()
	if err != nil {
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	log.Debug().Str("game", gs.ID).Msg("game-created")
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	data := newBoardData(*gs, "", "")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.game, data))
}

func (h *handlers) boardFragment(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*gs, "", ""))
}

func (h *handlers) chooseSide(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	side, err := domain.ParseSide(r.Form.Get("side"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.ChooseSide(chi.URLParam(r, "id"), side)
	h.reply(w, r, res, err)
}

func (h *handlers) chooseDifficulty(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	d, err := domain.ParseDifficulty(r.Form.Get("difficulty"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.ChooseDifficulty(chi.URLParam(r, "id"), d)
	h.reply(w, r, res, err)
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	ri, errR := strconv.Atoi(r.Form.Get("r"))
	ci, errC := strconv.Atoi(r.Form.Get("c"))
	if errR != nil || errC != nil {
		h.fail(w, r, domain.ErrOutOfBounds)
		return
	}
	user := identity.Username(r.Context())
	res, err := h.svc.Play(r.Context(), chi.URLParam(r, "id"), user, ri, ci)
	h.reply(w, r, res, err)
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.Reset(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(h.renderBoard(*gs, "", ""))
		return
	}
	writeJSON(w, http.StatusOK, turnReply{Success: true, Message: "Game has been reset.", Board: gs.Game.Board.Key()})
}

// reply answers a game operation with a board fragment for htmx callers
// and JSON otherwise.
func (h *handlers) reply(w http.ResponseWriter, r *http.Request, res *app.TurnResult, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(h.renderBoard(res.State, "", res.Message))
		return
	}
	out := turnReply{
		Success:  true,
		Message:  res.Message,
		AIMoved:  res.AIMoved,
		GameOver: res.GameOver,
		Board:    res.State.Game.Board.Key(),
	}
	if res.State.Game.HumanSide != domain.Empty {
		out.User = res.State.Game.HumanSide.String()
	}
	if res.AIMoved {
		row, col := res.AIMove.Row, res.AIMove.Col
		out.AIMoveRow, out.AIMoveCol = &row, &col
	}
	writeJSON(w, http.StatusOK, out)
}

func errorMessage(err error) string {
	var nr *domain.NotReadyError
	switch {
	case errors.As(err, &nr):
		return nr.Reason
	case errors.Is(err, app.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, app.ErrGameInProgress):
		return "Reset the game to change sides"
	case errors.Is(err, domain.ErrOccupied):
		return "Cell is occupied"
	case errors.Is(err, domain.ErrOutOfBounds):
		return "Out of bounds"
	case errors.Is(err, domain.ErrGameOver):
		return "Game is over"
	case errors.Is(err, domain.ErrInvalidSide):
		return "Choose X or O"
	case errors.Is(err, domain.ErrInvalidDifficulty):
		return "Choose easy, medium or hard"
	default:
		return "Invalid move"
	}
}

// fail reports a rejected operation. Rule violations are answered with
// success=false rather than an HTTP error so the client can re-prompt.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	id := chi.URLParam(r, "id")
	if errors.Is(err, app.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	msg := errorMessage(err)
	log.Debug().Err(err).Str("game", id).Msg("operation-rejected")
	if isHTMX(r) {
		gs, ok := h.svc.Get(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(h.renderBoard(*gs, msg, ""))
		return
	}
	writeJSON(w, http.StatusOK, turnReply{Success: false, Message: msg})
}

func (h *handlers) topPlayers(w http.ResponseWriter, r *http.Request) {
	n := 100
	if v, err := strconv.Atoi(r.URL.Query().Get("n")); err == nil && v > 0 {
		n = v
	}
	top, err := h.scores.Top(r.Context(), n)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard-query-failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get leaderboard"})
		return
	}
	if top == nil {
		top = []leaderboard.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": top})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "message": "Login is disabled"})
		return
	}
	_ = r.ParseForm()
	name := strings.TrimSpace(r.Form.Get("username"))
	if name == "" || len(name) > 64 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Username required"})
		return
	}
	if err := h.issuer.SetCookie(w, name); err != nil {
		log.Error().Err(err).Msg("issue-token-failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "username": name})
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// only EventSource clients get a stream
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, "board", b)
			flusher.Flush()
		}
	}
}

// writeEvent emits one SSE event; multi-line payloads get one data field
// per line.
func writeEvent(w io.Writer, name string, payload []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", name)
	for _, line := range strings.Split(string(payload), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}
