package web

import (
	"bytes"
	"html/template"

	"github.com/rs/zerolog/log"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"cellSymbol": func(c domain.Cell) string {
			if c == domain.Empty {
				return ""
			}
			return c.String()
		},
		"add": func(a, b int) int { return a + b },
		"mul": func(a, b int) int { return a * b },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body>{{template "content" .}}</body></html>`))
	// board lives in the same set so game can include it
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>TicTacToe</h1><form action="/game" method="post"><button>New game</button></form>
<p><a href="/leaderboard">Leaderboard</a></p>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div class="setup">
  {{range $s := .Sides}}
  <button hx-post="/game/{{$.ID}}/side" hx-vals='{"side":"{{$s}}"}' hx-target="#board" hx-swap="outerHTML">Play {{$s}}</button>
  {{end}}
  {{range $d := .Difficulties}}
  <button hx-post="/game/{{$.ID}}/difficulty" hx-vals='{"difficulty":"{{$d}}"}' hx-target="#board" hx-swap="outerHTML">{{$d}}</button>
  {{end}}
  <button hx-post="/game/{{.ID}}/reset" hx-target="#board" hx-swap="outerHTML">Reset</button>
</div>
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div sse-swap="board">{{template "board" .}}</div>
</div>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, data any) []byte {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		log.Error().Err(err).Str("template", t.Name()).Msg("render-failed")
	}
	return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  {{if .Status}}
  <div class="status">{{.Status}}</div>
  {{end}}
  {{range $r := iter 3}}
  <div class="row">
    {{range $c := iter 3}}
      <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="r" value="{{$r}}">
        <input type="hidden" name="c" value="{{$c}}">
        <button type="submit">{{cellSymbol (index $.Board (add (mul $r 3) $c))}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
</div>
`

// boardData feeds the board template.
type boardData struct {
	ID           string
	Board        domain.Board
	Error        string
	Status       string
	Sides        []string
	Difficulties []string
}

func newBoardData(gs app.GameState, errMsg, status string) boardData {
	if status == "" {
		status = statusLine(gs.Game)
	}
	return boardData{
		ID:           gs.ID,
		Board:        gs.Game.Board,
		Error:        errMsg,
		Status:       status,
		Sides:        []string{"X", "O"},
		Difficulties: []string{"easy", "medium", "hard"},
	}
}

func statusLine(s domain.Snapshot) string {
	switch {
	case s.HumanSide == domain.Empty:
		return "Choose a side"
	case s.Difficulty == domain.Unset:
		return "Choose a difficulty"
	case s.Outcome == domain.OutcomeHumanWin:
		return "You win!"
	case s.Outcome == domain.OutcomeAIWin:
		return "You lose"
	case s.Outcome == domain.OutcomeTie:
		return "It's a tie!"
	}
	return "You play " + s.HumanSide.String()
}
