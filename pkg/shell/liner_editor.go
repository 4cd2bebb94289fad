package shell

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/kiln-shell/kiln/pkg/complete"
	"github.com/kiln-shell/kiln/pkg/store"
)

// errReadAborted is returned by the full editor when the user aborts
// the current input with Ctrl-C.
var errReadAborted = errors.New("input aborted")

// historyPreload bounds how many stored lines are loaded into the
// editor at startup.
const historyPreload = 500

const completionBudget = 200 * time.Millisecond

// linerEditor is the full line editor, with history and completion.
type linerEditor struct {
	state       *liner.State
	store       store.Store
	completions *complete.Cache
}

func newLinerEditor(st store.Store, completions *complete.Cache) *linerEditor {
	ed := &linerEditor{state: liner.NewLiner(), store: st, completions: completions}
	ed.state.SetCtrlCAborts(true)
	if completions != nil {
		ed.state.SetCompleter(ed.complete)
	}
	ed.loadHistory()
	return ed
}

func (ed *linerEditor) loadHistory() {
	if ed.store == nil {
		return
	}
	next, err := ed.store.NextCmdSeq()
	if err != nil {
		logger.Println("cannot read history:", err)
		return
	}
	from := next - historyPreload
	if from < 0 {
		from = 0
	}
	cmds, err := ed.store.CmdsWithSeq(from, next)
	if err != nil {
		logger.Println("cannot read history:", err)
		return
	}
	for _, cmd := range cmds {
		ed.state.AppendHistory(cmd.Text)
	}
}

// complete adapts the completion cache to the editor's callback. The
// editor calls it synchronously, so the lookup is time-boxed; a miss
// starts a prefetch so that the next attempt at the same position hits.
func (ed *linerEditor) complete(line string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), completionBudget)
	defer cancel()
	items, err := ed.completions.Complete(ctx, line, len(line))
	if err != nil {
		ed.completions.Prefetch(line, len(line))
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Label)
	}
	return out
}

func (ed *linerEditor) ReadLine(cont bool) (string, error) {
	p := prompt
	if cont {
		p = contPrompt
	}
	line, err := ed.state.Prompt(p)
	switch {
	case err == nil:
		return line, nil
	case errors.Is(err, liner.ErrPromptAborted):
		return "", errReadAborted
	case errors.Is(err, io.EOF):
		return "", io.EOF
	default:
		return "", err
	}
}

// AppendHistory records an accepted submission both in the editor's
// in-memory history and in the persistent store.
func (ed *linerEditor) AppendHistory(code string) {
	// The editor's recall is line-oriented; flatten multi-line
	// submissions there but keep them intact in the store.
	ed.state.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	if ed.store != nil {
		if _, err := ed.store.AddCmd(code); err != nil {
			logger.Println("cannot persist history:", err)
		}
	}
}

func (ed *linerEditor) Close() error {
	return ed.state.Close()
}
