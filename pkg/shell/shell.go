// Package shell implements the interactive session loop: reading
// submissions from the line editor, applying them to the evaluation
// session, and rendering results and diagnostics to the terminal.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/kiln-shell/kiln/pkg/complete"
	"github.com/kiln-shell/kiln/pkg/diag"
	"github.com/kiln-shell/kiln/pkg/format"
	"github.com/kiln-shell/kiln/pkg/logutil"
	"github.com/kiln-shell/kiln/pkg/repl"
	"github.com/kiln-shell/kiln/pkg/store"
)

var logger = logutil.GetLogger("[shell] ")

// detailMarker terminates a submission that requests detailed output.
const detailMarker = ";;"

// InteractConfig keeps configuration for the interactive mode.
type InteractConfig struct {
	Session *repl.Session
	Printer *format.Printer

	// Warmer, when non-nil, is started in the background before the
	// first prompt.
	Warmer repl.Warmer
	// Store, when non-nil, persists the input history.
	Store store.Store
	// Completions, when non-nil, feeds the editor's completion key.
	Completions *complete.Cache

	// newEditor overrides editor selection in tests.
	newEditor func() editor
}

// Interact runs an interactive session until the input is exhausted.
func Interact(fds [3]*os.File, cfg *InteractConfig) {
	if cfg.Warmer != nil {
		warmCtx, warmCancel := context.WithCancel(context.Background())
		defer warmCancel()
		go cfg.Warmer.Warm(warmCtx)
	}

	var ed editor
	if cfg.newEditor != nil {
		ed = cfg.newEditor()
	} else {
		ed = chooseEditor(fds[0], fds[2], cfg.Store, cfg.Completions)
	}
	defer func() { ed.Close() }()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)

	cooldown := time.Second
	var buf strings.Builder

	for {
		line, err := ed.ReadLine(buf.Len() > 0)
		if err == io.EOF {
			break
		} else if err == errReadAborted {
			buf.Reset()
			fmt.Fprintln(fds[1])
			continue
		} else if err != nil {
			fmt.Fprintln(fds[2], "editor error:", err)
			if _, isMin := ed.(*minEditor); !isMin {
				fmt.Fprintln(fds[2], "falling back to basic line editor")
				ed.Close()
				ed = newMinEditor(fds[0], fds[2])
			} else {
				fmt.Fprintln(fds[2], "restarting editor in", cooldown)
				time.Sleep(cooldown)
				if cooldown < time.Minute {
					cooldown *= 2
				}
			}
			continue
		}
		cooldown = time.Second

		if buf.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ":") {
				if quit := runCommand(fds, cfg, trimmed); quit {
					break
				}
				continue
			}
		}

		verbosity := format.Summary
		if trimmed := strings.TrimRight(line, " \t"); strings.HasSuffix(trimmed, detailMarker) {
			verbosity = format.Detailed
			line = strings.TrimSuffix(trimmed, detailMarker)
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		code := buf.String()

		result := apply(cfg.Session, sigs, code)
		if result.Incomplete() {
			continue
		}
		buf.Reset()
		ed.AppendHistory(code)
		show(fds, cfg.Printer, verbosity, result)
	}
}

// apply runs one evaluation, cancelling it if an interrupt arrives
// while it is in flight.
func apply(session *repl.Session, sigs <-chan os.Signal, code string) repl.Result {
	// An interrupt delivered between evaluations may still sit in the
	// buffered channel; it must not cancel this one.
	select {
	case <-sigs:
	default:
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-done:
		}
	}()
	return session.Apply(ctx, repl.Fragment{Code: code})
}

// show renders one evaluation outcome.
func show(fds [3]*os.File, printer *format.Printer, verbosity format.Verbosity, result repl.Result) {
	switch result.Kind {
	case repl.Success:
		for _, ref := range result.NewReferences {
			fmt.Fprintln(fds[1], "loaded", ref.Path)
		}
		if result.Value == nil {
			return
		}
		fv := printer.FormatObject(result.Value, verbosity)
		fmt.Fprintln(fds[1], fv.Text.VTString())
	case repl.Cancelled:
		fmt.Fprintln(fds[1], "evaluation interrupted")
	case repl.Error:
		diag.ShowError(fds[2], result.Err)
	}
}

// runCommand handles colon commands. It reports whether the shell
// should exit.
func runCommand(fds [3]*os.File, cfg *InteractConfig, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":exit":
		return true
	case ":reset":
		cfg.Session.Reset()
		fmt.Fprintln(fds[1], "session reset")
	case ":bindings":
		for _, b := range cfg.Session.Bindings() {
			fmt.Fprintf(fds[1], "%s %s\n", b.TypeName, b.Name)
		}
	case ":usings":
		for _, u := range cfg.Session.Usings() {
			fmt.Fprintln(fds[1], u)
		}
	case ":refs":
		for _, ref := range cfg.Session.References() {
			fmt.Fprintln(fds[1], ref.Path)
		}
	case ":history":
		showHistory(fds, cfg.Store, strings.TrimSpace(strings.TrimPrefix(line, ":history")))
	case ":help":
		fmt.Fprintln(fds[1], "commands: :bindings :usings :refs :history [prefix] :reset :quit")
		fmt.Fprintf(fds[1], "end a submission with %q for detailed output\n", detailMarker)
	default:
		fmt.Fprintf(fds[2], "unknown command %s (try :help)\n", fields[0])
	}
	return false
}

// historyListMax bounds the number of items :history prints.
const historyListMax = 10

// showHistory prints the most recent history items starting with the given
// prefix, oldest first.
func showHistory(fds [3]*os.File, st store.Store, prefix string) {
	if st == nil {
		fmt.Fprintln(fds[2], "history not available")
		return
	}
	upto, err := st.NextCmdSeq()
	if err != nil {
		fmt.Fprintln(fds[2], "history:", err)
		return
	}
	var cmds []store.Cmd
	for len(cmds) < historyListMax {
		cmd, err := st.PrevCmd(upto, prefix)
		if err != nil {
			if !errors.Is(err, store.ErrNoMatchingCmd) {
				fmt.Fprintln(fds[2], "history:", err)
			}
			break
		}
		cmds = append(cmds, cmd)
		upto = cmd.Seq
	}
	for i := len(cmds) - 1; i >= 0; i-- {
		fmt.Fprintf(fds[1], "%4d  %s\n", cmds[i].Seq, cmds[i].Text)
	}
}
