package shell

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/kiln-shell/kiln/pkg/compiler/starlarkc"
	"github.com/kiln-shell/kiln/pkg/format"
	"github.com/kiln-shell/kiln/pkg/repl"
	"github.com/kiln-shell/kiln/pkg/store"
	"github.com/kiln-shell/kiln/pkg/ui"
)

// scriptedEditor replays a fixed sequence of lines.
type scriptedEditor struct {
	lines   []string
	history []string
}

func (ed *scriptedEditor) ReadLine(bool) (string, error) {
	if len(ed.lines) == 0 {
		return "", io.EOF
	}
	line := ed.lines[0]
	ed.lines = ed.lines[1:]
	return line, nil
}

func (ed *scriptedEditor) AppendHistory(code string) { ed.history = append(ed.history, code) }

func (ed *scriptedEditor) Close() error { return nil }

func interact(t *testing.T, lines ...string) (stdout, stderr string, ed *scriptedEditor) {
	t.Helper()
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	ed = &scriptedEditor{lines: lines}
	cfg := &InteractConfig{
		Session:   repl.NewSession(starlarkc.New(nil), nil),
		Printer:   format.NewPrinter(ui.MakeTheme(nil), format.PrinterConfig{}),
		newEditor: func() editor { return ed },
	}
	Interact([3]*os.File{nil, outW, errW}, cfg)
	outW.Close()
	errW.Close()
	outBytes, _ := io.ReadAll(outR)
	errBytes, _ := io.ReadAll(errR)
	return string(outBytes), string(errBytes), ed
}

func TestInteract_EvaluatesAndPrints(t *testing.T) {
	stdout, _, _ := interact(t, "x = 5", "x * 2")
	if !strings.Contains(stdout, "10") {
		t.Errorf("stdout %q does not contain the result", stdout)
	}
}

func TestInteract_MultilineContinuation(t *testing.T) {
	stdout, stderr, ed := interact(t,
		"def double(n):",
		"    return n * 2",
		"",
		"double(4)")
	if !strings.Contains(stdout, "8") {
		t.Errorf("stdout %q does not contain the result (stderr %q)", stdout, stderr)
	}
	if len(ed.history) == 0 || !strings.Contains(ed.history[0], "def double") {
		t.Errorf("history = %q, want the full submission recorded", ed.history)
	}
}

func TestInteract_DetailMarkerSelectsDetailedOutput(t *testing.T) {
	stdout, _, _ := interact(t, `"a\nb" ;;`)
	// Detailed string output is raw: the newline is real.
	if !strings.Contains(stdout, "a\nb") {
		t.Errorf("stdout %q does not contain raw detailed string", stdout)
	}
}

func TestInteract_SummaryStringIsQuoted(t *testing.T) {
	stdout, _, _ := interact(t, `"hello"`)
	if !strings.Contains(stdout, `"hello"`) {
		t.Errorf("stdout %q does not contain quoted string", stdout)
	}
}

func TestApply_StaleInterruptDoesNotCancel(t *testing.T) {
	session := repl.NewSession(starlarkc.New(nil), nil)
	sigs := make(chan os.Signal, 1)
	// An interrupt from before the evaluation started.
	sigs <- os.Interrupt

	result := apply(session, sigs, "1 + 1")
	if result.Kind != repl.Success {
		t.Errorf("apply -> %+v, want success", result)
	}
}

func TestInteract_ErrorsGoToStderr(t *testing.T) {
	stdout, stderr, _ := interact(t, "1 // 0", "2 + 2")
	if !strings.Contains(stderr, "division by zero") && !strings.Contains(stderr, "zero") {
		t.Errorf("stderr %q does not report the error", stderr)
	}
	// The session stays usable after an error.
	if !strings.Contains(stdout, "4") {
		t.Errorf("stdout %q does not contain result of later submission", stdout)
	}
}

func TestInteract_Commands(t *testing.T) {
	stdout, _, _ := interact(t, "x = 5", ":bindings", ":reset", ":bindings", ":quit", "y = 1")
	if !strings.Contains(stdout, "int x") {
		t.Errorf("stdout %q does not list the binding", stdout)
	}
	if !strings.Contains(stdout, "session reset") {
		t.Errorf("stdout %q does not confirm the reset", stdout)
	}
	if idx := strings.Index(stdout, "session reset"); strings.Contains(stdout[idx:], "int x") {
		t.Errorf("stdout %q still lists bindings after reset", stdout)
	}
}

func TestInteract_HistoryCommand(t *testing.T) {
	st, cleanup := store.MustTempStore()
	defer cleanup()
	for _, cmd := range []string{"x = 1", "y = 2", "x + y"} {
		if _, err := st.AddCmd(cmd); err != nil {
			t.Fatal(err)
		}
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	ed := &scriptedEditor{lines: []string{":history x"}}
	cfg := &InteractConfig{
		Session:   repl.NewSession(starlarkc.New(nil), nil),
		Printer:   format.NewPrinter(ui.MakeTheme(nil), format.PrinterConfig{}),
		Store:     st,
		newEditor: func() editor { return ed },
	}
	Interact([3]*os.File{nil, outW, errW}, cfg)
	outW.Close()
	errW.Close()
	outBytes, _ := io.ReadAll(outR)
	io.ReadAll(errR)

	stdout := string(outBytes)
	if !strings.Contains(stdout, "x = 1") || !strings.Contains(stdout, "x + y") {
		t.Errorf("stdout %q does not list matching history items", stdout)
	}
	if strings.Contains(stdout, "y = 2") {
		t.Errorf("stdout %q lists a non-matching history item", stdout)
	}
}

func TestInteract_UnknownCommand(t *testing.T) {
	_, stderr, _ := interact(t, ":bogus")
	if !strings.Contains(stderr, "unknown command") {
		t.Errorf("stderr %q does not flag the unknown command", stderr)
	}
}

func TestInteract_BlankLinesAreSkipped(t *testing.T) {
	stdout, stderr, ed := interact(t, "", "   ", "1 + 1")
	if !strings.Contains(stdout, "2") {
		t.Errorf("stdout %q does not contain result (stderr %q)", stdout, stderr)
	}
	if len(ed.history) != 1 {
		t.Errorf("history = %q, want exactly the one real submission", ed.history)
	}
}
