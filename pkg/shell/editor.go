package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kiln-shell/kiln/pkg/complete"
	"github.com/kiln-shell/kiln/pkg/store"
	"github.com/kiln-shell/kiln/pkg/sys"
)

// editor is the interface the line editor has to satisfy. ReadLine
// returns one physical line without its line ending; cont selects the
// continuation prompt used while a statement is still incomplete.
type editor interface {
	ReadLine(cont bool) (string, error)
	AppendHistory(code string)
	Close() error
}

const (
	prompt     = "kiln> "
	contPrompt = "....> "
)

// chooseEditor picks the full line editor on a terminal and the minimal
// one otherwise, so that piped input still works.
func chooseEditor(in, out *os.File, st store.Store, completions *complete.Cache) editor {
	if sys.IsATTY(in) {
		row, col := sys.WinSize(in)
		logger.Printf("terminal size: %dx%d", col, row)
		return newLinerEditor(st, completions)
	}
	return newMinEditor(in, out)
}

// minEditor is a fallback line editor with no editing capability. It is
// used when the input is not a terminal, or when the full editor fails.
type minEditor struct {
	in  *bufio.Reader
	out io.Writer
}

func newMinEditor(in, out *os.File) *minEditor {
	return &minEditor{bufio.NewReader(in), out}
}

func (ed *minEditor) ReadLine(cont bool) (string, error) {
	if cont {
		fmt.Fprint(ed.out, contPrompt)
	} else {
		fmt.Fprint(ed.out, prompt)
	}
	line, err := ed.in.ReadString('\n')
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if line != "" && err == io.EOF {
		// Deliver the unterminated last line before reporting EOF.
		err = nil
	}
	return line, err
}

func (ed *minEditor) AppendHistory(string) {}

func (ed *minEditor) Close() error { return nil }
