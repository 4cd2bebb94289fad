//go:build unix

package shell

import (
	"os"
	"testing"

	"github.com/creack/pty"
)

func TestChooseEditor_FullEditorOnTerminal(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("cannot open pty: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	ed := chooseEditor(tty, tty, nil, nil)
	defer ed.Close()
	if _, ok := ed.(*linerEditor); !ok {
		t.Errorf("got %T on a terminal, want *linerEditor", ed)
	}
}

func TestChooseEditor_MinEditorOnPipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	ed := chooseEditor(r, w, nil, nil)
	defer ed.Close()
	if _, ok := ed.(*minEditor); !ok {
		t.Errorf("got %T on a pipe, want *minEditor", ed)
	}
}
