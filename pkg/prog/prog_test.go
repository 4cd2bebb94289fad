package prog_test

import (
	"fmt"
	"os"
	"testing"

	. "github.com/kiln-shell/kiln/pkg/prog"
	"github.com/kiln-shell/kiln/pkg/prog/progtest"
)

var (
	Test     = progtest.Test
	ThatKiln = progtest.ThatKiln
)

type testProgram struct {
	notSuitable bool
	writeOut    string
	returnErr   error
}

func (p testProgram) Run(fds [3]*os.File, _ *Flags, _ []string) error {
	if p.notSuitable {
		return ErrNotSuitable
	}
	fmt.Fprint(fds[1], p.writeOut)
	return p.returnErr
}

func TestCommonFlagHandling(t *testing.T) {
	Test(t, testProgram{},
		ThatKiln("-bad-flag").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -bad-flag\nUsage:"),
		// -h is treated as a bad flag
		ThatKiln("-h").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -h\nUsage:"),

		ThatKiln("-help").
			WritesStdoutContaining("Usage: kiln [flags] [script]"),
	)
}

func TestNoSuitableSubprogram(t *testing.T) {
	Test(t, testProgram{notSuitable: true},
		ThatKiln().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func TestComposite(t *testing.T) {
	Test(t,
		Composite(testProgram{notSuitable: true}, testProgram{writeOut: "program 2"}),
		ThatKiln().WritesStdout("program 2"),
	)
}

func TestComposite_NoSuitableSubprogram(t *testing.T) {
	Test(t,
		Composite(testProgram{notSuitable: true}, testProgram{notSuitable: true}),
		ThatKiln().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func TestBadUsage(t *testing.T) {
	Test(t,
		testProgram{returnErr: BadUsage("lorem ipsum")},
		ThatKiln().
			ExitsWith(2).
			WritesStderrContaining("lorem ipsum\nUsage:"),
	)
}

func TestExit(t *testing.T) {
	Test(t,
		testProgram{returnErr: Exit(3)},
		ThatKiln().ExitsWith(3),
	)
}

func TestExit_0(t *testing.T) {
	Test(t, testProgram{returnErr: Exit(0)}, ThatKiln().DoesNothing())
}
