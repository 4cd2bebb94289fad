package shell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kiln-shell/kiln/pkg/prog/progtest"
)

var (
	Test     = progtest.Test
	ThatKiln = progtest.ThatKiln
)

func TestProgram_CodeInArg(t *testing.T) {
	Test(t, Program{},
		ThatKiln("-c", "1 + 1").WritesStdout("2\n"),
		ThatKiln("-c", "x = 1").DoesNothing(),
		ThatKiln("-c").
			ExitsWith(2).
			WritesStderrContaining("-c requires an argument"),
		ThatKiln("-c", "1 // 0").
			ExitsWith(1).
			WritesStderrContaining("zero"),
	)
}

func TestProgram_Script(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "answer.kiln")
	if err := os.WriteFile(script, []byte("6 * 7"), 0o600); err != nil {
		t.Fatal(err)
	}

	Test(t, Program{},
		ThatKiln(script).WritesStdout("42\n"),
		ThatKiln(filepath.Join(dir, "missing.kiln")).
			ExitsWith(2).
			WritesStderrContaining("cannot read script"),
	)
}

func TestProgram_UnknownCompilerBackend(t *testing.T) {
	Test(t, Program{},
		ThatKiln("-compiler", "bogus", "-c", "1").
			ExitsWith(2).
			WritesStderrContaining("unknown compiler backend: bogus"),
	)
}

func TestProgram_PipedInput(t *testing.T) {
	Test(t, Program{},
		ThatKiln("-no-db").
			WithStdin("x = 21\nx * 2\n").
			WritesStdoutContaining("42"),
	)
}
