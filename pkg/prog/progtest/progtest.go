// Package progtest provides utilities for testing subprograms.
package progtest

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/kiln-shell/kiln/pkg/prog"
)

// Case is a test case against a Program.
type Case struct {
	args  []string
	stdin string
	want  result
}

type result struct {
	exit           int
	stdout, stderr output
}

type output struct {
	content string
	partial bool
}

// ThatKiln returns a new Case with the given command line arguments.
func ThatKiln(args ...string) Case {
	return Case{args: append([]string{"kiln"}, args...)}
}

// WithStdin sets the stdin of the test case.
func (c Case) WithStdin(s string) Case {
	c.stdin = s
	return c
}

// DoesNothing asserts the default expectation: exit 0 and no output.
func (c Case) DoesNothing() Case { return c }

// ExitsWith sets the expected exit status.
func (c Case) ExitsWith(code int) Case {
	c.want.exit = code
	return c
}

// WritesStdout sets the expected stdout.
func (c Case) WritesStdout(s string) Case {
	c.want.stdout = output{content: s}
	return c
}

// WritesStdoutContaining sets a substring expectation on stdout.
func (c Case) WritesStdoutContaining(s string) Case {
	c.want.stdout = output{content: s, partial: true}
	return c
}

// WritesStderr sets the expected stderr.
func (c Case) WritesStderr(s string) Case {
	c.want.stderr = output{content: s}
	return c
}

// WritesStderrContaining sets a substring expectation on stderr.
func (c Case) WritesStderrContaining(s string) Case {
	c.want.stderr = output{content: s, partial: true}
	return c
}

// Test runs the test cases against the program.
func Test(t *testing.T, p prog.Program, cases ...Case) {
	t.Helper()
	for _, c := range cases {
		t.Run(strings.Join(c.args[1:], " "), func(t *testing.T) {
			t.Helper()
			r := run(t, p, c)
			if r.exit != c.want.exit {
				t.Errorf("exit = %d, want %d", r.exit, c.want.exit)
			}
			checkOutput(t, "stdout", r.stdout.content, c.want.stdout)
			checkOutput(t, "stderr", r.stderr.content, c.want.stderr)
		})
	}
}

func checkOutput(t *testing.T, name, got string, want output) {
	t.Helper()
	if want.partial {
		if !strings.Contains(got, want.content) {
			t.Errorf("%s %q does not contain %q", name, got, want.content)
		}
	} else if got != want.content {
		t.Errorf("%s = %q, want %q", name, got, want.content)
	}
}

func run(t *testing.T, p prog.Program, c Case) result {
	t.Helper()
	in := capturePipe(t)
	out := capturePipe(t)
	errOut := capturePipe(t)

	io.WriteString(in.w, c.stdin)
	in.w.Close()

	exit := prog.Run([3]*os.File{in.r, out.w, errOut.w}, c.args, p)
	return result{exit: exit, stdout: output{content: out.get()}, stderr: output{content: errOut.get()}}
}

type pipe struct {
	r, w *os.File
}

func capturePipe(t *testing.T) *pipe {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	return &pipe{r, w}
}

func (p *pipe) get() string {
	p.w.Close()
	b, _ := io.ReadAll(p.r)
	return string(b)
}
