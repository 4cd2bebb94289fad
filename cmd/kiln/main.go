// Kiln is an interactive shell for a compiled language: it reads source
// fragments, evaluates them against an accumulating session, and
// pretty-prints the resulting values.
package main

import (
	"os"

	"github.com/kiln-shell/kiln/pkg/buildinfo"
	"github.com/kiln-shell/kiln/pkg/prog"
	"github.com/kiln-shell/kiln/pkg/shell"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(buildinfo.Program{}, shell.Program{})))
}
