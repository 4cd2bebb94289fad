// Package sys provides thin wrappers around terminal-related system calls.
package sys

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsATTY reports whether the given file is a terminal.
func IsATTY(file *os.File) bool {
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
