package sys

import (
	"os"

	"golang.org/x/sys/windows"
)

// WinSize queries the size of the terminal referenced by the given file.
func WinSize(file *os.File) (row, col int) {
	var info windows.ConsoleScreenBufferInfo
	err := windows.GetConsoleScreenBufferInfo(windows.Handle(file.Fd()), &info)
	if err != nil {
		return -1, -1
	}
	window := info.Window
	return int(window.Bottom - window.Top + 1), int(window.Right - window.Left + 1)
}
