package format

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/kiln-shell/kiln/pkg/ui"
)

// Frame is one resolved call-stack frame of an exception.
type Frame struct {
	Function string
	File     string
	Line     int
}

// StackTracer is implemented by errors that carry a call stack.
type StackTracer interface {
	StackTrace() []Frame
}

// FrameBeautifier rewrites stack frames for display. Returning false drops
// the frame entirely (for example, runtime plumbing the user did not write).
type FrameBeautifier interface {
	Beautify(Frame) (Frame, bool)
}

// plainBeautifier shortens generated function names and keeps every frame.
type plainBeautifier struct{}

func (plainBeautifier) Beautify(f Frame) (Frame, bool) {
	f.Function = SuppressGeneratedName(f.Function)
	return f, true
}

// FormatException formats an error. Under Summary only the message is
// rendered; under Detailed the type, message, wrapped errors and resolved
// stack frames are rendered. Like FormatObject, it never panics and its
// output is length-limited.
func (p *Printer) FormatException(err error, v Verbosity) FormattedValue {
	if err == nil {
		return FormattedValue{Text: p.theme.T(ui.ThemeNull, "null"), Nil: true}
	}
	text := p.exceptionText(err, v)
	text = limitText(text, p.maxLength, p.ellipsis())
	return FormattedValue{Text: text, Value: err}
}

func (p *Printer) exceptionText(err error, v Verbosity) (text ui.Text) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("formatting exception %T panicked: %v", err, r)
			text = p.errorToken(fmt.Sprintf("%T", r))
		}
	}()

	message, failure := safeToString(err)
	if failure != nil {
		return p.errorToken(failure.typeName)
	}
	if v != Detailed {
		return p.theme.T(ui.ThemeError, message)
	}

	out := ui.Concat(
		p.typeNameText(reflect.TypeOf(err)),
		ui.T(": "),
		p.theme.T(ui.ThemeError, message))
	for _, frame := range p.stackFrames(err) {
		out = append(out, ui.T("\n  at ")...)
		out = append(out, p.theme.T(ui.ThemeMethodName, frame.Function)...)
		if frame.File != "" {
			out = append(out, ui.T(" ("+frame.File+":"+strconv.Itoa(frame.Line)+")",
				p.theme.Styling(ui.ThemeComment))...)
		}
	}
	if inner := errors.Unwrap(err); inner != nil {
		out = append(out, ui.T("\ncaused by: ")...)
		out = append(out, p.exceptionText(inner, Summary)...)
	}
	return out
}

// stackFrames resolves the frames of an error through the injected
// beautifier.
func (p *Printer) stackFrames(err error) []Frame {
	tracer, ok := err.(StackTracer)
	if !ok {
		return nil
	}
	beautifier := p.beautifier
	if beautifier == nil {
		beautifier = plainBeautifier{}
	}
	var frames []Frame
	for _, frame := range tracer.StackTrace() {
		if f, keep := beautifier.Beautify(frame); keep {
			frames = append(frames, f)
		}
	}
	return frames
}
