package ui

import (
	"testing"

	"github.com/kiln-shell/kiln/pkg/tt"
)

func TestT(t *testing.T) {
	tt.Test(t, tt.Fn("T", T), tt.Table{
		tt.Args("test").Rets(Text{&Segment{Text: "test"}}),
		tt.Args("test red", FgRed).Rets(Text{&Segment{
			Style: Style{Foreground: Red}, Text: "test red"}}),
		tt.Args("test red bold", FgRed, Bold).Rets(Text{&Segment{
			Style: Style{Foreground: Red, Bold: true}, Text: "test red bold"}}),
	})
}

func TestTextLenAndPlain(t *testing.T) {
	text := Concat(T("foo", FgRed), T("bar"))
	if text.Len() != 6 {
		t.Errorf("Len -> %d, want 6", text.Len())
	}
	if text.Plain() != "foobar" {
		t.Errorf("Plain -> %q, want foobar", text.Plain())
	}
}

func TestCountLines(t *testing.T) {
	tt.Test(t, tt.Fn("CountLines", Text.CountLines), tt.Table{
		tt.Args(T("a")).Rets(1),
		tt.Args(T("a\nb")).Rets(2),
		tt.Args(Concat(T("a\nb", FgRed), T("c\nd"))).Rets(3),
	})
}

func TestSplitByRune(t *testing.T) {
	tt.Test(t, tt.Fn("SplitByRune", Text.SplitByRune), tt.Table{
		tt.Args(Text{}, '\n').Rets([]Text(nil)),
		tt.Args(T("a"), '\n').Rets([]Text{T("a")}),
		tt.Args(T("a\nb"), '\n').Rets([]Text{T("a"), T("b")}),
		// A split point in the middle of a segment boundary.
		tt.Args(Concat(T("a\nb", FgRed), T("c")), '\n').Rets([]Text{
			T("a", FgRed),
			Concat(T("b", FgRed), T("c")),
		}),
	})
}

func TestVTString(t *testing.T) {
	tt.Test(t, tt.Fn("VTString", Text.VTString), tt.Table{
		tt.Args(T("foo")).Rets("foo"),
		tt.Args(T("foo", FgRed)).Rets("\033[;31mfoo\033[m"),
		tt.Args(T("foo", Bold, FgRed)).Rets("\033[;1;31mfoo\033[m"),
		tt.Args(T("foo", BgBlue, Inverse)).Rets("\033[;7;44mfoo\033[m"),
	})
}
