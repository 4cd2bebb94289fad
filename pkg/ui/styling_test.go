package ui

import (
	"testing"

	"github.com/kiln-shell/kiln/pkg/tt"
)

func TestApplyStyling(t *testing.T) {
	tt.Test(t, tt.Fn("ApplyStyling", func(s Style, ts ...Styling) Style {
		return ApplyStyling(s, ts...)
	}), tt.Table{
		tt.Args(Style{}, FgRed).Rets(Style{Foreground: Red}),
		tt.Args(Style{Foreground: Red}, FgDefault).Rets(Style{}),
		tt.Args(Style{}, Bold, Italic).Rets(Style{Bold: true, Italic: true}),
		tt.Args(Style{Bold: true}, NoBold).Rets(Style{}),
		tt.Args(Style{}, Stylings(FgGreen, BgBlue)).Rets(
			Style{Foreground: Green, Background: Blue}),
		// nil Styling's are ignored.
		tt.Args(Style{}, nil, FgCyan, nil).Rets(Style{Foreground: Cyan}),
	})
}

func TestParseStyling(t *testing.T) {
	tt.Test(t, tt.Fn("ParseStyling", func(s string) Style {
		return ApplyStyling(Style{}, ParseStyling(s))
	}), tt.Table{
		tt.Args("default").Rets(Style{}),
		tt.Args("red").Rets(Style{Foreground: Red}),
		tt.Args("fg-red").Rets(Style{Foreground: Red}),
		tt.Args("bg-red").Rets(Style{Background: Red}),
		tt.Args("bright-red").Rets(Style{Foreground: BrightRed}),
		tt.Args("color125").Rets(Style{Foreground: xterm256Color(125)}),
		tt.Args("#17c3ce").Rets(Style{Foreground: trueColor{0x17, 0xc3, 0xce}}),
		tt.Args("bold").Rets(Style{Bold: true}),
		tt.Args("no-bold").Rets(Style{}),
		tt.Args("red bg-blue bold").Rets(
			Style{Foreground: Red, Background: Blue, Bold: true}),
	})
}

func TestParseStylingInvalid(t *testing.T) {
	for _, s := range []string{"", "nonexistent", "color256", "#1234", "red nonexistent"} {
		if styling := ParseStyling(s); styling != nil {
			t.Errorf("ParseStyling(%q) -> %v, want nil", s, styling)
		}
	}
}
