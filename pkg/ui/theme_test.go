package ui

import "testing"

func TestParseTheme(t *testing.T) {
	theme, err := ParseTheme([]byte("keyword: magenta\n'string literal': yellow bold\n"))
	if err != nil {
		t.Fatal(err)
	}
	wantKeyword := Style{Foreground: Magenta}
	if got := ApplyStyling(Style{}, theme.Styling(ThemeKeyword)); got != wantKeyword {
		t.Errorf("keyword style %v, want %v", got, wantKeyword)
	}
	wantString := Style{Foreground: Yellow, Bold: true}
	if got := ApplyStyling(Style{}, theme.Styling(ThemeString)); got != wantString {
		t.Errorf("string style %v, want %v", got, wantString)
	}
}

func TestParseTheme_MissingClassificationFallsBackToDefault(t *testing.T) {
	theme, err := ParseTheme([]byte("keyword: magenta\n"))
	if err != nil {
		t.Fatal(err)
	}
	if styling := theme.Styling(ThemeComment); styling != nil {
		t.Errorf("styling for unthemed classification is %v, want nil", styling)
	}
	// An unthemed classification renders as plain text.
	if s := theme.T(ThemeComment, "x").VTString(); s != "x" {
		t.Errorf("unthemed text renders as %q, want %q", s, "x")
	}
}

func TestParseTheme_BadYAML(t *testing.T) {
	if _, err := ParseTheme([]byte("[")); err == nil {
		t.Error("want error for bad YAML")
	}
}

func TestParseTheme_BadStyling(t *testing.T) {
	if _, err := ParseTheme([]byte("keyword: nonexistent\n")); err == nil {
		t.Error("want error for unknown styling")
	}
}
