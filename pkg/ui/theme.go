package ui

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Theme maps semantic classification names (like "keyword" or "string
// literal") to the Styling used to display them. A Theme is immutable after
// construction; a missing classification falls back to the default
// foreground.
type Theme struct {
	stylings map[string]Styling
}

// Classifications used by the formatter and highlighter.
const (
	ThemeKeyword     = "keyword"
	ThemeString      = "string literal"
	ThemeNumber      = "number literal"
	ThemeClassName   = "class name"
	ThemeStructName  = "struct name"
	ThemeEnumName    = "enum name"
	ThemeMethodName  = "method name"
	ThemeComment     = "comment"
	ThemeError       = "error"
	ThemePunctuation = "punctuation"
	ThemeNull        = "null"
)

// DefaultTheme is used when no theme file is given.
var DefaultTheme = MakeTheme(map[string]string{
	ThemeKeyword:    "blue",
	ThemeString:     "yellow",
	ThemeNumber:     "bright-cyan",
	ThemeClassName:  "green",
	ThemeStructName: "green",
	ThemeEnumName:   "green",
	ThemeMethodName: "bright-yellow",
	ThemeComment:    "bright-black",
	ThemeError:      "red bold",
	ThemeNull:       "bright-black",
})

// MakeTheme builds a Theme from a map of classification names to styling
// strings in the syntax of ParseStyling. Unparseable stylings are dropped.
func MakeTheme(m map[string]string) Theme {
	stylings := make(map[string]Styling, len(m))
	for class, s := range m {
		if styling := ParseStyling(s); styling != nil {
			stylings[class] = styling
		}
	}
	return Theme{stylings}
}

// LoadTheme reads a theme from a YAML file mapping classification names to
// styling strings.
func LoadTheme(path string) (Theme, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("read theme: %w", err)
	}
	return ParseTheme(content)
}

// ParseTheme parses YAML content mapping classification names to styling
// strings.
func ParseTheme(content []byte) (Theme, error) {
	var m map[string]string
	if err := yaml.Unmarshal(content, &m); err != nil {
		return Theme{}, fmt.Errorf("parse theme: %w", err)
	}
	for class, s := range m {
		if ParseStyling(s) == nil {
			return Theme{}, fmt.Errorf("parse theme: invalid styling %q for %q", s, class)
		}
	}
	return MakeTheme(m), nil
}

// Styling returns the Styling for a classification, or nil (the default
// foreground) if the classification has no styling in the theme.
func (t Theme) Styling(class string) Styling {
	return t.stylings[class]
}

// T constructs a Text from s, styled for the given classification.
func (t Theme) T(class, s string) Text {
	return T(s, t.stylings[class])
}
