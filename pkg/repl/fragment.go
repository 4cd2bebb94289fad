package repl

import "strings"

// Fragment is one unit of user-submitted source text, evaluated as an
// increment to session state. It is never mutated after creation.
type Fragment struct {
	// Code is the source text.
	Code string
	// Args is the optional argument vector. It is only meaningful for the
	// first fragment of a run (script arguments).
	Args []string
}

// ReferenceHandle uniquely identifies a loaded binary reference by its
// canonical full path (or bare name, for by-name references).
type ReferenceHandle struct {
	Path string
}

// DirectiveMarker starts a reference directive line.
const DirectiveMarker = "#r"

// ExtractDirectives splits a fragment's code into the reference-directive
// arguments it contains and the remaining code. A directive is a line whose
// trimmed form is `#r "<argument>"`. Directive lines are blanked rather than
// removed, so line numbers in compiler diagnostics stay meaningful.
func ExtractDirectives(code string) (remaining string, args []string) {
	if !strings.Contains(code, DirectiveMarker) {
		return code, nil
	}
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		arg, ok := parseDirective(line)
		if !ok {
			continue
		}
		args = append(args, arg)
		lines[i] = ""
	}
	return strings.Join(lines, "\n"), args
}

func parseDirective(line string) (arg string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, DirectiveMarker) {
		return "", false
	}
	rest := strings.TrimSpace(trimmed[len(DirectiveMarker):])
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}
