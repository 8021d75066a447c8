// Package placeholder fills #name# tokens in command templates.
package placeholder

import (
	"fmt"
	"strings"
)

// Attrs maps placeholder names to values. A nil value is absent and is
// replaced by the caller's none substitution.
type Attrs map[string]any

// Substitute replaces every #key# in tmpl for each key in attrs. Tokens with
// no matching key are left verbatim. Values are rendered with %v.
func Substitute(tmpl string, attrs Attrs, none string) string {
	if len(attrs) == 0 || !strings.Contains(tmpl, "#") {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(attrs))
	for k, v := range attrs {
		pairs = append(pairs, "#"+k+"#", render(v, none))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func render(v any, none string) string {
	switch t := v.(type) {
	case nil:
		return none
	case string:
		return t
	case *string:
		if t == nil {
			return none
		}
		return *t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Tokens returns the distinct #name# tokens present in tmpl, in order of first appearance.
func Tokens(tmpl string) []string {
	var out []string
	seen := map[string]bool{}
	rest := tmpl
	for {
		i := strings.Index(rest, "#")
		if i < 0 {
			return out
		}
		rest = rest[i+1:]
		j := strings.Index(rest, "#")
		if j < 0 {
			return out
		}
		name := rest[:j]
		if isName(name) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
			rest = rest[j+1:]
		}
	}
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
