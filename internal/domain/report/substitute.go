package report

import (
	"regexp"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Substitute replaces every {{name}} token whose name is a key of values
// with the mapped value. Tokens without a mapping are kept verbatim. The body
// is scanned once from left to right and inserted values are never scanned
// again, so the result does not depend on map iteration order.
func Substitute(body string, values map[string]string) string {
	if len(values) == 0 || !strings.Contains(body, openDelim) {
		return body
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); {
		if strings.HasPrefix(body[i:], openDelim) {
			if end := strings.Index(body[i+len(openDelim):], closeDelim); end >= 0 {
				name := body[i+len(openDelim) : i+len(openDelim)+end]
				if v, ok := values[name]; ok {
					b.WriteString(v)
					i += len(openDelim) + end + len(closeDelim)
					continue
				}
			}
		}
		b.WriteByte(body[i])
		i++
	}
	return b.String()
}

var placeholderRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Placeholders lists the distinct token names in body in order of first
// appearance.
func Placeholders(body string) []string {
	names := []string{}
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(body, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
