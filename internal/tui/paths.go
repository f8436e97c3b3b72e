package tui

import (
	"net/url"
	"runtime"
	"strings"
	"unicode"
)

// SplitPaths breaks a typed line or a paste into paths. Terminals deliver a
// drop as space separated paths, quoting or backslash-escaping the ones
// that contain spaces, and some send file:// URIs instead.
func SplitPaths(s string) []string {
	return splitPaths(s, runtime.GOOS != "windows")
}

func splitPaths(s string, escapes bool) []string {
	var (
		paths   []string
		cur     strings.Builder
		inToken bool
		quote   rune
	)
	flush := func() {
		if inToken {
			paths = append(paths, fromURI(cur.String()))
		}
		cur.Reset()
		inToken = false
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			if escapes && r == '\\' && quote == '"' && i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\\') {
				i++
				r = runes[i]
			}
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case escapes && r == '\\' && i+1 < len(runes):
			i++
			cur.WriteRune(runes[i])
			inToken = true
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	flush()
	return paths
}

func fromURI(p string) string {
	if !strings.HasPrefix(p, "file://") {
		return p
	}
	u, err := url.Parse(p)
	if err != nil || u.Path == "" {
		return p
	}
	return u.Path
}
