package memory

import (
	"strconv"
	"strings"

	"github.com/mousetail/mousetail/internal/collection"
)

type term struct {
	negate bool
	key    string
	value  string
}

type query []term

// parseQuery splits on whitespace outside double quotes. Supported terms:
// tag:, deck:, note:, nid:, field:value, and bare text.
func parseQuery(q string) query {
	var out query
	for _, tok := range tokenize(q) {
		t := term{}
		if strings.HasPrefix(tok, "-") && len(tok) > 1 {
			t.negate = true
			tok = tok[1:]
		}
		if len(tok) > 1 && strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) {
			tok = tok[1 : len(tok)-1]
		}
		if key, value, ok := strings.Cut(tok, ":"); ok && key != "" {
			t.key = strings.ToLower(key)
			t.value = strings.Trim(value, `"`)
		} else {
			t.value = strings.Trim(tok, `"`)
		}
		if t.key == "" && (t.value == "" || t.value == "*") {
			continue
		}
		out = append(out, t)
	}
	return out
}

func tokenize(q string) []string {
	var (
		toks    []string
		cur     strings.Builder
		inQuote bool
	)
	for _, r := range q {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t' || r == '\n'):
			if cur.Len() > 0 {
				toks = append(toks, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		toks = append(toks, cur.String())
	}
	return toks
}

func (q query) match(n *collection.Note) bool {
	for _, t := range q {
		if t.match(n) == t.negate {
			return false
		}
	}
	return true
}

func (t term) match(n *collection.Note) bool {
	switch t.key {
	case "":
		for _, f := range n.Fields {
			if containsFold(f.Value, t.value) {
				return true
			}
		}
		return false
	case "tag":
		for _, tag := range n.Tags {
			if wildcardFold(tag, t.value) {
				return true
			}
		}
		return false
	case "deck":
		return wildcardFold(n.DeckName, t.value) ||
			strings.HasPrefix(strings.ToLower(n.DeckName), strings.ToLower(t.value)+"::")
	case "note":
		return wildcardFold(n.NoteTypeName, t.value)
	case "nid":
		for _, part := range strings.Split(t.value, ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil && id == n.ID {
				return true
			}
		}
		return false
	default:
		for _, f := range n.Fields {
			if strings.EqualFold(f.Name, t.key) {
				return wildcardFold(f.Value, t.value)
			}
		}
		return false
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// wildcardFold matches case-insensitively with '*' standing for any run.
func wildcardFold(s, pattern string) bool {
	s, pattern = strings.ToLower(s), strings.ToLower(pattern)
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return s == pattern
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, mid := range parts[1 : len(parts)-1] {
		i := strings.Index(s, mid)
		if i < 0 {
			return false
		}
		s = s[i+len(mid):]
	}
	return strings.HasSuffix(s, last)
}
