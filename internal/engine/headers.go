package engine

import (
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// requestHeaders returns the configured headers plus a default User-Agent.
// Configured headers win, matched case-insensitively.
func requestHeaders(configured map[string]string, info mcp.Implementation) map[string]string {
	defaults := map[string]string{"User-Agent": info.Name + "/" + info.Version}
	return mergeHeaders(mergeHeaders(nil, configured, true), defaults, false)
}

// mergeHeaders applies src entries into dst using case-insensitive key
// matching. When overwrite is false, existing dst entries win.
func mergeHeaders(dst, src map[string]string, overwrite bool) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for _, key := range sortedKeys(src) {
		name := strings.TrimSpace(key)
		if name == "" {
			continue
		}
		if existing, ok := lookupKeyFold(dst, name); ok {
			if !overwrite {
				continue
			}
			delete(dst, existing)
		}
		dst[name] = src[key]
	}
	return dst
}

func sortedKeys(src map[string]string) []string {
	keys := make([]string, 0, len(src))
	for key := range src {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		li := strings.ToLower(strings.TrimSpace(keys[i]))
		lj := strings.ToLower(strings.TrimSpace(keys[j]))
		if li == lj {
			return keys[i] < keys[j]
		}
		return li < lj
	})
	return keys
}

func lookupKeyFold(headers map[string]string, name string) (string, bool) {
	for key := range headers {
		if strings.EqualFold(strings.TrimSpace(key), strings.TrimSpace(name)) {
			return key, true
		}
	}
	return "", false
}
