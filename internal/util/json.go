package util

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrTruncatedJSON is returned by RepairJSON for payloads that end before
// every string, object and array they open is closed.
var ErrTruncatedJSON = errors.New("truncated json")

// RepairJSON returns raw as valid JSON. A surrounding markdown fence is
// stripped and syntax slips models commonly make (single quotes, trailing
// commas, unquoted keys) are repaired. Truncated payloads are never completed.
func RepairJSON(raw string) (string, error) {
	s := strings.TrimSpace(StripFence(raw))
	if json.Valid([]byte(s)) {
		return s, nil
	}
	if !closed(s) {
		return "", ErrTruncatedJSON
	}
	return jsonrepair.JSONRepair(s)
}

// StripFence removes a surrounding ```json ... ``` code fence.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// closed reports whether s opens a JSON container and closes every string,
// object and array it opens. Both quote styles are tracked.
func closed(s string) bool {
	var (
		depth   int
		opened  bool
		quote   rune
		escaped bool
	)
	for _, r := range s {
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'':
			quote = r
		case '{', '[':
			depth++
			opened = true
		case '}', ']':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return opened && depth == 0 && quote == 0
}
