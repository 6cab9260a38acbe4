package analysis

import (
	"encoding/json"
	"strings"
)

// DecodeResponse parses the analysis service's text into a Response.
// Providers wrap JSON in prose or code fences often enough that a
// failed direct parse falls back to scanning for the first balanced
// object and re-parsing that. Total failure is tolerated: the raw text
// is kept for diagnostics and the shortlist stays empty.
func DecodeResponse(content string) *Response {
	trimmed := strings.TrimSpace(content)

	if resp := tryDecode(trimmed); resp != nil {
		return resp
	}
	if obj := firstBalancedObject(trimmed); obj != "" {
		if resp := tryDecode(obj); resp != nil {
			return resp
		}
	}
	return &Response{Raw: content}
}

func tryDecode(s string) *Response {
	var resp Response
	if err := json.Unmarshal([]byte(s), &resp); err != nil {
		return nil
	}
	if resp.Shortlist == nil {
		return nil
	}
	return &resp
}

// firstBalancedObject returns the first {...} span whose braces balance,
// ignoring braces inside JSON strings.
func firstBalancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
