package testutils

import (
	"strings"
)

// SSERecord is one parsed server-sent event.
type SSERecord struct {
	Event string
	Data  string
}

// ParseSSE parses a raw text/event-stream body into event records.
// Comment lines (keepalives) are dropped.
func ParseSSE(body string) []SSERecord {
	var records []SSERecord
	var current SSERecord

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case line == "":
			if current.Event != "" || current.Data != "" {
				records = append(records, current)
				current = SSERecord{}
			}
		case strings.HasPrefix(line, ":"):
			// comment / keepalive
		case strings.HasPrefix(line, "event:"):
			current.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if current.Data != "" {
				current.Data += "\n"
			}
			current.Data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if current.Event != "" || current.Data != "" {
		records = append(records, current)
	}
	return records
}
