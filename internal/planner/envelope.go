package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFences removes markdown code-fence decoration around a JSON reply.
func stripFences(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// decodeEnvelope parses a possibly fenced JSON reply into T. Any failure is
// reported as ErrMalformedOutput.
func decodeEnvelope[T any](raw string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(stripFences(raw)), &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return v, nil
}
