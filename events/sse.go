package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// RetryMillis is the reconnect delay advertised to SSE clients.
const RetryMillis = 15000

// KeepAlive is an SSE comment line that keeps idle connections open.
const KeepAlive = ":keepalive\n\n"

// FormatSSE renders data as one server-sent event of type eventType.
func FormatSSE(eventType string, data any) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]any{"data": data}); err != nil {
		return "", oops.Code("SSE_ENCODE_FAILED").With("event", eventType).Wrap(err)
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("event: %s\n", eventType))
	sb.WriteString(fmt.Sprintf("retry: %d\n", RetryMillis))
	sb.WriteString(fmt.Sprintf("data: %s\n\n", strings.TrimRight(buf.String(), "\n")))
	return sb.String(), nil
}
