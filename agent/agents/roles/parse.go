package roles

import (
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/iafluence/agentic-seller/agent/contract"
)

// decodeReply extracts the JSON document from a model reply. Models wrap JSON
// in markdown fences or surround it with prose often enough that callers must
// go through this instead of json.Unmarshal directly.
func decodeReply[T any](raw string) (*T, error) {
	body := stripFences(raw)

	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", contractx.ErrSchemaViolation)
	}

	var out T
	if err := json.Unmarshal([]byte(body[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	return &out, nil
}

// degradedFallback is shown to the prospect when a role has no usable model
// text at all, keeping the turn conversational instead of surfacing an error.
const degradedFallback = "Sorry, we hit a technical issue on our side. Could you send that again?"

// degradedContent picks the text surfaced in a degraded assistant message.
// Free text from the model is still worth showing; a failed completion call
// leaves nothing, so the canned line is used instead.
func degradedContent(raw string) string {
	if s := strings.TrimSpace(raw); s != "" {
		return s
	}
	return degradedFallback
}

// degradeReason tags the degraded message metadata with what went wrong.
func degradeReason(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "completion_failed"
	}
	return "parse_failed"
}

func stripFences(raw string) string {
	body := strings.TrimSpace(raw)
	if idx := strings.Index(body, "```json"); idx >= 0 {
		body = body[idx+len("```json"):]
	} else if idx := strings.Index(body, "```"); idx >= 0 {
		body = body[idx+len("```"):]
	} else {
		return body
	}
	if idx := strings.Index(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
