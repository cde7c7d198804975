package hoppr

import "encoding/json"

// Payload is a normalized model reply: a plain JSON object.
type Payload map[string]any

// Responder is implemented by reply wrappers that expose a nested response,
// the way SDK reply objects carry their payload under a `response` attribute.
type Responder interface {
	ResponsePayload() any
}

// Normalize coerces the reply shapes the remote API has been observed to
// produce (a wrapper exposing a nested response, a JSON object, or a
// JSON-encoded string) into a Payload. The second return is false when the
// value cannot be interpreted as an object; malformed input is an absence,
// never an error. Normalize is idempotent and side-effect free.
func Normalize(v any) (Payload, bool) {
	switch t := v.(type) {
	case Responder:
		return Normalize(t.ResponsePayload())
	case Payload:
		return t, true
	case map[string]any:
		return Payload(t), true
	case string:
		return decodeObject([]byte(t))
	case []byte:
		return decodeObject(t)
	case json.RawMessage:
		return decodeObject(t)
	default:
		return nil, false
	}
}

func decodeObject(b []byte) (Payload, bool) {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, false
	}
	// JSON null decodes without error but carries no object.
	if m == nil {
		return nil, false
	}
	return Payload(m), true
}

// Score extracts the numeric "score" field from a normalized payload,
// checking the top level first and then one level down under "response".
// The reply shape is not contractually fixed across model versions, so both
// locations are tolerated and absence is not an error.
func Score(p Payload) (float64, bool) {
	if f, ok := numeric(p["score"]); ok {
		return f, true
	}
	if inner, ok := p["response"].(map[string]any); ok {
		return numeric(inner["score"])
	}
	return 0, false
}

// FindingsText extracts the narrative "findings" string from a normalized
// payload, top level first, then nested under "response".
func FindingsText(p Payload) (string, bool) {
	if s, ok := p["findings"].(string); ok {
		return s, true
	}
	if inner, ok := p["response"].(map[string]any); ok {
		s, ok := inner["findings"].(string)
		return s, ok
	}
	return "", false
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
