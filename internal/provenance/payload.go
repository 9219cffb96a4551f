package provenance

import "encoding/json"

// Payload is an opaque structured document (nested map of string to
// primitive/array/map). The engine never interprets or validates its shape;
// it exists for callers and the UI to render, and for equality filters on
// top-level keys via json_extract.
type Payload map[string]any

func marshalPayload(p Payload) (string, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalPayload tolerates malformed stored JSON by returning an empty
// payload; reads never fail on payload content.
func unmarshalPayload(s string) Payload {
	if s == "" {
		return Payload{}
	}
	var p Payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Payload{}
	}
	return p
}

// String returns a payload value as a string, or "" when absent or not a
// string. Used for label precedence in the graph builder.
func (p Payload) String(key string) string {
	if p == nil {
		return ""
	}
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}
