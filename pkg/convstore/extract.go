package convstore

import "encoding/json"

// ExtractText returns the plain text of a Message, tolerating every
// shape the spec's dual message representation allows: a scalar Text
// field, an ordered Content array whose text parts are either bare
// JSON strings or `{"value": "..."}` objects, missing Text, or an
// empty Content array. This is the single place the store's dynamic
// typing is resolved (spec §9's "dual message shape" design note) —
// callers elsewhere work with a plain string.
func ExtractText(m Message) string {
	if m.Text != "" {
		return m.Text
	}

	var out string
	for _, part := range m.Content {
		if part.Type != "" && part.Type != "text" {
			continue
		}
		out += extractPartText(part.Text)
	}
	return out
}

func extractPartText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}

	return ""
}
