package editor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// Payload is the draft field bag of one section.  Values always have their
// canonical JSON shapes (string, float64, bool, []any, map[string]any, nil)
// so drafts seeded from an entity compare equal to drafts decoded from a
// request body.
type Payload map[string]any

// normalize converts arbitrary Go values into their canonical JSON shapes.
func normalize(in map[string]any) (Payload, error) {
	if in == nil {
		return Payload{}, nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	out := Payload{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return out, nil
}

// Clone returns a deep copy of p.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Payload:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}

// String returns the trimmed string value of key.
func (p Payload) String(key string) string {
	s, _ := p[key].(string)
	return strings.TrimSpace(s)
}

// Number returns the numeric value of key.
func (p Payload) Number(key string) (float64, bool) {
	switch t := p[key].(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// Bool returns the boolean value of key.
func (p Payload) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Len returns the number of elements of a list value, or zero.
func (p Payload) Len(key string) int {
	if s, ok := p[key].([]any); ok {
		return len(s)
	}
	return 0
}

// Decode unmarshals the value stored under key into out.
func (p Payload) Decode(key string, out any) error {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// entityFields flattens a service into its wire field map.
func entityFields(svc *model.Service) map[string]any {
	out := map[string]any{}
	if svc == nil {
		return out
	}
	raw, err := json.Marshal(svc)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}
