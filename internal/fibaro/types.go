package fibaro

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// InitialCursor is sent on the first refreshStates request.
const InitialCursor Cursor = "0"

// Cursor is the opaque change position returned by refreshStates.
// The hub sends it as a JSON number; strings are accepted too.
type Cursor string

// UnmarshalJSON accepts a JSON number or string.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("cursor: null value")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Cursor(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cursor: %w", err)
	}
	*c = Cursor(n.String())
	return nil
}

// String returns the cursor as sent in the last= query parameter.
func (c Cursor) String() string {
	return string(c)
}

// Properties holds device property values normalised to strings.
//
// Booleans become "1" and "0", fractional numbers are formatted without
// trailing zeros, integers keep their digits exactly, nested objects and arrays keep their compact JSON text and
// nulls are dropped.
type Properties map[string]string

// Get returns the value for key and whether it was present.
func (p Properties) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// UnmarshalJSON decodes a JSON object, normalising each value.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Properties, len(raw))
	for k, v := range raw {
		s, ok, err := normalise(v)
		if err != nil {
			return fmt.Errorf("property %q: %w", k, err)
		}
		if ok {
			out[k] = s
		}
	}
	*p = out
	return nil
}

func normalise(v json.RawMessage) (string, bool, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "", false, nil
	}

	switch v[0] {
	case 'n':
		return "", false, nil
	case 't':
		return "1", true, nil
	case 'f':
		return "0", true, nil
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return "", false, err
		}
		return buf.String(), true, nil
	default:
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return "", false, err
		}
		return formatNumber(n), true, nil
	}
}

// formatNumber drops trailing fractional zeros. Integers, and values a
// float64 cannot hold, keep their literal text.
func formatNumber(n json.Number) string {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Device is one entry of the devices listing.
type Device struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	RoomID     int        `json:"roomID"`
	Properties Properties `json:"properties"`
}

// Change is the set of fields that changed for one device since the
// previous cursor. Only fields present on the wire are in Fields.
type Change struct {
	ID     int
	Fields Properties
}

// UnmarshalJSON splits the flat wire object into ID and Fields.
// A missing or non-numeric id yields ID 0, which matches no device.
func (c *Change) UnmarshalJSON(data []byte) error {
	var fields Properties
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["id"]; ok {
		if id, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			c.ID = id
		}
		delete(fields, "id")
	}
	c.Fields = fields
	return nil
}

// StatesResponse is the body of a refreshStates reply.
// Last is nil when the hub omitted it.
type StatesResponse struct {
	Last    *Cursor  `json:"last"`
	Changes []Change `json:"changes"`
}
