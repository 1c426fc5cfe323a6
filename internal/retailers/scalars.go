package retailers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text decodes any JSON scalar to its textual form.
// Retailers flip between "4.5" and 4.5 from one deploy to the next, so strings and
// numbers are both accepted verbatim. Objects, arrays and null decode to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[', 'n':
		*t = ""
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// Flag decodes booleans that may arrive as true/false, "true"/"false", 1/0 or "yes"/"no".
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var t Text
	if err := t.UnmarshalJSON(b); err != nil {
		return err
	}
	switch strings.ToLower(t.String()) {
	case "true", "yes", "y":
		*f = true
		return nil
	case "", "false", "no", "n":
		*f = false
		return nil
	}
	n, err := strconv.ParseFloat(t.String(), 64)
	*f = Flag(err == nil && n != 0)
	return nil
}

// List decodes either a JSON array or a single bare value into a slice.
// JSON-LD producers emit "offers": {...} and "offers": [{...}] interchangeably.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == 'n' {
		*l = nil
		return nil
	}
	if b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*l = List[T]{one}
	return nil
}
