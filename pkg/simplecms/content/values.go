package content

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Values holds the submitted values of a content record, keyed by attribute id.
type Values map[string]AttributeValue

// AttributeValue holds the values of one attribute, keyed by input id.
type AttributeValue map[string]InputValue

// InputValue is either a single entry (JSON object) or, for repeatable
// attributes, a list of entries (JSON array).
type InputValue struct {
	Single    *Entry
	Repeating []Entry
}

// Entry wraps the stored value of an input.
type Entry struct {
	Value json.RawMessage `json:"value"`
}

// FileValue is the stored value of a file input.
type FileValue struct {
	Original string `json:"original,omitempty"` // name of the uploaded file
	Name     string `json:"name,omitempty"`     // stored file name
	Type     string `json:"type,omitempty"`     // mime type
	Relative string `json:"relative"`           // storage key below the public root
	Absolute string `json:"absolute,omitempty"`
}

// SingleValue builds a single entry input value.
func SingleValue(v any) (InputValue, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return InputValue{}, err
	}
	return InputValue{Single: &Entry{Value: raw}}, nil
}

// RepeatingValue builds a repeating input value.
func RepeatingValue(vs ...any) (InputValue, error) {
	entries := make([]Entry, 0, len(vs))
	for _, v := range vs {
		raw, err := json.Marshal(v)
		if err != nil {
			return InputValue{}, err
		}
		entries = append(entries, Entry{Value: raw})
	}
	return InputValue{Repeating: entries}, nil
}

// IsRepeating reports whether the value holds a list of entries.
func (v InputValue) IsRepeating() bool {
	return v.Single == nil && v.Repeating != nil
}

// Entries returns the entries of the value regardless of its shape.
func (v InputValue) Entries() []Entry {
	if v.Single != nil {
		return []Entry{*v.Single}
	}
	return v.Repeating
}

func (v InputValue) MarshalJSON() ([]byte, error) {
	if v.Single != nil {
		return json.Marshal(v.Single)
	}
	if v.Repeating == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v.Repeating)
}

func (v *InputValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return errors.New("empty input value")
	case trimmed[0] == '[':
		var entries []Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return err
		}
		*v = InputValue{Repeating: entries}
	case trimmed[0] == '{':
		var entry Entry
		if err := json.Unmarshal(trimmed, &entry); err != nil {
			return err
		}
		*v = InputValue{Single: &entry}
	case bytes.Equal(trimmed, []byte("null")):
		*v = InputValue{}
	default:
		return errors.New("input value must be an object or an array")
	}
	return nil
}

// Text returns the first entry's value when it is a JSON string.
func (v InputValue) Text() (string, bool) {
	for _, e := range v.Entries() {
		var s string
		if err := json.Unmarshal(e.Value, &s); err == nil {
			return s, true
		}
		return "", false
	}
	return "", false
}

// File decodes the entry as a file value.
func (e Entry) File() (FileValue, bool) {
	var fv FileValue
	if len(e.Value) == 0 || json.Unmarshal(e.Value, &fv) != nil || fv.Relative == "" {
		return FileValue{}, false
	}
	return fv, true
}

// Clone returns a deep copy of the values.
func (vals Values) Clone() Values {
	if vals == nil {
		return nil
	}
	out := make(Values, len(vals))
	for attr, inputs := range vals {
		out[attr] = inputs.Clone()
	}
	return out
}

// Clone returns a deep copy of the attribute value.
func (av AttributeValue) Clone() AttributeValue {
	if av == nil {
		return nil
	}
	out := make(AttributeValue, len(av))
	for id, v := range av {
		out[id] = v.clone()
	}
	return out
}

func (v InputValue) clone() InputValue {
	if v.Single != nil {
		e := v.Single.clone()
		return InputValue{Single: &e}
	}
	if v.Repeating == nil {
		return InputValue{}
	}
	entries := make([]Entry, len(v.Repeating))
	for i, e := range v.Repeating {
		entries[i] = e.clone()
	}
	return InputValue{Repeating: entries}
}

func (e Entry) clone() Entry {
	if e.Value == nil {
		return Entry{}
	}
	return Entry{Value: append(json.RawMessage(nil), e.Value...)}
}
