package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/mousetail/mousetail/internal/errcode"
)

// Field is one named note field.
type Field struct {
	Name  string
	Value string
}

// Fields keeps note fields in note-type order. It marshals as a JSON object
// whose keys appear in that order.
type Fields []Field

// MarshalJSON writes the fields as an ordered object.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of string values, keeping key order.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields: expected object, got %v", tok)
	}

	var out Fields
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("fields: expected key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("fields: %s: %w", key, err)
		}
		out = append(out, Field{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}

// Names returns the field names in order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, field := range f {
		names[i] = field.Name
	}
	return names
}

// Note is a note as the tool layer sees it.
type Note struct {
	ID           int64    `json:"id"`
	GUID         string   `json:"guid"`
	NoteTypeID   int64    `json:"note_type_id"`
	NoteTypeName string   `json:"note_type_name"`
	DeckID       int64    `json:"deck_id"`
	DeckName     string   `json:"deck_name"`
	Fields       Fields   `json:"fields"`
	Tags         []string `json:"tags"`
	CardIDs      []int64  `json:"card_ids"`
}

// NewNote returns an unsaved note of type nt with every field empty.
func NewNote(nt NoteType) *Note {
	fields := make(Fields, len(nt.Fields))
	for i, name := range nt.Fields {
		fields[i] = Field{Name: name}
	}
	return &Note{
		NoteTypeID:   nt.ID,
		NoteTypeName: nt.Name,
		Fields:       fields,
		Tags:         []string{},
	}
}

// FieldNotFoundError reports an assignment to a field the note type lacks.
type FieldNotFoundError struct {
	Field     string
	NoteType  string
	Available []string
}

func (e *FieldNotFoundError) Error() string {
	if e.NoteType == "" {
		return fmt.Sprintf("field %q not found", e.Field)
	}
	return fmt.Sprintf("field %q not found in note type %q", e.Field, e.NoteType)
}

// Field returns the value of the named field.
func (n *Note) Field(name string) (string, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Set assigns a field by name. Unknown names fail with a NotFound error
// wrapping *FieldNotFoundError.
func (n *Note) Set(name, value string) error {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			n.Fields[i].Value = value
			return nil
		}
	}
	return errcode.Wrap(errcode.NotFound, &FieldNotFoundError{
		Field:     name,
		NoteType:  n.NoteTypeName,
		Available: n.Fields.Names(),
	})
}

// HasTag reports whether the note carries tag, ignoring case.
func (n *Note) HasTag(tag string) bool {
	return slices.ContainsFunc(n.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
}

// AddTag appends tag unless blank or already present. Anki tags cannot
// contain spaces, so a tag with spaces adds each word.
func (n *Note) AddTag(tag string) {
	for _, word := range strings.Fields(tag) {
		if !n.HasTag(word) {
			n.Tags = append(n.Tags, word)
		}
	}
}

// RemoveTag drops tag, ignoring case.
func (n *Note) RemoveTag(tag string) {
	n.Tags = slices.DeleteFunc(n.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
}

// ClearTags removes every tag.
func (n *Note) ClearTags() {
	n.Tags = []string{}
}

// Clone returns a deep copy.
func (n *Note) Clone() *Note {
	c := *n
	c.Fields = slices.Clone(n.Fields)
	c.Tags = slices.Clone(n.Tags)
	c.CardIDs = slices.Clone(n.CardIDs)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c
}
