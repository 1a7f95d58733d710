package ir

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrPayloadNotUTF8 is returned when a payload that is not valid UTF-8 would
// have to be encoded as a JSON string.
var ErrPayloadNotUTF8 = errors.New("payload is not valid UTF-8")

// Payload is a serialized snapshot of a row, held as UTF-8 text.
//
// A nil Payload is null (no data, e.g. OldData of an insert). A non-nil empty
// Payload is an empty value and is distinct from null.
type Payload []byte

// Text returns a non-null Payload holding s.
func Text(s string) Payload {
	p := make(Payload, len(s))
	copy(p, s)
	return p
}

// IsNull reports whether p carries no data at all.
func (p Payload) IsNull() bool {
	return p == nil
}

// String returns the payload contents, or "" for null.
func (p Payload) String() string {
	return string(p)
}

// ValidText reports whether p is null or valid UTF-8.
func (p Payload) ValidText() bool {
	return p == nil || utf8.Valid(p)
}

// Clone returns a copy that shares no memory with p.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	return Text(string(p))
}

// MarshalJSON encodes null payloads as JSON null and others as a string.
// Invalid UTF-8 is an error rather than being replaced with U+FFFD.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	if !utf8.Valid(p) {
		return nil, ErrPayloadNotUTF8
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON accepts null or a JSON string.
func (p *Payload) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	*p = Text(s)
	return nil
}

// Value implements driver.Valuer. Null payloads are stored as SQL NULL.
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return []byte(p), nil
}

// Scan implements sql.Scanner.
func (p *Payload) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = nil
	case []byte:
		*p = Text(string(v))
	case string:
		*p = Text(v)
	default:
		return fmt.Errorf("scan payload: unsupported type %T", src)
	}
	return nil
}
