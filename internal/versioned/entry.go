// Package versioned pairs a cached registry document with the Last-Modified
// marker it was fetched with, so the registry can revalidate it conditionally.
package versioned

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"asset-registry-api/internal/hardcoded"
	"asset-registry-api/internal/models"
)

// Entry is an immutable (document, marker) pair. The zero Entry holds no
// document and an empty marker and means "no data yet".
type Entry struct {
	value        any
	lastModified string
}

// New stores value and lastModified as they are. No shape validation is done.
func New(value any, lastModified string) Entry {
	return Entry{value: value, lastModified: lastModified}
}

// FromHardCoded builds an entry from the built-in catalog. The marker is left
// empty so the first fetch is never conditional.
func FromHardCoded(network models.Network, kind models.Kind) Entry {
	v, err := ParseValue(hardcoded.Document(network, kind))
	if err != nil {
		v = map[string]any{}
	}
	return Entry{value: v}
}

// LastModified returns the revalidation marker. Empty means never validated.
func (e Entry) LastModified() string {
	return e.lastModified
}

// IsZero reports whether e is the default entry.
func (e Entry) IsZero() bool {
	return isNull(e.value) && e.lastModified == ""
}

// Equal reports whether both entries hold structurally equal documents and
// byte-equal markers.
func (e Entry) Equal(other Entry) bool {
	return e.lastModified == other.lastModified && equalValues(e.value, other.value)
}

// MarshalValue encodes only the document.
func (e Entry) MarshalValue() ([]byte, error) {
	return json.Marshal(e.value)
}

type wireEntry struct {
	Value        json.RawMessage `json:"value"`
	LastModified string          `json:"last_modified"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	v, err := e.MarshalValue()
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEntry{Value: v, LastModified: e.lastModified})
}

// UnmarshalJSON implements json.Unmarshaler. Numbers are kept as json.Number.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var v any
	if len(w.Value) > 0 {
		parsed, err := ParseValue(w.Value)
		if err != nil {
			return err
		}
		v = parsed
	}
	*e = Entry{value: v, lastModified: w.LastModified}
	return nil
}

// ParseValue decodes a single JSON document into a generic tree, keeping
// numbers as json.Number so no precision is lost.
func ParseValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON document")
	}
	return v, nil
}
