package models

import "maps"

// RawDocument is a document as delivered by the document store: its id and
// an untyped attribute map. Only the projector pass looks inside Attributes.
type RawDocument struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
}

// Clone returns a copy whose top-level attribute map can be mutated safely
func (d RawDocument) Clone() RawDocument {
	return RawDocument{ID: d.ID, Attributes: maps.Clone(d.Attributes)}
}
