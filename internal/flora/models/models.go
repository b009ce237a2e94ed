package models

import (
	"fmt"
	"maps"
	"slices"
)

// PostType is the visibility category of a flora record.
type PostType string

const (
	PostTypePublic  PostType = "public"
	PostTypePrivate PostType = "private"
)

// IsValid reports whether t is a known category.
func (t PostType) IsValid() bool {
	return t == PostTypePublic || t == PostTypePrivate
}

// Record is the unified view of a flora entry. It is complete only when both the
// structured row and the document exist under ID.
type Record struct {
	ID             string
	UserID         string
	CommonName     string
	ScientificName string
	Type           PostType
	Image          []byte
	Description    string
	Origin         string
	OtherDetails   map[string]any
}

// StructuredRow is the half of a Record owned by the structured store. ID is
// assigned by the store on create.
type StructuredRow struct {
	ID             string
	UserID         string
	CommonName     string
	ScientificName string
	Type           PostType
}

// Document is the half of a Record owned by the document store, keyed by the
// structured row's ID.
type Document struct {
	FloraID      string
	Image        []byte
	Description  string
	Origin       string
	OtherDetails map[string]any
}

// ToStructuredRow projects the structured fields of r. The ID is left to the store.
func ToStructuredRow(r Record) StructuredRow {
	return StructuredRow{
		UserID:         r.UserID,
		CommonName:     r.CommonName,
		ScientificName: r.ScientificName,
		Type:           r.Type,
	}
}

// ToDocument projects the document fields of r under id.
func ToDocument(id string, r Record) Document {
	return Document{
		FloraID:      id,
		Image:        slices.Clone(r.Image),
		Description:  r.Description,
		Origin:       r.Origin,
		OtherDetails: maps.Clone(r.OtherDetails),
	}
}

// Merge joins both halves into a Record. The structured row owns the ID.
func Merge(row StructuredRow, doc Document) Record {
	return Record{
		ID:             row.ID,
		UserID:         row.UserID,
		CommonName:     row.CommonName,
		ScientificName: row.ScientificName,
		Type:           row.Type,
		Image:          slices.Clone(doc.Image),
		Description:    doc.Description,
		Origin:         doc.Origin,
		OtherDetails:   maps.Clone(doc.OtherDetails),
	}
}

func (r Record) String() string {
	return fmt.Sprintf("Flora(id=%s, user_id=%s, common_name=%s, scientific_name=%s, type=%s)",
		r.ID, r.UserID, r.CommonName, r.ScientificName, r.Type)
}
