// Package artwork defines the records and pages served by the artwork
// collection API.
package artwork

// ID uniquely identifies an artwork. IDs are stable across fetches.
type ID int

// Artwork is a single record of the collection.
type Artwork struct {
	ID            ID      `json:"id"`
	Title         string  `json:"title"`
	PlaceOfOrigin string  `json:"place_of_origin"`
	ArtistDisplay string  `json:"artist_display"`
	Inscriptions  *string `json:"inscriptions"`
	DateStart     int     `json:"date_start"`
	DateEnd       int     `json:"date_end"`
}

// InscriptionText returns the inscription or an empty string when absent.
func (a Artwork) InscriptionText() string {
	if a.Inscriptions == nil {
		return ""
	}
	return *a.Inscriptions
}

// Page is one server-paginated batch of records.
type Page struct {
	// Records in server order
	Records []Artwork `json:"records"`

	// Number is the 1-based page the records were fetched for
	Number int `json:"number"`

	// Limit is the page size the server applied
	Limit int `json:"limit"`

	// Total is the total record count reported at fetch time
	Total int `json:"total"`

	// TotalPages is the page count reported at fetch time (0 if unknown)
	TotalPages int `json:"total_pages"`
}

// IDs returns the record identifiers in server order.
func (p *Page) IDs() []ID {
	if p == nil {
		return nil
	}
	return IDsOf(p.Records)
}

// IDsOf returns the identifiers of records in order.
func IDsOf(records []Artwork) []ID {
	ids := make([]ID, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// IsLast reports whether no records exist after this page.
// A page shorter than the requested size is always the last one.
func (p *Page) IsLast(requested int) bool {
	if p == nil {
		return true
	}
	if len(p.Records) < requested {
		return true
	}
	return p.TotalPages > 0 && p.Number >= p.TotalPages
}
