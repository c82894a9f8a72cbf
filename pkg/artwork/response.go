package artwork

// ListResponse is the wire format of the collection list endpoint.
type ListResponse struct {
	Pagination Pagination `json:"pagination"`
	Data       []Artwork  `json:"data"`
}

// Pagination is the pagination block of ListResponse.
type Pagination struct {
	Total       int `json:"total"`
	Limit       int `json:"limit"`
	Offset      int `json:"offset"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

// ToPage converts the response into a Page for the requested page number.
func (r *ListResponse) ToPage(requested int) *Page {
	number := r.Pagination.CurrentPage
	if number <= 0 {
		number = requested
	}
	records := r.Data
	if records == nil {
		records = []Artwork{}
	}
	return &Page{
		Records:    records,
		Number:     number,
		Limit:      r.Pagination.Limit,
		Total:      r.Pagination.Total,
		TotalPages: r.Pagination.TotalPages,
	}
}

// Fields lists the record fields requested from the API.
var Fields = []string{
	"id",
	"title",
	"place_of_origin",
	"artist_display",
	"inscriptions",
	"date_start",
	"date_end",
}
