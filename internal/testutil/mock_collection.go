// Package testutil provides testing utilities for the collection client and
// everything built on it.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/artsel/pkg/artwork"
)

// CollectionPath is the list endpoint served by MockCollection.
const CollectionPath = "/artworks"

// FirstID is the identifier of the first generated record.
const FirstID = 1000

// PageRequest records one request received by the mock.
type PageRequest struct {
	Page   int
	Limit  int
	Fields string
	Header http.Header
}

// MockCollection is a configurable mock of the paginated collection API.
type MockCollection struct {
	server *httptest.Server

	mu        sync.RWMutex
	records   []artwork.Artwork
	failPages map[int]int
	headers   map[string]string
	delay     time.Duration
	hook      func(page int)
	requests  []PageRequest
}

// NewMockCollection creates a mock serving total generated records.
func NewMockCollection(total int) *MockCollection {
	mock := &MockCollection{
		records:   MakeArtworks(total),
		failPages: make(map[int]int),
		headers:   make(map[string]string),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// MakeArtworks generates n records with sequential IDs starting at FirstID.
// Every third record has no inscription.
func MakeArtworks(n int) []artwork.Artwork {
	records := make([]artwork.Artwork, n)
	for i := range records {
		var inscription *string
		if i%3 != 0 {
			s := fmt.Sprintf("inscribed %d", i)
			inscription = &s
		}
		records[i] = artwork.Artwork{
			ID:            artwork.ID(FirstID + i),
			Title:         fmt.Sprintf("Artwork %d", i+1),
			PlaceOfOrigin: "Chicago",
			ArtistDisplay: fmt.Sprintf("Artist %d", i%7),
			Inscriptions:  inscription,
			DateStart:     1800 + i,
			DateEnd:       1805 + i,
		}
	}
	return records
}

// URL returns the mock server base URL (without the collection path).
func (m *MockCollection) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCollection) Close() {
	m.server.Close()
}

// Reset clears recorded requests, failures, headers, delay and hook.
func (m *MockCollection) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.failPages = make(map[int]int)
	m.headers = make(map[string]string)
	m.delay = 0
	m.hook = nil
}

// FailPage makes requests for page answer with status.
func (m *MockCollection) FailPage(page, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPages[page] = status
}

// SetHeader adds a header to every response.
func (m *MockCollection) SetHeader(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headers[key] = value
}

// SetDelay delays every response.
func (m *MockCollection) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetHook installs a function called with the page number before each
// response is written. It may block.
func (m *MockCollection) SetHook(hook func(page int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
}

// Requests returns a copy of the recorded requests.
func (m *MockCollection) Requests() []PageRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PageRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestedPages returns the page numbers requested, in order.
func (m *MockCollection) RequestedPages() []int {
	reqs := m.Requests()
	pages := make([]int, len(reqs))
	for i, r := range reqs {
		pages[i] = r.Page
	}
	return pages
}

// RequestCount returns the number of requests received.
func (m *MockCollection) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// IDs returns the identifiers of records [from, to) in server order.
func (m *MockCollection) IDs(from, to int) []artwork.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if to > len(m.records) {
		to = len(m.records)
	}
	if from >= to {
		return []artwork.ID{}
	}
	return artwork.IDsOf(m.records[from:to])
}

func (m *MockCollection) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != CollectionPath {
		http.NotFound(w, r)
		return
	}

	page, err := intParam(r, "page", 1)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	limit, err := intParam(r, "limit", 12)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	m.mu.Lock()
	m.requests = append(m.requests, PageRequest{
		Page:   page,
		Limit:  limit,
		Fields: r.URL.Query().Get("fields"),
		Header: r.Header.Clone(),
	})
	status, failing := m.failPages[page]
	delay := m.delay
	hook := m.hook
	headers := make(map[string]string, len(m.headers))
	for k, v := range m.headers {
		headers[k] = v
	}
	total := len(m.records)
	offset := (page - 1) * limit
	var data []artwork.Artwork
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		data = append([]artwork.Artwork{}, m.records[offset:end]...)
	}
	m.mu.Unlock()

	if hook != nil {
		hook(page)
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	for k, v := range headers {
		w.Header().Set(k, v)
	}

	if failing {
		writeError(w, status, http.StatusText(status))
		return
	}

	if data == nil {
		data = []artwork.Artwork{}
	}
	resp := artwork.ListResponse{
		Pagination: artwork.Pagination{
			Total:       total,
			Limit:       limit,
			Offset:      offset,
			TotalPages:  (total + limit - 1) / limit,
			CurrentPage: page,
		},
		Data: data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "error": msg})
}
