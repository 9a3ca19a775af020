// Package storetest provides an in-memory entry store served over HTTP for
// tests of the api client and everything built on it.
package storetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/perfassist/internal/constants"
	"github.com/julianstephens/perfassist/internal/models"
)

// Call records one request received by the store
type Call struct {
	Method    string
	Path      string
	Query     string
	RequestID string
	Body      models.Entry
}

// Server is a fake entry store
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	entries  map[string]models.Entry
	nextID   int
	calls    []Call
	failures map[string][]int // method -> queued statuses
	listBody *string
	holds    map[string]chan struct{} // list "from" date -> release
	summary  models.Summary
	lastAuth string
}

// New starts a fake store that is shut down when the test ends
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		entries:  make(map[string]models.Entry),
		failures: make(map[string][]int),
		holds:    make(map[string]chan struct{}),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Route("/entries", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Put("/{id}", s.update)
		r.Delete("/{key}", s.delete)
	})
	r.Post(constants.SummaryPath, s.generateSummary)
	return r
}

// Seed stores entries directly, assigning ids where missing
func (s *Server) Seed(entries ...models.Entry) []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			e.ID = s.newID()
		}
		if e.CreatedAt == "" {
			e.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
		}
		s.entries[e.ID] = e
		out = append(out, e)
	}
	return out
}

// Entries returns every stored entry ordered by date then kind
func (s *Server) Entries() []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Calls returns the requests received so far
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo counts the requests received for method
func (s *Server) CallsTo(method string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// FailNext makes the next request with method answer status. Calls queue.
func (s *Server) FailNext(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], status)
}

// SetListBody makes every list request answer 200 with body verbatim
func (s *Server) SetListBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listBody = &body
}

// Hold blocks list requests whose from parameter equals from until the
// returned function is called.
func (s *Server) Hold(from string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[from] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// SetSummary sets the payload returned by the summary endpoint
func (s *Server) SetSummary(summary models.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
}

// LastAuthorization returns the Authorization header of the last summary call
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

func (s *Server) newID() string {
	s.nextID++
	return fmt.Sprintf("e%d", s.nextID)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			RequestID: r.Header.Get(constants.RequestIDHeader),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		queue := s.failures[r.Method]
		var status int
		if len(queue) > 0 {
			status = queue[0]
			s.failures[r.Method] = queue[1:]
		}
		s.mu.Unlock()
		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recordBody stores the decoded body on the latest call
func (s *Server) recordBody(e models.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.calls); n > 0 {
		s.calls[n-1].Body = e
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	userID := r.URL.Query().Get("user_id")

	s.mu.Lock()
	hold := s.holds[from]
	s.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	body := s.listBody
	s.mu.Unlock()
	if body != nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(*body))
		return
	}

	var out []models.Entry
	for _, e := range s.Entries() {
		if userID != "" && e.UserID != userID {
			continue
		}
		if (from == "" || e.Date >= from) && (to == "" || e.Date <= to) {
			out = append(out, e)
		}
	}
	if out == nil {
		out = []models.Entry{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req models.Entry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	s.recordBody(req)
	if req.Date == "" || (req.Kind != models.KindPlan && req.Kind != models.KindFact) {
		http.Error(w, "date and type required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	for _, e := range s.entries {
		if e.UserID == req.UserID && e.Date == req.Date && e.Kind == req.Kind {
			s.mu.Unlock()
			http.Error(w, "entry exists", http.StatusConflict)
			return
		}
	}
	req.ID = s.newID()
	req.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	s.entries[req.ID] = req
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.Entry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	s.recordBody(req)

	s.mu.Lock()
	existing, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	existing.Text = req.Text
	s.entries[id] = existing
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	userID := r.URL.Query().Get("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		byDate := e.Date == key && (userID == "" || e.UserID == userID)
		if byDate || id == key {
			delete(s.entries, id)
			removed++
		}
	}
	if removed == 0 && !strings.Contains(key, "-") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) generateSummary(w http.ResponseWriter, r *http.Request) {
	var req models.SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.lastAuth = r.Header.Get("Authorization")
	summary := s.summary
	s.mu.Unlock()
	if summary.Goals == nil {
		summary.Goals = []models.Goal{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
