// Package apitest runs an in-process fake of the rental API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"kiraye/models"
)

const roleClaim = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

// Request is one call the fake received.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Form   url.Values // multipart values
	Files  map[string][]string
}

// Server serves canned data. Fields may be changed between calls under Lock.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []Request
	failures  map[string]failure
	Cities    []models.City
	Regions   map[int][]models.Region
	Amenities []models.Amenity
	Listings  []models.Listing
	Responses map[string]string // path -> raw body override for 2xx
}

type failure struct {
	status      int
	contentType string
	body        string
}

func New() *Server {
	s := &Server{
		failures:  map[string]failure{},
		Regions:   map[int][]models.Region{},
		Responses: map[string]string{},
	}

	r := chi.NewRouter()
	r.Use(s.record)

	r.Get("/City/GetAll", s.json(func(*http.Request) any { return s.Cities }))
	r.Get("/Amenity/GetAll", s.json(func(*http.Request) any { return s.Amenities }))
	r.Get("/Region/GetRegionsByCityId/{cityID}", s.json(func(r *http.Request) any {
		id, _ := strconv.Atoi(chi.URLParam(r, "cityID"))
		return s.Regions[id]
	}))

	r.Get("/House/Filter", s.json(s.filter))
	r.Get("/House/Get/{id}", s.listing)

	r.Group(func(r chi.Router) {
		r.Use(requireBearer)
		r.Get("/House/GetByOwner/{id}", s.ownedListing)
		r.Get("/House/GetAllByOwnerId", s.json(func(r *http.Request) any {
			return map[string]any{"items": s.ownedBy(Subject(r))}
		}))
		r.Post("/House/Create", s.accept)
		r.Put("/House/Update", s.accept)
		r.Put("/House/SoftDelete/{id}", s.softDelete)
		r.Post("/Auth/ChangePassword", s.text("Password changed."))
		r.Delete("/Auth/DeleteAccount", s.text(""))
	})

	r.Post("/Auth/Login", s.login)
	r.Post("/Auth/Register", s.json(func(*http.Request) any {
		return map[string]string{"message": "Registered."}
	}))
	r.Post("/Auth/ForgotPassword", s.text(""))
	r.Post("/Auth/ResetPassword", s.text("Password reset."))
	r.Post("/Auth/ConfirmMakler", s.text("Confirmed."))

	s.Server = httptest.NewServer(r)
	return s
}

// Fail makes every later call to path answer with status and body.
func (s *Server) Fail(path string, status int, contentType, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, contentType: contentType, body: body}
}

func (s *Server) Lock()   { s.mu.Lock() }
func (s *Server) Unlock() { s.mu.Unlock() }

// Requests returns the calls made to path so far.
func (s *Server) Requests(path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Request
	for _, r := range s.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Total is the number of calls across all paths.
func (s *Server) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Auth:   r.Header.Get("Authorization"),
		}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(32 << 20); err == nil {
				rec.Form = url.Values(r.MultipartForm.Value)
				rec.Files = map[string][]string{}
				for name, headers := range r.MultipartForm.File {
					for _, h := range headers {
						rec.Files[name] = append(rec.Files[name], h.Filename)
					}
				}
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		f, failing := s.failures[r.URL.Path]
		s.mu.Unlock()

		if failing {
			if f.contentType != "" {
				w.Header().Set("Content-Type", f.contentType)
			}
			w.WriteHeader(f.status)
			w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) json(fn func(*http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		raw, overridden := s.Responses[r.URL.Path]
		var v any
		if !overridden {
			v = fn(r)
		}
		s.mu.Unlock()

		if overridden {
			w.Write([]byte(raw))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) text(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := body
		s.mu.Lock()
		if raw, ok := s.Responses[r.URL.Path]; ok {
			out = raw
		}
		s.mu.Unlock()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(out))
	}
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// filter implements enough of House/Filter for paging tests: CityId,
// RegionId and Rooms narrow the set; PageNumber/PageSize slice it.
func (s *Server) filter(r *http.Request) any {
	q := r.URL.Query()
	var matched []models.Listing
	for _, l := range s.Listings {
		if v := q.Get("CityId"); v != "" && v != strconv.Itoa(l.CityID) {
			continue
		}
		if v := q.Get("RegionId"); v != "" && v != strconv.Itoa(l.RegionID) {
			continue
		}
		if v := q.Get("Rooms"); v != "" && v != strconv.Itoa(l.Rooms) {
			continue
		}
		if v := q.Get("Search"); v != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(v)) {
			continue
		}
		matched = append(matched, l)
	}

	page, _ := strconv.Atoi(q.Get("PageNumber"))
	size, _ := strconv.Atoi(q.Get("PageSize"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}

	items := []models.Listing{}
	if start := (page - 1) * size; start < len(matched) {
		end := min(start+size, len(matched))
		items = matched[start:end]
	}
	return models.PageResult{Items: items, TotalCount: len(matched)}
}

func (s *Server) find(id int) (models.Listing, bool) {
	for _, l := range s.Listings {
		if l.ID == id {
			return l, true
		}
	}
	return models.Listing{}, false
}

func (s *Server) ownedBy(owner string) []models.Listing {
	out := []models.Listing{}
	for _, l := range s.Listings {
		if l.OwnerID == owner {
			out = append(out, l)
		}
	}
	return out
}

func (s *Server) listing(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	s.mu.Lock()
	l, ok := s.find(id)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "House not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(l)
}

func (s *Server) ownedListing(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	s.mu.Lock()
	l, ok := s.find(id)
	s.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if l.OwnerID != Subject(r) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(l)
}

func (s *Server) softDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.Listings {
		if l.ID == id && l.OwnerID == Subject(r) {
			s.Listings = append(s.Listings[:i], s.Listings[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	w.WriteHeader(http.StatusForbidden)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	raw, overridden := s.Responses[r.URL.Path]
	s.mu.Unlock()
	if overridden {
		w.Write([]byte(raw))
		return
	}

	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Password != "secret1" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Email or password is incorrect"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"token":       Token("u1", "User", time.Hour),
		"userName":    "Aysel",
		"email":       creds.Email,
		"phoneNumber": "0501234567",
	})
}

// Token signs a JWT with the claims the real API issues.
func Token(userID, role string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"nameid":  userID,
		roleClaim: role,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("apitest-signing-key"))
	if err != nil {
		panic(err)
	}
	return tok
}

// Subject reads the user id from the request's bearer token.
func Subject(r *http.Request) string {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	sub, _ := claims["nameid"].(string)
	return sub
}
