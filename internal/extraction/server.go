package extraction

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Server handles HTTP requests for amount extraction
type Server struct {
	service   *Service
	basicAuth BasicAuth
	version   string
	router    *mux.Router
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with a fresh router
func NewServer(service *Service, basicAuth BasicAuth, version string) *Server {
	return NewServerWithRouter(service, basicAuth, version, mux.NewRouter())
}

// NewServerWithRouter creates a new Server on the given router
func NewServerWithRouter(service *Service, basicAuth BasicAuth, version string, router *mux.Router) *Server {
	s := &Server{
		service:   service,
		basicAuth: basicAuth,
		version:   version,
		router:    router,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}

	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(s.basicAuth.Username)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(s.basicAuth.Password)) == 1
	return userMatch && passMatch
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Amount Scan"`)
			writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// registerRoutes registers all routes on the server's router
func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.router.HandleFunc("/api/process", s.requireAuth(s.handleProcess)).Methods(http.MethodPost)

	// export is registered before {id} so it is not read as an ID
	s.router.HandleFunc("/api/extractions", s.requireAuth(s.handleListExtractions)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/extractions/export", s.requireAuth(s.handleExport)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/extractions/{id}/file", s.requireAuth(s.handleGetExtractionFile)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/extractions/{id}", s.requireAuth(s.handleGetExtraction)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/extractions/{id}", s.requireAuth(s.handleDeleteExtraction)).Methods(http.MethodDelete)

	s.router.HandleFunc("/", s.requireAuth(s.handleDemo)).Methods(http.MethodGet)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s)
}

// ServeHTTP sets CORS headers, answers preflight requests and dispatches to
// the router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.router.ServeHTTP(w, r)
}
