package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/usecase"
)

// BucketLister lists the buckets of a community
type BucketLister interface {
	List(ctx context.Context, communityID string) ([]usecase.BucketStatus, error)
}

// Ticker runs one pass of the chrono scheduler
type Ticker interface {
	Tick(ctx context.Context) error
}

// SessionSweeper drops expired submission sessions
type SessionSweeper interface {
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

// ReactableSweeper drops expired reactable posts
type ReactableSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// Server provides a local HTTP API for bot operators
type Server struct {
	buckets    BucketLister
	chronos    Ticker
	sessions   SessionSweeper
	reactables ReactableSweeper

	now    func() time.Time
	server *http.Server
	port   int
}

// NewServer creates a new API server
func NewServer(buckets BucketLister, chronos Ticker, sessions SessionSweeper, reactables ReactableSweeper, port int) *Server {
	return &Server{
		buckets:    buckets,
		chronos:    chronos,
		sessions:   sessions,
		reactables: reactables,
		now:        func() time.Time { return time.Now().UTC() },
		port:       port,
	}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/communities/", s.handleCommunity)
	mux.HandleFunc("/api/chronos/tick", s.handleTick)
	mux.HandleFunc("/api/sweep", s.handleSweep)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("[API] Starting HTTP server on port %d\n", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// GetPort returns the server port
func (s *Server) GetPort() int {
	return s.port
}

// ============ Community Handlers ============

// BucketInfo is the JSON view of a bucket
type BucketInfo struct {
	ID           int64  `json:"id"`
	Handle       string `json:"handle"`
	Name         string `json:"name"`
	ChannelID    string `json:"channel_id"`
	Frequency    string `json:"frequency"`
	IsPaused     bool   `json:"is_paused"`
	IsValid      bool   `json:"is_valid"`
	RequiredRole string `json:"required_role,omitempty"`
}

func (s *Server) handleCommunity(w http.ResponseWriter, r *http.Request) {
	// Parse path: /api/communities/{id}/buckets
	path := strings.TrimPrefix(r.URL.Path, "/api/communities/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	switch parts[1] {
	case "buckets":
		s.handleBuckets(w, r, parts[0])
	default:
		http.Error(w, "unknown action", http.StatusNotFound)
	}
}

func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request, communityID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	statuses, err := s.buckets.List(r.Context(), communityID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result := make([]BucketInfo, len(statuses))
	for i, st := range statuses {
		b := st.Bucket
		result[i] = BucketInfo{
			ID:           b.ID,
			Handle:       b.Handle,
			Name:         b.Name(),
			ChannelID:    b.ChannelID,
			Frequency:    string(b.Frequency),
			IsPaused:     b.IsPaused,
			IsValid:      st.IsValid,
			RequiredRole: b.RequiredRoleID,
		}
	}

	s.writeJSON(w, map[string]interface{}{"buckets": result})
}

// ============ Maintenance Handlers ============

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.chronos.Tick(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]bool{"success": true})
}

// SweepResponse reports how many expired records were dropped
type SweepResponse struct {
	Sessions   int64 `json:"sessions"`
	Reactables int   `json:"reactables"`
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := s.now()
	sessions, err := s.sessions.CleanupExpired(r.Context(), now)
	if err != nil {
		s.writeError(w, err)
		return
	}
	reactables, err := s.reactables.SweepExpired(r.Context(), now)
	if err != nil {
		s.writeError(w, err)
		return
	}

	fmt.Printf("[API] Swept %d sessions and %d reactable posts\n", sessions, reactables)
	s.writeJSON(w, SweepResponse{Sessions: sessions, Reactables: reactables})
}

// ============ Helpers ============

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
