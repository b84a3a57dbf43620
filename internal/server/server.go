package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"codequiz/internal/filesync"
	"codequiz/internal/logger"
	"codequiz/internal/metrics"
	"codequiz/internal/models"
	"codequiz/internal/services"
)

// Store is what the HTTP surface reads, restores and listens to.
type Store interface {
	Snapshot(ctx context.Context) (models.Data, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetResults(ctx context.Context) ([]models.QuizResult, error)
	GetAllUserStats(ctx context.Context) ([]models.UserStats, error)
	ImportQuestions(ctx context.Context, raw []byte, opts services.ImportOptions) ([]models.Question, error)
	RestoreBackup(ctx context.Context, raw []byte) error
	Subscribe(fn func()) (unsubscribe func())
	Now() time.Time
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	Router    *mux.Router
	store     Store
	files     filesync.Adapter
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	log       *logrus.Entry
	bootstrap services.BootstrapResult

	clients     map[*websocket.Conn]bool
	mutex       sync.Mutex
	unsubscribe func()
}

type Option func(*Server)

// WithMetrics records request metrics into m and serves g at /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Server) { s.log = log }
}

// WithBootstrapResult is reported by GET /api/bootstrap/status.
func WithBootstrapResult(res services.BootstrapResult) Option {
	return func(s *Server) { s.bootstrap = res }
}

func NewServer(store Store, adapter filesync.Adapter, opts ...Option) *Server {
	s := &Server{
		Router:  mux.NewRouter(),
		store:   store,
		files:   adapter,
		metrics: metrics.Nop(),
		log:     logger.Discard(),
		clients: make(map[*websocket.Conn]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "server")

	s.Router.Use(s.recoverPanics, s.instrument)

	s.Router.HandleFunc("/live.json", s.handleLive).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/bootstrap/status", s.handleBootstrapStatus).Methods(http.MethodGet)

	exp := s.Router.PathPrefix("/api/export").Subrouter()
	exp.HandleFunc("/backup.json", s.handleBackup).Methods(http.MethodGet)
	exp.HandleFunc("/users.json", s.handleUsersJSON).Methods(http.MethodGet)
	exp.HandleFunc("/users.csv", s.handleUsersCSV).Methods(http.MethodGet)
	exp.HandleFunc("/results.csv", s.handleResultsCSV).Methods(http.MethodGet)

	s.Router.HandleFunc("/api/import/questions", s.handleImportQuestions).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/restore", s.handleRestore).Methods(http.MethodPost)

	sy := s.Router.PathPrefix("/api/sync").Subrouter()
	sy.HandleFunc("/status", s.handleSyncStatus).Methods(http.MethodGet)
	sy.HandleFunc("/connect", s.handleSyncConnect).Methods(http.MethodPost)
	sy.HandleFunc("/load", s.handleSyncLoad).Methods(http.MethodPost)
	sy.HandleFunc("/now", s.handleSyncNow).Methods(http.MethodPost)
	sy.HandleFunc("/disconnect", s.handleSyncDisconnect).Methods(http.MethodPost)
	sy.HandleFunc("/download", s.handleSyncDownload).Methods(http.MethodGet)
	sy.HandleFunc("/upload", s.handleSyncUpload).Methods(http.MethodPost)

	s.Router.HandleFunc("/ws", s.handleWebSocket)
	if s.gatherer != nil {
		s.Router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.unsubscribe = store.Subscribe(s.broadcastChange)
	return s
}

// Close stops the change feed and drops every websocket client.
func (s *Server) Close() {
	s.unsubscribe()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	s.metrics.FeedClients.Set(0)
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.WithFields(logrus.Fields{"path": r.URL.Path, "panic": rec}).Error("handler panicked")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.metrics.HTTPDurationMs.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
