// Hermes gateway HTTP API.
// Serves REST endpoints for sending and listing targets plus a WebSocket
// stream of bus events.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/0xbyt4/hermes-agent/pkg/bus"
	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/gateway"
	"github.com/0xbyt4/hermes-agent/pkg/logger"
	"github.com/0xbyt4/hermes-agent/pkg/tools"
)

// Dispatcher runs send and list requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, req tools.Request) tools.Result
}

// DirectoryCounter reports how many targets the directory holds.
type DirectoryCounter interface {
	Count(ctx context.Context) (int, error)
}

// Deps are the gateway components the API exposes. Only Dispatcher and
// Loader are required.
type Deps struct {
	Dispatcher Dispatcher
	Loader     config.ConfigLoader
	Directory  DirectoryCounter
	Refresh    gateway.RefreshFunc
	PIDFile    *gateway.PIDFile
	Bus        *bus.MessageBus
}

// Server is the HTTP API server of the gateway daemon.
type Server struct {
	daemon      config.DaemonConfig
	deps        Deps
	wsHub       *WSHub
	eventBridge *EventBridge
	startTime   time.Time
	server      *http.Server
	listener    net.Listener
}

// NewServer creates a new API server instance.
func NewServer(daemon config.DaemonConfig, deps Deps) *Server {
	s := &Server{
		daemon:    daemon,
		deps:      deps,
		startTime: time.Now(),
	}
	s.wsHub = NewWSHub(s)
	if deps.Bus != nil {
		s.eventBridge = NewEventBridge(deps.Bus, s.wsHub)
	}
	return s
}

// Handler returns the routed, authenticated handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/targets", s.handleTargets)
	mux.HandleFunc("POST /api/send", s.handleSend)
	mux.HandleFunc("POST /api/directory/refresh", s.handleRefresh)

	// WebSocket for live events
	mux.HandleFunc("GET /api/ws", s.wsHub.HandleWebSocket)

	return corsMiddleware(authMiddleware(s.daemon.APIKey, mux))
}

// Start binds the configured host:port and serves in the background.
// A bind failure is returned, so the caller never runs with a dead API.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.daemon.Host, strconv.Itoa(s.daemon.Port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.InfoCF("api", "Gateway API server listening", map[string]interface{}{
		"addr": ln.Addr().String(),
	})

	s.runBackground(ctx)

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("api", "Server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	return nil
}

// Addr is the bound address once Start succeeded, or "".
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) runBackground(ctx context.Context) {
	go s.wsHub.Run(ctx)
	if s.eventBridge != nil {
		s.eventBridge.Run(ctx)
	}
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// --- Middleware ---

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isAllowedOrigin checks if the origin is a trusted localhost address.
func isAllowedOrigin(origin string) bool {
	for _, prefix := range []string{"http://localhost", "http://127.0.0.1", "https://localhost", "https://127.0.0.1"} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.statusSnapshot(r.Context()))
}

// statusSnapshot is shared by /api/status and the WebSocket status stream.
func (s *Server) statusSnapshot(ctx context.Context) map[string]interface{} {
	uptime := time.Since(s.startTime)
	status := map[string]interface{}{
		"pid":            os.Getpid(),
		"uptime_seconds": int(uptime.Seconds()),
		"uptime_human":   formatDuration(uptime),
	}

	if s.deps.PIDFile != nil {
		status["gateway_running"] = s.deps.PIDFile.IsGatewayRunning()
	}

	platforms := []string{}
	if cfg, err := s.deps.Loader.LoadGatewayConfig(); err != nil {
		status["config_error"] = err.Error()
	} else {
		for _, p := range cfg.EnabledPlatforms() {
			platforms = append(platforms, p.String())
		}
	}
	status["platforms"] = platforms

	if s.deps.Directory != nil {
		if n, err := s.deps.Directory.Count(ctx); err == nil {
			status["directory_entries"] = n
		}
	}
	return status
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.deps.Dispatcher.Dispatch(r.Context(), tools.ListRequest{}))
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target  string `json:"target"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result := s.deps.Dispatcher.Dispatch(r.Context(), tools.SendRequest{
		Target:  req.Target,
		Message: req.Message,
	})
	writeResult(w, result)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.deps.Refresh == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "directory refresh not available"})
		return
	}
	if err := s.deps.Refresh(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	resp := map[string]interface{}{"status": "refreshed"}
	if s.deps.Directory != nil {
		if n, err := s.deps.Directory.Count(r.Context()); err == nil {
			resp["entries"] = n
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// writeResult maps a dispatch result to a status code: error results are
// 422, everything else 200. The body is the result itself.
func writeResult(w http.ResponseWriter, result tools.Result) {
	status := http.StatusOK
	if _, failed := result["error"]; failed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
