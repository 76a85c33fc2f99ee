// Package dashboard serves the browser chart: it keeps the client state,
// fetches readings from the API and pushes chart specs over websockets.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/chart"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/events"
)

//go:embed templates/*.html
var templates embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type message struct {
	Type  string      `json:"type"`
	Data  *chart.Spec `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// client serializes writes to one websocket connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) send(m message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(m)
}

type Server struct {
	mux       *http.ServeMux
	tmpl      *template.Template
	api       API
	health    func(ctx context.Context) error
	state     *State
	fetcher   *Fetcher
	clients   map[*client]bool
	clientsMu sync.Mutex
	publishMu sync.Mutex
	broadcast chan message
}

// New wires a server around api. health may be nil.
func New(api API, health func(ctx context.Context) error, state *State) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		tmpl:      template.Must(template.ParseFS(templates, "templates/*.html")),
		api:       api,
		health:    health,
		state:     state,
		fetcher:   NewFetcher(api, state),
		clients:   make(map[*client]bool),
		broadcast: make(chan message, 256),
	}
	s.routes()
	state.OnChange(s.publish)
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /api/chart", s.handleChart)
	s.mux.HandleFunc("POST /api/selection", s.handleSelection)
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run pushes broadcasts to clients and refreshes names and readings every
// interval until ctx is done.
func (s *Server) Run(ctx context.Context, every time.Duration) {
	go s.handleBroadcast(ctx)
	s.refresh(ctx)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Server) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if err := s.fetcher.Names(ctx); err != nil {
		log.Warn().Err(err).Msg("name refresh failed")
	}
	if err := s.fetcher.Readings(ctx); err != nil {
		log.Warn().Err(err).Msg("readings refresh failed")
	}
}

// HandleChange reacts to an entity change published by the API.
func (s *Server) HandleChange(c events.Change) {
	var kind chart.Kind
	switch c.Entity {
	case "meter":
		kind = chart.KindMeter
	case "group":
		kind = chart.KindGroup
	default:
		return
	}
	log.Info().Str("entity", c.Entity).Int64("id", c.ID).Str("op", string(c.Op)).Msg("entity changed")
	s.state.Invalidate(chart.Entity{Kind: kind, ID: c.ID})
	go s.refresh(context.Background())
}

// publish renders the current chart and queues it for every client. Render
// and enqueue happen under one lock, so the queue is ordered by state age and
// its last entry reflects the latest state. A full queue drops its oldest
// entry instead.
func (s *Server) publish() {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	m := s.render()
	for {
		select {
		case s.broadcast <- m:
			return
		default:
		}
		select {
		case <-s.broadcast:
			log.Warn().Msg("broadcast queue full, dropping oldest chart update")
		default:
		}
	}
}

func (s *Server) render() message {
	spec, err := chart.Build(s.state.Snapshot())
	if err != nil {
		log.Error().Err(err).Msg("chart build failed")
		return message{Type: "error", Error: err.Error()}
	}
	return message{Type: "chart", Data: spec}
}

func (s *Server) handleBroadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.broadcast:
			s.clientsMu.Lock()
			targets := make([]*client, 0, len(s.clients))
			for c := range s.clients {
				targets = append(targets, c)
			}
			s.clientsMu.Unlock()

			for _, c := range targets {
				if err := c.send(msg); err != nil {
					c.conn.Close()
					s.clientsMu.Lock()
					delete(s.clients, c)
					s.clientsMu.Unlock()
				}
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn}

	s.clientsMu.Lock()
	s.clients[c] = true
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
		conn.Close()
	}()

	if err := c.send(s.render()); err != nil {
		return
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "online"
	if s.health != nil && s.health(ctx) != nil {
		status = "offline"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	m := s.render()
	if m.Type == "error" {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": m.Error})
		return
	}
	writeJSON(w, http.StatusOK, m.Data)
}

type selectionRequest struct {
	Meters         []int64 `json:"meters"`
	Groups         []int64 `json:"groups"`
	TimeInterval   string  `json:"timeInterval"`
	SliderInterval string  `json:"sliderInterval"`
	Locale         string  `json:"locale"`
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ti, err := domain.ParseTimeInterval(req.TimeInterval)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	slider, err := domain.ParseTimeInterval(req.SliderInterval)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.state.Select(Selection{
		Meters:         req.Meters,
		Groups:         req.Groups,
		TimeInterval:   ti,
		SliderInterval: slider,
		Locale:         req.Locale,
	})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := s.fetcher.Readings(ctx); err != nil {
			log.Warn().Err(err).Msg("selection fetch failed")
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":  "Open Energy Dashboard",
		"Locale": s.state.Selection().Locale,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Error().Err(err).Msg("render error")
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
