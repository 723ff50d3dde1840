// Package server exposes the news pipeline over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/xhad/topicnews/internal/models"
	"github.com/xhad/topicnews/internal/types"
	"github.com/xhad/topicnews/pkg/logging"
)

// FailureMessage is what clients see when a fetch fails.
const FailureMessage = "Failed to load news"

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

type NewsResponse struct {
	Topic    string                     `json:"topic"`
	Articles []models.NormalizedArticle `json:"articles"`
	Error    string                     `json:"error,omitempty"`
}

type ArticleResponse struct {
	*models.ArticlePage
	Summary string `json:"summary,omitempty"`
}

type Config struct {
	Addr       string
	News       types.NewsLoader
	Reader     types.PageReader      // optional
	Summarizer types.Summarizer      // optional
	Searcher   types.ArticleSearcher // optional
	Logger     *log.Logger

	// AllowedOrigins lists the Origin values accepted on /ws. Empty means
	// same-origin only; "*" accepts any origin.
	AllowedOrigins []string
}

type Server struct {
	config   Config
	log      *log.Logger
	mux      *http.ServeMux
	upgrader websocket.Upgrader
}

func New(config Config) (*Server, error) {
	if config.News == nil {
		return nil, errors.New("news loader is required")
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.WithPrefix("server")
	}

	s := &Server{
		config: config,
		log:    logger,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(config.AllowedOrigins),
		},
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/news", s.handleNews)
	s.mux.HandleFunc("/article", s.handleArticle)
	s.mux.HandleFunc("/related", s.handleRelated)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")

	articles, err := s.config.News.Load(r.Context(), topic)
	if err != nil {
		s.log.Error("load failed", "topic", topic, "err", err)
		writeJSON(w, http.StatusBadGateway, NewsResponse{
			Topic:    topic,
			Articles: []models.NormalizedArticle{},
			Error:    FailureMessage,
		})
		return
	}

	writeJSON(w, http.StatusOK, NewsResponse{Topic: topic, Articles: articles})
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	if s.config.Reader == nil {
		writeError(w, http.StatusNotImplemented, "article reader not configured")
		return
	}

	q := r.URL.Query()
	pageURL := q.Get("url")
	if pageURL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	page, err := s.config.Reader.Read(r.Context(), pageURL)
	if err != nil {
		s.log.Warn("read failed", "url", pageURL, "err", err)
		writeError(w, http.StatusBadGateway, "Failed to load article")
		return
	}

	resp := ArticleResponse{ArticlePage: page}
	if s.config.Summarizer != nil && q.Get("summarize") == "1" {
		article := models.NormalizedArticle{Title: page.Title, URL: page.URL, Content: page.Body}
		summary, err := s.config.Summarizer.Summarize(r.Context(), article, page.Body)
		if err != nil {
			s.log.Warn("summarize failed", "url", pageURL, "err", err)
		} else {
			resp.Summary = summary
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	if s.config.Searcher == nil {
		writeError(w, http.StatusNotImplemented, "archive not configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := s.config.Searcher.Related(r.Context(), query, limit)
	if err != nil {
		s.log.Error("related failed", "q", query, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to search archive")
		return
	}
	if results == nil {
		results = []models.ArchivedArticle{}
	}

	writeJSON(w, http.StatusOK, results)
}

// handleWebSocket serves topic switches. A new topic cancels the load still
// in flight for the previous one, so stale results are never sent.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	var (
		writeMu sync.Mutex
		cancel  context.CancelFunc = func() {}
		wg      sync.WaitGroup
	)
	// send drops msg when ctx is already cancelled. The check happens under
	// writeMu so a superseded load can never write after its successor.
	send := func(ctx context.Context, msg Message) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Debug("websocket write failed", "err", err)
		}
	}
	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read ended", "err", err)
			}
			return
		}

		if msg.Type != "topic" {
			send(r.Context(), Message{Type: "error", Content: "unknown message type: " + msg.Type})
			continue
		}

		cancel()
		var ctx context.Context
		ctx, cancel = context.WithCancel(r.Context())

		wg.Add(1)
		go func(ctx context.Context, topic string) {
			defer wg.Done()
			send(ctx, Message{Type: "status", Content: "loading " + topic})

			articles, err := s.config.News.Load(ctx, topic)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				s.log.Error("load failed", "topic", topic, "err", err)
				send(ctx, Message{Type: "error", Content: FailureMessage, Data: []models.NormalizedArticle{}})
				return
			}
			send(ctx, Message{Type: "articles", Content: topic, Data: articles})
		}(ctx, msg.Content)
	}
}

// originChecker returns nil for same-origin only, which is the upgrader's
// default check.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[strings.ToLower(origin)]
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
