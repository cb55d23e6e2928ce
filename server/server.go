// Package server exposes the orchestrator over a websocket session
// plus a plain health endpoint.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/getdrafty/drafty-go-sdk/core"
	"github.com/getdrafty/drafty-go-sdk/orchestrator"
)

// Config holds server configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
}

// DefaultConfig provides sensible defaults for the server.
var DefaultConfig = &Config{
	Addr: ":8080",
}

// Frame is one websocket request. Type selects which fields apply:
// "email" processes Email, "example" stores Email with Label, and
// "feedback" revises the prompts from Feedback plus the transcript of
// the user's most recent run.
type Frame struct {
	Type     string      `json:"type"`
	UserID   string      `json:"user_id"`
	Email    *core.Email `json:"email,omitempty"`
	Label    string      `json:"label,omitempty"`
	Feedback string      `json:"feedback,omitempty"`
}

// Response is one websocket reply.
type Response struct {
	Type           string `json:"type"`
	RunID          string `json:"run_id,omitempty"`
	Classification string `json:"classification,omitempty"`
	Rationale      string `json:"rationale,omitempty"`
	Reply          string `json:"reply,omitempty"`
	Stalled        bool   `json:"stalled,omitempty"`
	Key            string `json:"key,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Server serves the assistant workflow over websocket frames.
type Server struct {
	orch     *orchestrator.Orchestrator
	config   *Config
	upgrader websocket.Upgrader

	mu          sync.Mutex
	transcripts map[string][]core.Message
}

// New creates a server for the given orchestrator. A nil config
// selects DefaultConfig.
func New(orch *orchestrator.Orchestrator, config *Config) *Server {
	if config == nil {
		config = DefaultConfig
	}
	return &Server{
		orch:   orch,
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		transcripts: make(map[string][]core.Message),
	}
}

// Handler returns the HTTP handler serving /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Run starts the HTTP server and blocks until it fails.
func (s *Server) Run() error {
	log.Printf("[SERVER] listening on %s", s.config.Addr)
	return http.ListenAndServe(s.config.Addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer conn.Close()

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[SERVER] read frame: %v", err)
			}
			return
		}

		response := s.process(r.Context(), &frame)
		if err := conn.WriteJSON(response); err != nil {
			log.Printf("[SERVER] write response: %v", err)
			return
		}
	}
}

// process executes one frame. Failures come back as error responses
// on the same connection; the session stays open.
func (s *Server) process(ctx context.Context, frame *Frame) *Response {
	if frame.UserID == "" {
		return &Response{Type: "error", Error: "user_id is required"}
	}

	switch frame.Type {
	case "email":
		return s.processEmail(ctx, frame)
	case "example":
		return s.processExample(ctx, frame)
	case "feedback":
		return s.processFeedback(ctx, frame)
	default:
		return &Response{Type: "error", Error: "unknown frame type: " + frame.Type}
	}
}

func (s *Server) processEmail(ctx context.Context, frame *Frame) *Response {
	if frame.Email == nil {
		return &Response{Type: "error", Error: "email frame requires an email"}
	}

	result, err := s.orch.ProcessEmail(ctx, frame.UserID, *frame.Email)
	if err != nil {
		return &Response{Type: "error", Error: err.Error()}
	}

	s.mu.Lock()
	s.transcripts[frame.UserID] = result.Transcript
	s.mu.Unlock()

	return &Response{
		Type:           "result",
		RunID:          result.RunID,
		Classification: string(result.Classification),
		Rationale:      result.Rationale,
		Reply:          result.Reply,
		Stalled:        result.Stalled,
	}
}

func (s *Server) processExample(ctx context.Context, frame *Frame) *Response {
	if frame.Email == nil {
		return &Response{Type: "error", Error: "example frame requires an email"}
	}
	label, err := core.ParseClassification(frame.Label)
	if err != nil {
		return &Response{Type: "error", Error: err.Error()}
	}

	key, err := s.orch.AddExample(ctx, frame.UserID, core.Example{
		Email: *frame.Email,
		Label: label,
	})
	if err != nil {
		return &Response{Type: "error", Error: err.Error()}
	}
	return &Response{Type: "example_stored", Key: key}
}

func (s *Server) processFeedback(ctx context.Context, frame *Frame) *Response {
	s.mu.Lock()
	transcript := s.transcripts[frame.UserID]
	s.mu.Unlock()

	if err := s.orch.Optimize(ctx, frame.UserID, frame.Feedback, transcript); err != nil {
		return &Response{Type: "error", Error: err.Error()}
	}
	return &Response{Type: "prompts_updated"}
}
