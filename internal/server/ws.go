package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type      string `json:"type"`       // "ask"
	SessionID string `json:"session_id"` // empty for new sessions
	Category  string `json:"category"`
	Content   string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type      string             `json:"type"` // "response" or "error"
	SessionID string             `json:"session_id"`
	Content   string             `json:"content"`
	Source    string             `json:"source,omitempty"`
	Sources   []groundingPassage `json:"sources,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWSError(conn, "", "invalid message format")
			continue
		}

		if req.Type != "ask" {
			s.sendWSError(conn, req.SessionID, "unknown message type: "+req.Type)
			continue
		}
		if req.Content == "" {
			s.sendWSError(conn, req.SessionID, "content is required")
			continue
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		answer, err := s.engine.Ask(r.Context(), sessionID, req.Category, req.Content)
		if err != nil {
			s.sendWSError(conn, sessionID, err.Error())
			continue
		}

		s.sendWS(conn, chatResponse{
			Type:      "response",
			SessionID: sessionID,
			Content:   answer.Text,
			Source:    string(answer.Source),
			Sources:   groundingOf(answer.Grounding),
		})
	}
}

func (s *Server) sendWS(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, sessionID, message string) {
	s.sendWS(conn, chatResponse{
		Type:      "error",
		SessionID: sessionID,
		Content:   message,
	})
}
