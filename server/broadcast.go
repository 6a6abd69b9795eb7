package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/meridianhq/meridian/job"
)

// wsClient is one websocket subscriber to job updates
type wsClient struct {
	conn *websocket.Conn
	send chan interface{}
}

// jobUpdateMessage is the websocket payload for a job snapshot
type jobUpdateMessage struct {
	Type string   `json:"type"`
	Job  *job.Job `json:"job"`
}

// handleJobsWS upgrades the connection and streams job updates until the
// client disconnects.
func (s *Server) handleJobsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("Websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan interface{}, 16),
	}

	s.clientsMu.Lock()
	s.clients[client] = true
	s.clientsMu.Unlock()

	s.logger.Debugw("Job update subscriber connected", "remote", r.RemoteAddr)

	go s.writeToClient(client)
	s.readFromClient(client)
}

// writeToClient drains the client's send channel onto the wire
func (s *Server) writeToClient(client *wsClient) {
	for msg := range client.send {
		if err := client.conn.WriteJSON(msg); err != nil {
			s.removeClient(client)
			return
		}
	}
}

// readFromClient consumes (and discards) inbound frames so close frames
// are processed; any read error unregisters the client.
func (s *Server) readFromClient(client *wsClient) {
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			s.removeClient(client)
			return
		}
	}
}

func (s *Server) removeClient(client *wsClient) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if s.clients[client] {
		delete(s.clients, client)
		close(client.send)
		client.conn.Close()
	}
}

// broadcastJob sends a job snapshot to all subscribers. Slow clients whose
// buffers are full miss the update rather than block the callback path.
func (s *Server) broadcastJob(j *job.Job) {
	msg := jobUpdateMessage{Type: "job_update", Job: j}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for client := range s.clients {
		select {
		case client.send <- msg:
		default:
			// Channel full - skip
		}
	}
}
