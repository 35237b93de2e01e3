package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period. A failed ping closes the connection.
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer = 64
)

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	originHost, ok := s.checkOrigin(r)
	if !ok {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{originHost},
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade error")
		return
	}

	client := &Client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		server: s,
	}

	select {
	case s.register <- client:
	case <-s.hubDone:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go client.writePump()
	client.readPump()
}

// checkOrigin validates the request origin and returns its host.
func (s *PreviewServer) checkOrigin(r *http.Request) (string, bool) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return "", false
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return "", false
	}

	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return "", false
	}

	if s.isAllowedOrigin(origin) {
		return originURL.Host, true
	}

	port := s.config.Server.Port
	allowedHosts := []string{
		fmt.Sprintf("%s:%d", s.config.Server.Host, port),
		fmt.Sprintf("localhost:%d", port),
		fmt.Sprintf("127.0.0.1:%d", port),
	}

	for _, allowed := range allowedHosts {
		if originURL.Host == allowed {
			return originURL.Host, true
		}
	}

	return "", false
}

// ClientCount returns the number of connected WebSocket clients.
func (s *PreviewServer) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

func (s *PreviewServer) runWebSocketHub(ctx context.Context) {
	defer close(s.hubDone)

	for {
		select {
		case <-ctx.Done():
			s.clientsMutex.Lock()
			for id, client := range s.clients {
				delete(s.clients, id)
				close(client.send)
			}
			s.clientsMutex.Unlock()
			return

		case client := <-s.register:
			if client == nil || client.conn == nil {
				continue
			}
			s.clientsMutex.Lock()
			s.clients[client.id] = client
			clientCount := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "Client connected", "client", client.id, "total", clientCount)

		case id := <-s.unregister:
			s.clientsMutex.Lock()
			if client, ok := s.clients[id]; ok {
				delete(s.clients, id)
				close(client.send)
				s.logger.Debug(ctx, "Client disconnected", "client", id, "total", len(s.clients))
			}
			s.clientsMutex.Unlock()

		case message := <-s.broadcast:
			s.clientsMutex.Lock()
			for id, client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Client's send channel is full, drop it
					delete(s.clients, id)
					close(client.send)
					client.conn.Close(websocket.StatusPolicyViolation, "client too slow")
				}
			}
			s.clientsMutex.Unlock()
		}
	}
}

// readPump drains the connection until it closes. Clients are not expected to
// send anything meaningful; reading keeps pong handling alive.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c.id:
		case <-c.server.hubDone:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	ctx := context.Background()
	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				c.server.logger.Debug(ctx, "WebSocket closed", "client", c.id, "error", err.Error())
			}
			return
		}
	}
}

// writePump sends queued messages and keepalive pings until send is closed.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.server.logger.Debug(ctx, "WebSocket write error", "client", c.id, "error", err.Error())
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
