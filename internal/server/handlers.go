package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"base-token-tracker/internal/domain"
)

// handleIngest accepts one token record from the scraper, stores it,
// archives it and broadcasts it. The relay does not deduplicate:
// identical payloads create separate entries.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var rec domain.TokenRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.reject(w, "malformed")
		return
	}
	if err := rec.Validate(); err != nil {
		s.reject(w, "invalid_contract")
		return
	}

	rec.Contract = domain.NormalizeContract(rec.Contract)
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}

	s.store.Append(rec)
	s.logger.Printf("Received token %s (%s)", rec.Name, rec.Contract[:10])

	if s.archive != nil {
		// Archive failure must not block the live feed.
		if err := s.archive.Insert(r.Context(), &rec); err != nil {
			s.logger.Printf("Archive insert failed for %s: %v", rec.Contract, err)
		}
	}

	s.hub.Publish(rec)

	if s.metrics != nil {
		s.metrics.RecordsReceived.Inc()
		s.metrics.BroadcastsSent.Inc()
		s.metrics.StoreSize.Set(float64(s.store.Len()))
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) reject(w http.ResponseWriter, reason string) {
	if s.metrics != nil {
		s.metrics.RecordsRejected.WithLabelValues(reason).Inc()
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid token data"})
}

// handleWS upgrades the connection and subscribes it to the feed. The
// read side only drains inbound messages: subscribers are listeners, and
// anything they send is logged and ignored.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	if err := s.hub.Subscribe(conn); err != nil {
		s.logger.Printf("Subscribe failed: %v", err)
		return
	}
	s.logger.Println("Subscriber connected")
	if s.metrics != nil {
		s.metrics.Subscribers.Set(float64(s.hub.Count()))
	}

	go s.readLoop(conn)
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer func() {
		s.hub.Unsubscribe(conn)
		if s.metrics != nil {
			s.metrics.Subscribers.Set(float64(s.hub.Count()))
		}
		s.logger.Println("Subscriber disconnected")
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.logger.Printf("Ignoring subscriber message: %.100s", msg)
	}
}

// handleHealth reports process status for operational monitoring.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.Count(),
		"tokens":  s.store.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
