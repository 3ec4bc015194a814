// Package api implements the registry HTTP surface: webhook CRUD, lookup
// proxies to the messaging source, and the htmx component fragments the
// dashboard is built from.
package api

import (
	"net/http"

	"warelay/internal/buildinfo"
	"warelay/internal/model"
	"warelay/internal/source"
	"warelay/internal/store"
)

type Server struct {
	Store store.Store
	// Source answers lookups and sends. Nil when no bridge is configured;
	// the affected endpoints then answer 503.
	Source source.Client
	// Status snapshots the pairing state machine.
	Status func() model.ReadyStatus
	// Feed streams delivery outcomes to dashboard websockets.
	Feed *Feed

	APIKey    string
	Events    []string
	BreakChar string
}

// Routes wires every handler onto a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Registry
	mux.HandleFunc("/api/webhook", s.requireKey(s.WebhookHandler))
	mux.HandleFunc("/api/webhook/", s.requireKey(s.WebhookByIDHandler))

	// Messaging-source proxies
	mux.HandleFunc("/api/contact", s.requireKey(s.ContactsHandler))
	mux.HandleFunc("/api/contact/", s.requireKey(s.ContactByIDHandler))
	mux.HandleFunc("/api/groups", s.requireKey(s.GroupsHandler))
	mux.HandleFunc("/api/status", s.requireKey(s.StatusHandler))
	mux.HandleFunc("/api/message", s.requireKey(s.MessageHandler))

	// Dashboard fragments
	mux.HandleFunc("/component/webhook-control", s.WebhookControlHandler)
	mux.HandleFunc("/component/webhook-control/", s.WebhookControlByIDHandler)
	mux.HandleFunc("/component/event-options", s.EventOptionsHandler)
	mux.HandleFunc("/component/contact/", s.ContactOptionsHandler)
	mux.HandleFunc("/component/status-control", s.StatusControlHandler)
	mux.HandleFunc("/component/message-control", s.MessageControlHandler)

	// Activity feed
	mux.HandleFunc("/ws/activity", s.ActivityHandler)

	// Health
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)

	mux.Handle("/", s.staticHandler())
	return mux
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Info()
	info["status"] = "ok"
	writeJSON(w, http.StatusOK, info)
}

// ReadyHandler reports readiness: the store must answer a ping.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
