package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"warelay/internal/model"
)

const internalError = "Internal Server Error"

// WebhookHandler handles GET/POST /api/webhook.
func (s *Server) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var (
			hooks []model.Webhook
			err   error
		)
		if ec := r.URL.Query().Get("event_code"); ec != "" {
			hooks, err = s.Store.ListWebhooksByEvent(r.Context(), ec)
		} else {
			hooks, err = s.Store.ListWebhooks(r.Context())
		}
		if err != nil {
			log.Printf("api: error fetching webhook list: %v", err)
			writeError(w, http.StatusInternalServerError, internalError)
			return
		}
		writeJSON(w, http.StatusOK, hooks)
	case http.MethodPost:
		var bag map[string]any
		if err := json.NewDecoder(r.Body).Decode(&bag); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		hook, err := model.NewWebhook(bag)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		created, err := s.Store.InsertWebhook(r.Context(), hook)
		if err != nil {
			log.Printf("api: error adding webhook: %v", err)
			writeError(w, http.StatusInternalServerError, internalError)
			return
		}
		log.Printf("api: webhook added event_code=%s post_url=%s", created.EventCode, created.PostURL)
		writeJSON(w, http.StatusCreated, created)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// WebhookByIDHandler handles DELETE /api/webhook/{id}. Deleting an unknown
// id is still a success.
func (s *Server) WebhookByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/webhook/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Parameter id is missing")
		return
	}
	if err := s.Store.RemoveWebhook(r.Context(), id); err != nil {
		log.Printf("api: error removing webhook %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, internalError)
		return
	}
	log.Printf("api: webhook removed id=%s", id)
	writeJSON(w, http.StatusOK, map[string]any{})
}

var errNoSource = errors.New("messaging source not configured")

// ContactsHandler handles GET /api/contact.
func (s *Server) ContactsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.Source == nil {
		writeError(w, http.StatusServiceUnavailable, errNoSource.Error())
		return
	}
	contacts, err := s.Source.Contacts(r.Context())
	if err != nil {
		log.Printf("api: error fetching contacts: %v", err)
		writeError(w, http.StatusInternalServerError, internalError)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// ContactByIDHandler handles GET /api/contact/{id}.
func (s *Server) ContactByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/contact/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Parameter id is missing")
		return
	}
	if s.Source == nil {
		writeError(w, http.StatusServiceUnavailable, errNoSource.Error())
		return
	}
	contact, err := s.Source.ContactByID(r.Context(), id)
	if err != nil {
		log.Printf("api: error fetching contact %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, internalError)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// GroupsHandler handles GET /api/groups.
func (s *Server) GroupsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.Source == nil {
		writeError(w, http.StatusServiceUnavailable, errNoSource.Error())
		return
	}
	groups, err := s.Source.Groups(r.Context())
	if err != nil {
		log.Printf("api: error fetching groups: %v", err)
		writeError(w, http.StatusInternalServerError, internalError)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// StatusHandler handles GET /api/status: the pairing state snapshot.
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.Status == nil {
		writeJSON(w, http.StatusOK, model.ReadyStatus{})
		return
	}
	writeJSON(w, http.StatusOK, s.Status())
}

// MessageHandler handles POST /api/message: relay an outbound message.
// Messages already starting with the break character are rejected so a
// subscriber echoing payloads back cannot create a relay loop; accepted
// messages are sent with the break character prefixed.
func (s *Server) MessageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Recipient == "" {
		writeError(w, http.StatusBadRequest, "recipient is a required parameter")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is a required parameter")
		return
	}
	if s.BreakChar != "" && strings.HasPrefix(req.Message, s.BreakChar) {
		writeError(w, http.StatusBadRequest, "break character found")
		return
	}
	if s.Source == nil {
		writeError(w, http.StatusServiceUnavailable, errNoSource.Error())
		return
	}
	if err := s.Source.SendMessage(r.Context(), req.Recipient, s.BreakChar+" "+req.Message); err != nil {
		log.Printf("api: error relaying message: %v", err)
		writeError(w, http.StatusInternalServerError, internalError)
		return
	}
	log.Printf("api: message relayed to %s", req.Recipient)
	writeJSON(w, http.StatusOK, map[string]any{})
}
