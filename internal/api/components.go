package api

import (
	"encoding/base64"
	"fmt"
	"html"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/skip2/go-qrcode"

	"warelay/internal/model"
)

// The /component endpoints return HTML fragments for the htmx dashboard.
// They are same-origin dashboard plumbing, not part of the keyed API.

// eventLabels maps subscribable event codes to their display names. An
// unlisted code falls back to itself.
var eventLabels = map[string]string{
	"change_battery":           "Change Battery",
	"change_state":             "Change State",
	"disconnected":             "Disconnected",
	"group_join":               "Group Join",
	"group_leave":              "Group Leave",
	"group_admin_changed":      "Group Admin Changed",
	"group_membership_request": "Group Membership Request",
	"group_update":             "Group Update",
	"contact_changed":          "Contact Changed",
	"media_uploaded":           "Media Uploaded",
	"message":                  "Message Received",
	"message_ack":              "Message Ack",
	"message_edit":             "Message Edited",
	"unread_count":             "Unread Count Changed",
	"message_create":           "Message Created",
	"message_ciphertext":       "Message Ciphertext Received",
	"message_revoke_everyone":  "Message Revoked for Everyone",
	"message_revoke_me":        "Message Revoked by Me",
	"chat_removed":             "Chat Removed",
	"chat_archived":            "Chat Archived/Unarchived",
	"call":                     "Call Received",
	"remote_session_saved":     "Remote Session Saved",
	"vote_update":              "Vote Update",
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func alertFragment(kind, msg string) string {
	return fmt.Sprintf(`<div role="alert" class="alert %s"><span>%s</span></div>`, kind, html.EscapeString(msg))
}

// WebhookControlHandler handles GET (render table) and POST (add from form,
// re-render table) on /component/webhook-control.
func (s *Server) WebhookControlHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderWebhookTable(w, r)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			writeHTML(w, http.StatusBadRequest, alertFragment("alert-error", "Invalid form"))
			return
		}
		bag := map[string]any{}
		for k := range r.PostForm {
			bag[k] = r.PostForm.Get(k)
		}
		hook, err := model.NewWebhook(bag)
		if err != nil {
			writeHTML(w, http.StatusBadRequest, alertFragment("alert-error", err.Error()))
			return
		}
		if _, err := s.Store.InsertWebhook(r.Context(), hook); err != nil {
			log.Printf("api: error adding webhook component: %v", err)
			writeHTML(w, http.StatusInternalServerError, alertFragment("alert-error", internalError))
			return
		}
		s.renderWebhookTable(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// WebhookControlByIDHandler handles DELETE /component/webhook-control/{id}.
func (s *Server) WebhookControlByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/component/webhook-control/")
	if err := s.Store.RemoveWebhook(r.Context(), id); err != nil {
		log.Printf("api: error removing webhook component %s: %v", id, err)
		writeHTML(w, http.StatusInternalServerError, alertFragment("alert-error", internalError))
		return
	}
	s.renderWebhookTable(w, r)
}

func (s *Server) renderWebhookTable(w http.ResponseWriter, r *http.Request) {
	hooks, err := s.Store.ListWebhooks(r.Context())
	if err != nil {
		log.Printf("api: error fetching webhook list component: %v", err)
		writeHTML(w, http.StatusInternalServerError, alertFragment("alert-error", internalError))
		return
	}
	writeHTML(w, http.StatusOK, webhookTable(hooks))
}

func webhookTable(hooks []model.Webhook) string {
	var b strings.Builder
	b.WriteString(`<div class="overflow-x-auto"><table class="table table-sm"><thead><tr>` +
		`<th></th><th>Event</th><th>Sender</th><th>URL</th><th>Header</th>` +
		`<th>Info</th><th>Chat</th><th>Contact</th><th>QM</th><th>Order</th>` +
		`<th>GM</th><th>Mentions</th><th>Payment</th><th>Reactions</th>` +
		`</tr></thead><tbody>`)
	for _, h := range hooks {
		fmt.Fprintf(&b, `<tr><td><button hx-delete="/component/webhook-control/%s" hx-target="#webhook-response">remove</button></td>`,
			html.EscapeString(h.ID))
		fmt.Fprintf(&b, `<td>%s</td><td>%s</td><td>%s</td><td>%s</td>`,
			html.EscapeString(h.EventCode), html.EscapeString(h.Sender),
			html.EscapeString(h.PostURL), html.EscapeString(h.AuthHeader))
		for _, flag := range []bool{h.IncludeInfo, h.IncludeChat, h.IncludeContact, h.IncludeQuotedMessage,
			h.IncludeOrder, h.IncludeGroupMentions, h.IncludeMentions, h.IncludePayment, h.IncludeReactions} {
			if flag {
				b.WriteString(`<td>&#9989;</td>`)
			} else {
				b.WriteString(`<td>&#128683;</td>`)
			}
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table></div>`)
	return b.String()
}

// EventOptionsHandler handles GET /component/event-options.
func (s *Server) EventOptionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var b strings.Builder
	b.WriteString(`<select class="select select-bordered w-full max-w-xs" id="event_code" name="event_code">`)
	for _, code := range s.Events {
		label := eventLabels[code]
		if label == "" {
			label = code
		}
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, html.EscapeString(code), html.EscapeString(label))
	}
	b.WriteString(`</select>`)
	writeHTML(w, http.StatusOK, b.String())
}

// ContactOptionsHandler handles GET /component/contact/{field}: a select of
// the source's contacts, named after the form field it feeds.
func (s *Server) ContactOptionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	field := strings.TrimPrefix(r.URL.Path, "/component/contact/")
	if field == "" {
		writeHTML(w, http.StatusBadRequest, alertFragment("alert-error", "Parameter type is missing"))
		return
	}
	if s.Source == nil {
		writeHTML(w, http.StatusServiceUnavailable, alertFragment("alert-error", errNoSource.Error()))
		return
	}
	contacts, err := s.Source.Contacts(r.Context())
	if err != nil {
		log.Printf("api: error fetching contact list component: %v", err)
		writeHTML(w, http.StatusInternalServerError, alertFragment("alert-error", internalError))
		return
	}
	type option struct {
		name     string
		value    string
		selected bool
	}
	options := make([]option, 0, len(contacts))
	for _, c := range contacts {
		name := c.VerifiedName
		if name == "" {
			name = c.Name
		}
		if name == "" {
			name = c.PushName
		}
		options = append(options, option{name: name, value: c.ID, selected: c.IsMe})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].name < options[j].name })

	var b strings.Builder
	fmt.Fprintf(&b, `<select class="select select-bordered w-full max-w-xs" id="%s" name="%s" required>`,
		html.EscapeString(field), html.EscapeString(field))
	for _, o := range options {
		sel := ""
		if o.selected {
			sel = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, html.EscapeString(o.value), sel, html.EscapeString(o.name))
	}
	b.WriteString(`</select>`)
	writeHTML(w, http.StatusOK, b.String())
}

// StatusControlHandler handles GET /component/status-control: pairing state
// with an inline QR image while a pairing code is pending.
func (s *Server) StatusControlHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var st model.ReadyStatus
	if s.Status != nil {
		st = s.Status()
	}
	if st.Ready {
		writeHTML(w, http.StatusOK, `<h2>Messaging client is ready</h2>`)
		return
	}
	if st.QR == "" {
		writeHTML(w, http.StatusOK, `<h2>Waiting for QR...</h2>`)
		return
	}
	png, err := qrcode.Encode(st.QR, qrcode.Medium, 256)
	if err != nil {
		log.Printf("api: error generating QR code: %v", err)
		writeHTML(w, http.StatusInternalServerError, alertFragment("alert-error", internalError))
		return
	}
	img := base64.StdEncoding.EncodeToString(png)
	writeHTML(w, http.StatusOK,
		`<h2 class="mb-4">Use your phone to pair:</h2><img src="data:image/png;base64,`+img+`" alt="QR Code"/>`)
}

// MessageControlHandler handles POST /component/message-control.
func (s *Server) MessageControlHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeHTML(w, http.StatusBadRequest, alertFragment("alert-error", "Invalid form"))
		return
	}
	recipient := r.PostForm.Get("recipient")
	message := r.PostForm.Get("message")
	if recipient == "" || message == "" {
		writeHTML(w, http.StatusBadRequest, alertFragment("alert-error", "recipient and message are required"))
		return
	}
	if s.Source == nil {
		writeHTML(w, http.StatusServiceUnavailable, alertFragment("alert-error", errNoSource.Error()))
		return
	}
	if err := s.Source.SendMessage(r.Context(), recipient, s.BreakChar+" "+message); err != nil {
		log.Printf("api: error relaying message component: %v", err)
		writeHTML(w, http.StatusInternalServerError, alertFragment("alert-error", internalError))
		return
	}
	writeHTML(w, http.StatusOK, alertFragment("alert-success", "Message sent"))
}
