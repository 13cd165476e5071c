package devstub

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/swaroop-labs/portalctl/internal/portal"
)

// ticketFormLimit caps the in-memory multipart parse.
const ticketFormLimit = 8 << 20

// handleListTickets returns the caller's own tickets.
func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	all := s.state.allTickets()
	mine := make([]portal.Ticket, 0)
	for _, tkt := range all {
		if tkt.UserID == id {
			mine = append(mine, tkt)
		}
	}
	writeJSON(w, http.StatusOK, mine)
}

// attachmentNames extracts the filenames of uploaded attachments. The stub
// keeps names only; contents are discarded.
func attachmentNames(r *http.Request) []string {
	if r.MultipartForm == nil {
		return nil
	}
	var names []string
	for _, file := range r.MultipartForm.File["attachments"] {
		names = append(names, file.Filename)
	}
	return names
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(ticketFormLimit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	subject := r.FormValue("subject")
	message := r.FormValue("message")
	if subject == "" || message == "" {
		writeError(w, http.StatusUnprocessableEntity, "subject and message are required")
		return
	}
	priority := r.FormValue("priority")
	if priority == "" {
		priority = "medium"
	}

	now := time.Now().UTC()
	ticket := &portal.Ticket{
		ID:       "tkt-" + uuid.New().String()[:8],
		Subject:  subject,
		Category: r.FormValue("category"),
		Priority: priority,
		Status:   "open",
		UserID:   userID(r),
		Messages: []portal.TicketMessage{{
			ID:          "msg-" + uuid.New().String()[:8],
			Body:        message,
			Attachments: attachmentNames(r),
			CreatedAt:   now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.state.mu.Lock()
	s.state.tickets[ticket.ID] = ticket
	s.state.mu.Unlock()

	s.hub.broadcast("ticket_updated", map[string]any{"ticketId": ticket.ID})
	writeJSON(w, http.StatusCreated, ticket)
}

func (s *Server) handleAddTicketMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(ticketFormLimit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	message := r.FormValue("message")
	if message == "" {
		writeError(w, http.StatusUnprocessableEntity, "message is required")
		return
	}

	id := chi.URLParam(r, "id")
	caller, _ := s.state.get(userID(r))

	s.state.mu.Lock()
	ticket, ok := s.state.tickets[id]
	if ok && caller != nil && (ticket.UserID == caller.ID || caller.IsAdmin) {
		ticket.Messages = append(ticket.Messages, portal.TicketMessage{
			ID:          "msg-" + uuid.New().String()[:8],
			Body:        message,
			FromSupport: caller.IsAdmin && ticket.UserID != caller.ID,
			Attachments: attachmentNames(r),
			CreatedAt:   time.Now().UTC(),
		})
		ticket.UpdatedAt = time.Now().UTC()
		snapshot := *ticket
		s.state.mu.Unlock()

		s.hub.broadcast("ticket_updated", map[string]any{"ticketId": id})
		writeJSON(w, http.StatusOK, snapshot)
		return
	}
	s.state.mu.Unlock()
	writeError(w, http.StatusNotFound, "ticket not found")
}

// handleCheckAdmin is the authoritative role check the privileged gate
// consults. It reflects current state, not what any client has cached.
func (s *Server) handleCheckAdmin(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.state.get(userID(r))
	writeJSON(w, http.StatusOK, map[string]bool{"isAdmin": ok && acct.IsAdmin})
}

func (s *Server) handleAdminListTickets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.allTickets())
}

// patchTicket applies one validated field update to a ticket.
func (s *Server) patchTicket(w http.ResponseWriter, r *http.Request, value string, valid map[string]bool, apply func(*portal.Ticket)) {
	if !valid[value] {
		writeError(w, http.StatusUnprocessableEntity, "invalid value")
		return
	}
	id := chi.URLParam(r, "id")

	s.state.mu.Lock()
	ticket, ok := s.state.tickets[id]
	if !ok {
		s.state.mu.Unlock()
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	apply(ticket)
	ticket.UpdatedAt = time.Now().UTC()
	snapshot := *ticket
	s.state.mu.Unlock()

	s.hub.broadcast("ticket_updated", map[string]any{"ticketId": id})
	writeJSON(w, http.StatusOK, snapshot)
}

var ticketStatuses = map[string]bool{"open": true, "in-progress": true, "resolved": true, "closed": true}
var ticketPriorities = map[string]bool{"low": true, "medium": true, "high": true, "urgent": true}

func (s *Server) handleSetTicketStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.patchTicket(w, r, req.Status, ticketStatuses, func(tkt *portal.Ticket) {
		tkt.Status = req.Status
	})
}

func (s *Server) handleSetTicketPriority(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Priority string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.patchTicket(w, r, req.Priority, ticketPriorities, func(tkt *portal.Ticket) {
		tkt.Priority = req.Priority
	})
}

// handleListUsers returns every account (super-admin only; enforced by
// middleware).
func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.state.mu.Lock()
	users := make([]portal.AdminUser, 0, len(s.state.accounts))
	for _, acct := range s.state.accounts {
		users = append(users, portal.AdminUser{
			ID:       acct.ID,
			Username: acct.Username,
			Email:    acct.Email,
			Credits:  acct.Credits,
			IsAdmin:  acct.IsAdmin,
		})
	}
	s.state.mu.Unlock()
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleSetUserAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id := chi.URLParam(r, "id")

	s.state.mu.Lock()
	acct, ok := s.state.accounts[id]
	if ok {
		acct.IsAdmin = req.IsAdmin
	}
	s.state.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
}
