package portal

import (
	"bytes"
	"context"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
)

// Tickets manages support tickets, including the admin-side operations.
type Tickets struct {
	client *apiclient.Client
}

// NewTickets creates the support-ticket service.
func NewTickets(client *apiclient.Client) *Tickets {
	return &Tickets{client: client}
}

// List returns the account's tickets, newest first.
func (t *Tickets) List(ctx context.Context) ([]Ticket, error) {
	var tickets []Ticket
	if err := t.client.Get(ctx, "/support/tickets", nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// CreateTicketRequest is the new-ticket form. Attachments are optional.
type CreateTicketRequest struct {
	Subject     string
	Category    string
	Priority    string
	Message     string
	Attachments []Attachment
}

// Create opens a new ticket. The endpoint takes a multipart form because
// attachments ride along with the first message.
func (t *Tickets) Create(ctx context.Context, req CreateTicketRequest) (Ticket, error) {
	form := apiclient.NewForm().
		AddField("subject", req.Subject).
		AddField("category", req.Category).
		AddField("priority", req.Priority).
		AddField("message", req.Message)
	for _, att := range req.Attachments {
		form.AddFile("attachments", att.Filename, bytes.NewReader(att.Data))
	}

	var ticket Ticket
	if err := t.client.PostMultipart(ctx, "/support/tickets", form, &ticket); err != nil {
		return Ticket{}, err
	}
	return ticket, nil
}

// AddMessage appends a message, with optional attachments, to a ticket.
func (t *Tickets) AddMessage(ctx context.Context, ticketID, message string, attachments []Attachment) (Ticket, error) {
	form := apiclient.NewForm().AddField("message", message)
	for _, att := range attachments {
		form.AddFile("attachments", att.Filename, bytes.NewReader(att.Data))
	}

	var ticket Ticket
	err := t.client.PostMultipart(ctx, "/support/tickets/"+ticketID+"/messages", form, &ticket)
	if err != nil {
		return Ticket{}, err
	}
	return ticket, nil
}

// AdminList returns every account's tickets. Requires the support-admin
// role; the backend enforces it regardless of what the caller believes.
func (t *Tickets) AdminList(ctx context.Context) ([]Ticket, error) {
	var tickets []Ticket
	if err := t.client.Get(ctx, "/support/admin/tickets", nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// SetStatus updates a ticket's status (admin).
func (t *Tickets) SetStatus(ctx context.Context, ticketID, status string) error {
	body := map[string]string{"status": status}
	return t.client.Patch(ctx, "/support/admin/tickets/"+ticketID+"/status", body, nil)
}

// SetPriority updates a ticket's priority (admin).
func (t *Tickets) SetPriority(ctx context.Context, ticketID, priority string) error {
	body := map[string]string{"priority": priority}
	return t.client.Patch(ctx, "/support/admin/tickets/"+ticketID+"/priority", body, nil)
}
