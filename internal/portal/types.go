package portal

import (
	"time"

	"github.com/swaroop-labs/portalctl/internal/session"
)

// APIToken is a long-lived bearer token for calling the hosted inference
// APIs. The secret value is only returned on creation.
type APIToken struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	LastUsed  time.Time `json:"lastUsedAt,omitzero"`
}

// Subscription records that the account may call one hosted API.
type Subscription struct {
	APIName      string    `json:"apiName"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// AvailableAPI describes one hosted API offered by the platform.
type AvailableAPI struct {
	Name         string  `json:"name"`
	DisplayName  string  `json:"displayName"`
	Description  string  `json:"description"`
	Endpoint     string  `json:"endpoint"`
	PricePerCall float64 `json:"pricePerCall"`
}

// Transaction is one credit-ledger entry (purchase, usage or bonus).
type Transaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Credits     int64     `json:"credits"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TransactionPage is one page of ledger entries plus the unpaged total.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
}

// UsagePoint is one bucket of the usage time series.
type UsagePoint struct {
	Date     string `json:"date"`
	Calls    int64  `json:"calls"`
	Failures int64  `json:"failures"`
}

// AnalyticsSummary aggregates usage across all subscribed APIs.
type AnalyticsSummary struct {
	TotalCalls   int64        `json:"totalCalls"`
	TotalCredits int64        `json:"totalCreditsUsed"`
	Series       []UsagePoint `json:"series"`
}

// APIAnalytics is the per-API usage breakdown.
type APIAnalytics struct {
	APIName string       `json:"apiName"`
	Calls   int64        `json:"calls"`
	Credits int64        `json:"creditsUsed"`
	Series  []UsagePoint `json:"series"`
}

// TicketMessage is one entry in a support-ticket conversation.
type TicketMessage struct {
	ID          string    `json:"id"`
	Body        string    `json:"message"`
	FromSupport bool      `json:"isAdmin"`
	Attachments []string  `json:"attachments,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Ticket is a support ticket with its conversation.
type Ticket struct {
	ID        string          `json:"id"`
	Subject   string          `json:"subject"`
	Category  string          `json:"category"`
	Priority  string          `json:"priority"`
	Status    string          `json:"status"`
	UserID    string          `json:"userId,omitempty"`
	Messages  []TicketMessage `json:"messages,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt,omitzero"`
}

// Attachment is a file included with a ticket or ticket message.
type Attachment struct {
	Filename string
	Data     []byte
}

// PaymentOrder is the gateway order created for a credit purchase.
type PaymentOrder struct {
	OrderID      string  `json:"orderId"`
	Amount       float64 `json:"amount"`
	Credits      int64   `json:"credits"`
	BonusCredits int64   `json:"bonusCredits"`
	Currency     string  `json:"currency"`
}

// AdminUser is the super-admin view of an account.
type AdminUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Credits  int64  `json:"credits"`
	IsAdmin  bool   `json:"isAdmin"`
}

// loginResponse is the /auth/login success body.
type loginResponse struct {
	Token string          `json:"token"`
	User  session.Profile `json:"user"`
}
