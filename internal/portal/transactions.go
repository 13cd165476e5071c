package portal

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
)

// TransactionQuery selects and orders a page of the credit ledger. Zero
// values are omitted from the request and fall back to backend defaults.
type TransactionQuery struct {
	Page      int
	Limit     int
	Type      string // "purchase", "usage", "bonus" or empty for all
	SortBy    string // "createdAt" or "amount"
	SortOrder string // "asc" or "desc"
	StartDate time.Time
	EndDate   time.Time
}

// values encodes the query as backend parameters.
func (q TransactionQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	if !q.StartDate.IsZero() {
		v.Set("startDate", q.StartDate.Format(time.RFC3339))
	}
	if !q.EndDate.IsZero() {
		v.Set("endDate", q.EndDate.Format(time.RFC3339))
	}
	return v
}

// Transactions reads the account's credit ledger.
type Transactions struct {
	client *apiclient.Client
}

// NewTransactions creates the ledger service.
func NewTransactions(client *apiclient.Client) *Transactions {
	return &Transactions{client: client}
}

// List returns one page of ledger entries plus the unpaged total.
func (t *Transactions) List(ctx context.Context, query TransactionQuery) (TransactionPage, error) {
	var page TransactionPage
	if err := t.client.Get(ctx, "/auth/transactions", query.values(), &page); err != nil {
		return TransactionPage{}, err
	}
	return page, nil
}
