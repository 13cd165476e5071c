package devstub

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/swaroop-labs/portalctl/internal/catalog"
	"github.com/swaroop-labs/portalctl/internal/portal"
)

// handleAvailableAPIs serves the embedded catalog as the platform offering.
func (s *Server) handleAvailableAPIs(w http.ResponseWriter, _ *http.Request) {
	cat, err := catalog.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading catalog")
		return
	}
	apis := make([]portal.AvailableAPI, 0, len(cat.APIs))
	for _, api := range cat.APIs {
		apis = append(apis, portal.AvailableAPI{
			Name:         api.Name,
			DisplayName:  api.DisplayName,
			Description:  api.Description,
			Endpoint:     api.Path,
			PricePerCall: float64(api.CreditsPerCall),
		})
	}
	writeJSON(w, http.StatusOK, apis)
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.state.get(userID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	s.state.mu.Lock()
	tokens := make([]portal.APIToken, len(acct.Tokens))
	copy(tokens, acct.Tokens)
	s.state.mu.Unlock()

	// Secrets are only revealed at creation time.
	for i := range tokens {
		tokens[i].Token = ""
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "token name is required")
		return
	}

	acct, ok := s.state.get(userID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	token := portal.APIToken{
		ID:        "apt-" + uuid.New().String()[:8],
		Name:      req.Name,
		Token:     "sk-" + uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	s.state.mu.Lock()
	acct.Tokens = append(acct.Tokens, token)
	s.state.mu.Unlock()

	writeJSON(w, http.StatusCreated, token)
}

func (s *Server) handleDeleteToken(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.state.get(userID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	id := chi.URLParam(r, "id")

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for i, token := range acct.Tokens {
		if token.ID == id {
			acct.Tokens = append(acct.Tokens[:i], acct.Tokens[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "token revoked"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "token not found")
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.state.get(userID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	s.state.mu.Lock()
	subs := make([]portal.Subscription, len(acct.Subscriptions))
	copy(subs, acct.Subscriptions)
	s.state.mu.Unlock()
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIName string `json:"apiName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIName == "" {
		writeError(w, http.StatusUnprocessableEntity, "apiName is required")
		return
	}

	cat, err := catalog.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading catalog")
		return
	}
	if _, found := cat.API(req.APIName); !found {
		writeError(w, http.StatusNotFound, "no such API")
		return
	}

	acct, ok := s.state.get(userID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	s.state.mu.Lock()
	for _, sub := range acct.Subscriptions {
		if sub.APIName == req.APIName {
			s.state.mu.Unlock()
			writeError(w, http.StatusConflict, "already subscribed")
			return
		}
	}
	acct.Subscriptions = append(acct.Subscriptions, portal.Subscription{
		APIName:      req.APIName,
		SubscribedAt: time.Now().UTC(),
	})
	s.state.mu.Unlock()

	s.hub.broadcast("subscription_changed", map[string]any{"apiName": req.APIName})
	writeJSON(w, http.StatusCreated, map[string]string{"message": "subscribed"})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.state.get(userID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	apiName := chi.URLParam(r, "apiName")

	s.state.mu.Lock()
	for i, sub := range acct.Subscriptions {
		if sub.APIName == apiName {
			acct.Subscriptions = append(acct.Subscriptions[:i], acct.Subscriptions[i+1:]...)
			s.state.mu.Unlock()
			s.hub.broadcast("subscription_changed", map[string]any{"apiName": apiName})
			writeJSON(w, http.StatusOK, map[string]string{"message": "unsubscribed"})
			return
		}
	}
	s.state.mu.Unlock()
	writeError(w, http.StatusNotFound, "not subscribed")
}

// handleTransactions pages, filters and sorts the ledger.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.state.get(userID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 10
	}

	s.state.mu.Lock()
	entries := make([]portal.Transaction, len(acct.Transactions))
	copy(entries, acct.Transactions)
	s.state.mu.Unlock()

	if txType := q.Get("type"); txType != "" {
		filtered := entries[:0]
		for _, txn := range entries {
			if txn.Type == txType {
				filtered = append(filtered, txn)
			}
		}
		entries = filtered
	}
	if start, err := time.Parse(time.RFC3339, q.Get("startDate")); err == nil {
		filtered := entries[:0]
		for _, txn := range entries {
			if !txn.CreatedAt.Before(start) {
				filtered = append(filtered, txn)
			}
		}
		entries = filtered
	}
	if end, err := time.Parse(time.RFC3339, q.Get("endDate")); err == nil {
		filtered := entries[:0]
		for _, txn := range entries {
			if !txn.CreatedAt.After(end) {
				filtered = append(filtered, txn)
			}
		}
		entries = filtered
	}

	asc := q.Get("sortOrder") == "asc"
	byAmount := q.Get("sortBy") == "amount"
	sort.SliceStable(entries, func(i, j int) bool {
		if byAmount {
			if asc {
				return entries[i].Amount < entries[j].Amount
			}
			return entries[i].Amount > entries[j].Amount
		}
		if asc {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	total := len(entries)
	offset := (page - 1) * limit
	if offset > total {
		offset = total
	}
	limitEnd := offset + limit
	if limitEnd > total {
		limitEnd = total
	}

	writeJSON(w, http.StatusOK, portal.TransactionPage{
		Transactions: entries[offset:limitEnd],
		Total:        total,
	})
}

// handleAnalytics derives aggregate usage from the ledger.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.state.get(userID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	s.state.mu.Lock()
	var calls, credits int64
	buckets := make(map[string]int64)
	for _, txn := range acct.Transactions {
		if txn.Type != "usage" {
			continue
		}
		calls++
		credits += -txn.Credits
		buckets[txn.CreatedAt.Format("2006-01-02")]++
	}
	s.state.mu.Unlock()

	series := make([]portal.UsagePoint, 0, len(buckets))
	for date, count := range buckets {
		series = append(series, portal.UsagePoint{Date: date, Calls: count})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })

	writeJSON(w, http.StatusOK, portal.AnalyticsSummary{
		TotalCalls:   calls,
		TotalCredits: credits,
		Series:       series,
	})
}

func (s *Server) handleAPIAnalytics(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.state.get(userID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	apiName := chi.URLParam(r, "apiName")

	s.state.mu.Lock()
	var calls, credits int64
	for _, txn := range acct.Transactions {
		if txn.Type == "usage" && txn.Description == apiName {
			calls++
			credits += -txn.Credits
		}
	}
	s.state.mu.Unlock()

	writeJSON(w, http.StatusOK, portal.APIAnalytics{
		APIName: apiName,
		Calls:   calls,
		Credits: credits,
	})
}
