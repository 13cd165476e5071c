package devstub

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/swaroop-labs/portalctl/internal/portal"
)

// handleInitiatePayment creates a "gateway order" and settles it
// immediately: the stub has no payment gateway, so the credits (plus
// bonus) land on the account straight away and a purchase transaction is
// posted.
func (s *Server) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount         float64 `json:"amount"`
		Credits        int64   `json:"credits"`
		IdempotencyKey string  `json:"idempotencyKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Amount <= 0 || req.Credits <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "amount and credits must be positive")
		return
	}

	id := userID(r)
	bonus := portal.BonusCredits(req.Credits)

	s.state.appendTransaction(id, "purchase", "credit purchase", req.Amount, req.Credits)
	if bonus > 0 {
		s.state.appendTransaction(id, "bonus", "purchase bonus", 0, bonus)
	}

	s.hub.broadcast("transaction_posted", map[string]any{"credits": req.Credits + bonus})

	writeJSON(w, http.StatusCreated, portal.PaymentOrder{
		OrderID:      "ord-" + uuid.New().String()[:8],
		Amount:       req.Amount,
		Credits:      req.Credits,
		BonusCredits: bonus,
		Currency:     "INR",
	})
}
