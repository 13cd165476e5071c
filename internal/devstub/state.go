package devstub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swaroop-labs/portalctl/internal/portal"
	"github.com/swaroop-labs/portalctl/internal/session"
)

// account is one stored user with its owned resources.
type account struct {
	session.Profile
	Password string

	Tokens        []portal.APIToken
	Subscriptions []portal.Subscription
	Transactions  []portal.Transaction
}

// state is the stub's in-memory world. One mutex guards everything; the
// stub optimises for obviousness, not throughput.
type state struct {
	mu       sync.Mutex
	accounts map[string]*account // keyed by user ID
	tickets  map[string]*portal.Ticket
	resets   map[string]string // password-reset token -> user ID
}

func newState() *state {
	return &state{
		accounts: make(map[string]*account),
		tickets:  make(map[string]*portal.Ticket),
		resets:   make(map[string]string),
	}
}

// addAccount registers a user and returns its ID.
func (st *state) addAccount(username, name, email, password string, credits int64, isAdmin, isSuperAdmin bool) string {
	st.mu.Lock()
	defer st.mu.Unlock()

	id := "usr-" + uuid.New().String()[:8]
	st.accounts[id] = &account{
		Profile: session.Profile{
			ID:           id,
			Username:     username,
			Name:         name,
			Email:        email,
			Credits:      credits,
			IsAdmin:      isAdmin,
			IsSuperAdmin: isSuperAdmin,
		},
		Password: password,
	}
	return id
}

// findByLogin matches a username or email, case-insensitively.
func (st *state) findByLogin(usernameOrEmail string) (*account, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	needle := strings.ToLower(usernameOrEmail)
	for _, acct := range st.accounts {
		if strings.ToLower(acct.Username) == needle || strings.ToLower(acct.Email) == needle {
			return acct, true
		}
	}
	return nil, false
}

func (st *state) get(id string) (*account, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	acct, ok := st.accounts[id]
	return acct, ok
}

// appendTransaction posts a ledger entry and adjusts the balance.
func (st *state) appendTransaction(id string, txType, description string, amount float64, credits int64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	acct, ok := st.accounts[id]
	if !ok {
		return
	}
	acct.Transactions = append(acct.Transactions, portal.Transaction{
		ID:          "txn-" + uuid.New().String()[:8],
		Type:        txType,
		Amount:      amount,
		Credits:     credits,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	})
	acct.Credits += credits
}

// allTickets returns every ticket, newest first.
func (st *state) allTickets() []portal.Ticket {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]portal.Ticket, 0, len(st.tickets))
	for _, tkt := range st.tickets {
		out = append(out, *tkt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
