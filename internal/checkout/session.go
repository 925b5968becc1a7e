package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mintmotion/mintmotion-backend/internal/cart"
	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	"github.com/mintmotion/mintmotion-backend/pkg/enums"
)

// Session is the single-flight state of one checkout attempt. It lives in
// memory only: a restart loses in-flight progress, and the durable source
// of truth stays the chain plus the transactions table.
type Session struct {
	UserID           uuid.UUID
	Status           enums.CheckoutStatus
	TxHash           string
	ErrorCode        string
	ErrorMessage     string
	ChainID          int64
	WalletAddress    string
	ReceivingAddress string
	Network          *models.BlockchainNetwork
	// Items and totals are snapshotted when the attempt is prepared.
	// Cart mutations after that point do not alter the submitted total.
	Items       []cart.Item
	TotalUSD    decimal.Decimal
	TotalNative decimal.Decimal
	Rate        decimal.Decimal
	OrderID     uuid.UUID
	StartedAt   time.Time
	UpdatedAt   time.Time
}

// IsBusy reports whether the attempt is mid-flight.
func (s *Session) IsBusy() bool {
	if s == nil {
		return false
	}
	return s.Status.IsBusy()
}

// SessionStore holds at most one active checkout session per user.
type SessionStore struct {
	mtx      sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewSessionStore builds an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]*Session)}
}

// Get returns a copy of the user's session, if one exists.
func (s *SessionStore) Get(userID uuid.UUID) (Session, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// BeginAttempt installs a fresh session unless one is already mid-flight.
// Returns false when a busy attempt blocks the new one. The store keeps its
// own copy, so later writes to the caller's struct stay invisible to
// concurrent readers until published through Update.
func (s *SessionStore) BeginAttempt(session *Session) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if existing, ok := s.sessions[session.UserID]; ok && existing.IsBusy() {
		return false
	}
	session.StartedAt = time.Now().UTC()
	session.UpdatedAt = session.StartedAt
	stored := *session
	s.sessions[session.UserID] = &stored
	return true
}

// Update mutates the user's session under the store lock. Returns false if
// no session exists.
func (s *SessionStore) Update(userID uuid.UUID, fn func(*Session)) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return false
	}
	fn(session)
	session.UpdatedAt = time.Now().UTC()
	return true
}

// Clear drops the user's session.
func (s *SessionStore) Clear(userID uuid.UUID) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.sessions, userID)
}
