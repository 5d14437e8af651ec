package session

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/apperrors"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/logger"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/models"
)

// Gate issues and consumes verification tickets.
//
// Tickets live sealed in the client cookie jar. Consume is at-most-once: the
// ticket ID is recorded in a per-instance registry before the cookie delete is
// written, so two tabs racing the same ticket get exactly one success. The
// identity backend stays authoritative for the action the ticket unlocks.
type Gate struct {
	codec  *Codec
	replay *replayRegistry
	logger logger.Logger

	now func() time.Time
}

func NewGate(codec *Codec, l logger.Logger) *Gate {
	return &Gate{
		codec:  codec,
		replay: newReplayRegistry(),
		logger: l,
		now:    time.Now,
	}
}

// Issue creates a ticket and writes it to the response. A prior ticket of the
// same purpose is overwritten, last issued wins.
func (g *Gate) Issue(w http.ResponseWriter, purpose models.Purpose, payload models.TicketPayload, ttl time.Duration) (models.VerificationTicket, error) {
	now := g.now()
	ticket := models.VerificationTicket{
		ID:        uuid.New(),
		Purpose:   purpose,
		Payload:   payload,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	sealed, err := g.codec.Seal(ticket)
	if err != nil {
		return ticket, fmt.Errorf("error while sealing ticket. Err: %w", err)
	}

	setCookie(w, GateCookieName(purpose), sealed, ttl)
	g.logger.Debug("verification ticket issued", "purpose", string(purpose), "ttl", ttl)
	return ticket, nil
}

// Peek reports whether a valid ticket of the purpose is currently open,
// without consuming it. Route guards use it to let a page render while the
// actual exchange happens on form submit.
func (g *Gate) Peek(r *http.Request, purpose models.Purpose) bool {
	ticket, err := g.read(r, purpose)
	if err != nil {
		return false
	}
	return !g.replay.Consumed(ticket.ID)
}

// Read returns the payload of an open ticket without consuming it. Flow steps
// that need the pending state but do not complete the exchange (resend
// verification, pre-filling the verify form) use this instead of a separate
// data cookie.
func (g *Gate) Read(r *http.Request, purpose models.Purpose) (models.TicketPayload, error) {
	ticket, err := g.read(r, purpose)
	if err != nil {
		return models.TicketPayload{}, err
	}
	if g.replay.Consumed(ticket.ID) {
		return models.TicketPayload{}, apperrors.ErrTicketNotFound
	}
	return ticket.Payload, nil
}

// Consume fetches and deletes the ticket in one logical step and returns its
// payload. Expired and never-issued tickets are told apart in logs only; both
// surface as the matching apperrors sentinel for the caller to map to the
// flow's entry point.
func (g *Gate) Consume(w http.ResponseWriter, r *http.Request, purpose models.Purpose) (models.TicketPayload, error) {
	ticket, err := g.read(r, purpose)
	if err != nil {
		clearCookie(w, GateCookieName(purpose))
		g.logger.Info("ticket consume failed", "purpose", string(purpose), "reason", err.Error())
		return models.TicketPayload{}, err
	}

	// Mark consumed before the cookie delete is written, so a concurrent
	// duplicate consume of the same ticket can not also succeed
	if !g.replay.MarkConsumed(ticket.ID, ticket.ExpiresAt) {
		clearCookie(w, GateCookieName(purpose))
		g.logger.Info("ticket consume failed", "purpose", string(purpose), "reason", "already consumed")
		return models.TicketPayload{}, apperrors.ErrTicketNotFound
	}

	clearCookie(w, GateCookieName(purpose))
	g.logger.Debug("verification ticket consumed", "purpose", string(purpose))
	return ticket.Payload, nil
}

func (g *Gate) read(r *http.Request, purpose models.Purpose) (models.VerificationTicket, error) {
	c, err := r.Cookie(GateCookieName(purpose))
	if err != nil {
		return models.VerificationTicket{}, apperrors.ErrTicketNotFound
	}

	ticket, err := g.codec.Open(c.Value)
	if err != nil || ticket.Purpose != purpose {
		return models.VerificationTicket{}, apperrors.ErrTicketNotFound
	}

	if ticket.Expired(g.now()) {
		return models.VerificationTicket{}, apperrors.ErrTicketExpired
	}

	return ticket, nil
}

// replayRegistry remembers consumed ticket IDs until the ticket itself would
// have expired anyway. Guarded by a mutex: ticket exchange is rare, contention
// is not a concern.
type replayRegistry struct {
	mu       sync.Mutex
	consumed map[uuid.UUID]time.Time
}

func newReplayRegistry() *replayRegistry {
	return &replayRegistry{consumed: make(map[uuid.UUID]time.Time)}
}

// MarkConsumed records the ID. Returns false if it was already recorded.
func (r *replayRegistry) MarkConsumed(id uuid.UUID, expiresAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep(time.Now())

	if _, ok := r.consumed[id]; ok {
		return false
	}
	r.consumed[id] = expiresAt
	return true
}

func (r *replayRegistry) Consumed(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.consumed[id]
	return ok
}

// sweep drops entries for tickets that expired on their own. Called with the
// lock held.
func (r *replayRegistry) sweep(now time.Time) {
	for id, expiresAt := range r.consumed {
		if now.After(expiresAt) {
			delete(r.consumed, id)
		}
	}
}
