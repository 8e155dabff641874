package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
	pkgredis "github.com/minarilabs/storefront-backend/pkg/redis"
)

const defaultGuestTTL = 7 * 24 * time.Hour

type guestBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(sessionID string) string
}

// GuestLine is one product in a guest session cart. Guest carts hold only
// product references and quantities; names and prices are resolved when the
// session is merged into a durable cart.
type GuestLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Qty       int       `json:"qty"`
}

// GuestStore keeps anonymous session carts in Redis. Each write refreshes the
// TTL, so an abandoned session expires on its own.
type GuestStore struct {
	store guestBackend
	ttl   time.Duration
}

// NewGuestStore builds a guest cart store.
func NewGuestStore(store guestBackend, ttl time.Duration) (*GuestStore, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if ttl <= 0 {
		ttl = defaultGuestTTL
	}
	return &GuestStore{store: store, ttl: ttl}, nil
}

// Lines returns the session's cart lines. An unknown session is an empty cart.
func (g *GuestStore) Lines(ctx context.Context, sessionID string) ([]GuestLine, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	raw, err := g.store.Get(ctx, g.store.GuestCartKey(sessionID))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
	}

	var lines []GuestLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode guest cart")
	}
	return lines, nil
}

// AddLine merges the quantity into the session cart.
func (g *GuestStore) AddLine(ctx context.Context, sessionID string, productID uuid.UUID, qty int) ([]GuestLine, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	lines, err := g.Lines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Qty += qty
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, GuestLine{ProductID: productID, Qty: qty})
	}

	if err := g.save(ctx, sessionID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SetLineQuantity replaces a line's quantity; zero or below removes the line.
func (g *GuestStore) SetLineQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) ([]GuestLine, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	lines, err := g.Lines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := lines[:0]
	for _, line := range lines {
		if line.ProductID == productID {
			if qty > 0 {
				line.Qty = qty
				out = append(out, line)
			}
			continue
		}
		out = append(out, line)
	}

	if err := g.save(ctx, sessionID, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Clear drops the session cart.
func (g *GuestStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := g.store.Del(ctx, g.store.GuestCartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart")
	}
	return nil
}

func (g *GuestStore) save(ctx context.Context, sessionID string, lines []GuestLine) error {
	key := g.store.GuestCartKey(sessionID)
	if len(lines) == 0 {
		if err := g.store.Del(ctx, key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart")
		}
		return nil
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode guest cart")
	}
	if err := g.store.Set(ctx, key, payload, g.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store guest cart")
	}
	return nil
}
