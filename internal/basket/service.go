package basket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
)

// store is the Redis surface the basket cache uses. The basket lives outside
// the relational store: it is advisory state with a TTL, not a system of
// record.
type store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	BasketKey(userID string) string
}

// Item is one line in a user's basket.
type Item struct {
	ItemRef   uuid.UUID `json:"itemRef"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unitPrice"`
}

// Basket is the per-user cart document. Total is always derived, never stored.
type Basket struct {
	UserID uuid.UUID `json:"userId"`
	Items  []Item    `json:"items"`
}

// Total returns the sum of unit price times quantity across all lines.
func (b *Basket) Total() int64 {
	var total int64
	for _, item := range b.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// IsEmpty reports whether the basket has no lines.
func (b *Basket) IsEmpty() bool {
	return b == nil || len(b.Items) == 0
}

// Service manages per-user baskets in Redis.
type Service struct {
	store store
	ttl   time.Duration
}

// NewService builds the basket service with the given document TTL.
func NewService(s store, ttl time.Duration) (*Service, error) {
	if s == nil {
		return nil, errors.New("basket store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("basket ttl must be positive")
	}
	return &Service{store: s, ttl: ttl}, nil
}

// Get loads the user's basket, creating an empty one lazily on first read.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Basket, error) {
	raw, err := s.store.Get(ctx, s.store.BasketKey(userID.String()))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return &Basket{UserID: userID, Items: []Item{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load basket")
	}

	var basket Basket
	if err := json.Unmarshal([]byte(raw), &basket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode basket")
	}
	basket.UserID = userID
	return &basket, nil
}

// AddItem appends a line or merges quantities when the item already exists.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, item Item) (*Basket, error) {
	if item.ItemRef == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item reference is required")
	}
	if item.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if item.UnitPrice < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	basket, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range basket.Items {
		if basket.Items[i].ItemRef == item.ItemRef {
			basket.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		basket.Items = append(basket.Items, item)
	}

	if err := s.save(ctx, basket); err != nil {
		return nil, err
	}
	return basket, nil
}

// UpdateQuantity sets the quantity for an existing line; zero removes it.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemRef uuid.UUID, quantity int) (*Basket, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	basket, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range basket.Items {
		if basket.Items[i].ItemRef == itemRef {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in basket")
	}

	if quantity == 0 {
		basket.Items = append(basket.Items[:idx], basket.Items[idx+1:]...)
	} else {
		basket.Items[idx].Quantity = quantity
	}

	if err := s.save(ctx, basket); err != nil {
		return nil, err
	}
	return basket, nil
}

// RemoveItem deletes a line from the basket.
func (s *Service) RemoveItem(ctx context.Context, userID, itemRef uuid.UUID) (*Basket, error) {
	basket, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := basket.Items[:0]
	for _, item := range basket.Items {
		if item.ItemRef != itemRef {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(basket.Items) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in basket")
	}
	basket.Items = kept

	if err := s.save(ctx, basket); err != nil {
		return nil, err
	}
	return basket, nil
}

// Clear drops the basket document entirely.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Del(ctx, s.store.BasketKey(userID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear basket")
	}
	return nil
}

func (s *Service) save(ctx context.Context, basket *Basket) error {
	encoded, err := json.Marshal(basket)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("encode basket for user %s", basket.UserID))
	}
	if err := s.store.Set(ctx, s.store.BasketKey(basket.UserID.String()), string(encoded), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save basket")
	}
	return nil
}
