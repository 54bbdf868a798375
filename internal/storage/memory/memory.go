// Package memory is an in-memory record store. It backs the service
// tests and the no-database dev backend selected by DATA_BACKEND.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

type Store struct {
	mu           sync.Mutex
	categories   map[int64]core.Category
	transactions map[int64]core.Transaction
	events       []amqp.LedgerEventMessage
	nextCatID    int64
	nextTxID     int64
	clock        int64 // monotonic created_at tie-breaker
}

func New() *Store {
	return &Store{
		categories:   make(map[int64]core.Category),
		transactions: make(map[int64]core.Transaction),
	}
}

// Seed inserts shared default categories, mirroring the SQLite seed
// migration.
func (s *Store) Seed(defaults []core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range defaults {
		s.nextCatID++
		c.ID = s.nextCatID
		c.UserID = ""
		c.CreatedAt = s.tick()
		s.categories[c.ID] = c
	}
}

func (s *Store) tick() time.Time {
	s.clock++
	return time.Unix(0, s.clock)
}

func (s *Store) InsertCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if !existing.Shared() && existing.UserID == c.UserID &&
			existing.Name == c.Name && existing.Type == c.Type {
			return core.Category{}, core.NewConflictf(
				"category '%s' of type '%s' already exists for this user", c.Name, c.Type)
		}
	}

	s.nextCatID++
	c.ID = s.nextCatID
	c.CreatedAt = s.tick()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (*core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) GetVisibleCategory(_ context.Context, id int64, userID string) (*core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || !c.VisibleTo(userID) {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) ListVisibleCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Category
	for _, c := range s.categories {
		if c.VisibleTo(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, id int64, userID string, patch core.CategoryPatch) (*core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.Shared() || c.UserID != userID {
		return nil, nil
	}

	name := c.Name
	if patch.Name != nil {
		name = *patch.Name
	}
	for _, existing := range s.categories {
		if existing.ID != id && existing.UserID == userID &&
			existing.Name == name && existing.Type == c.Type {
			return nil, core.NewConflict("category with this name and type already exists for this user")
		}
	}

	c.Name = name
	if patch.Icon != nil {
		c.Icon = *patch.Icon
	}
	s.categories[id] = c
	return &c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64, userID string) (*core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.Shared() || c.UserID != userID {
		return nil, nil
	}
	delete(s.categories, id)
	return &c, nil
}

func (s *Store) InsertTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTxID++
	tx.ID = s.nextTxID
	tx.CreatedAt = s.tick()
	tx.Category = nil
	s.transactions[tx.ID] = tx
	return s.hydrate(tx), nil
}

func (s *Store) GetTransaction(_ context.Context, id int64, userID string) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return nil, nil
	}
	out := s.hydrate(tx)
	return &out, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Transaction
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			continue
		}
		if f.HasRange() {
			if !f.From.IsEmpty() && tx.Date.Before(f.From.Time) {
				continue
			}
			if !f.To.IsEmpty() && tx.Date.After(f.To.Time) {
				continue
			}
		} else if f.Type != "" && tx.Type != f.Type {
			continue
		}
		out = append(out, s.hydrate(tx))
	}

	sortMostRecentFirst(out)

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id int64, userID string, patch core.TransactionPatch) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return nil, nil
	}

	if patch.Title != nil {
		tx.Title = *patch.Title
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.PaymentMethod != nil {
		tx.PaymentMethod = *patch.PaymentMethod
	}
	if patch.CategoryID != nil {
		tx.CategoryID = *patch.CategoryID
	}
	if patch.Type != nil {
		tx.Type = *patch.Type
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	if patch.DocumentURL != nil {
		tx.DocumentURL = *patch.DocumentURL
	}
	if patch.Date != nil {
		tx.Date = *patch.Date
	}

	s.transactions[id] = tx
	out := s.hydrate(tx)
	return &out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64, userID string) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return nil, nil
	}
	delete(s.transactions, id)
	return &tx, nil
}

func (s *Store) DeleteAllTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted []core.Transaction
	for id, tx := range s.transactions {
		if tx.UserID == userID {
			deleted = append(deleted, tx)
			delete(s.transactions, id)
		}
	}
	sortMostRecentFirst(deleted)
	return deleted, nil
}

func (s *Store) CountTransactionsByCategory(_ context.Context, categoryID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, tx := range s.transactions {
		if tx.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// RecordLedgerEvent implements the audit worker's recorder port.
func (s *Store) RecordLedgerEvent(_ context.Context, msg *amqp.LedgerEventMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *msg)
	return nil
}

// LedgerEvents returns a copy of the recorded audit trail.
func (s *Store) LedgerEvents() []amqp.LedgerEventMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]amqp.LedgerEventMessage(nil), s.events...)
}

// hydrate attaches the referenced category summary when it still exists.
func (s *Store) hydrate(tx core.Transaction) core.Transaction {
	if c, ok := s.categories[tx.CategoryID]; ok {
		cat := c
		tx.Category = &cat
	}
	return tx
}

func sortMostRecentFirst(txs []core.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date.Time)
		}
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.After(txs[j].CreatedAt)
		}
		return txs[i].ID > txs[j].ID
	})
}
