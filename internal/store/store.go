// Package store keeps finished result records in memory, bounded by entry count and age.
package store

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/elkquiz/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store is an insert-once, read-many result store. It is safe for concurrent use.
type Store struct {
	records   *expirable.LRU[string, *analysis.ResultRecord]
	evictions atomic.Uint64
}

// New creates a store holding at most maxEntries records, each for at most ttl.
func New(maxEntries int, ttl time.Duration) *Store {
	s := &Store{}
	s.records = expirable.NewLRU[string, *analysis.ResultRecord](maxEntries, func(string, *analysis.ResultRecord) {
		s.evictions.Add(1)
	}, ttl)
	return s
}

// Put stores record under its id.
func (s *Store) Put(record *analysis.ResultRecord) {
	s.records.Add(record.ID, record)
}

// Get returns the record with id if it was scored against suiteID. A record from another
// suite is reported as not found.
func (s *Store) Get(suiteID, id string) (*analysis.ResultRecord, error) {
	record, ok := s.records.Get(id)
	if !ok || record.SuiteID() != suiteID {
		return nil, notFound(id)
	}
	return record, nil
}

// GetAny returns the record with id regardless of suite.
func (s *Store) GetAny(id string) (*analysis.ResultRecord, error) {
	record, ok := s.records.Get(id)
	if !ok {
		return nil, notFound(id)
	}
	return record, nil
}

// Len is the number of live records.
func (s *Store) Len() int { return s.records.Len() }

// Evictions counts records dropped for capacity or age.
func (s *Store) Evictions() uint64 { return s.evictions.Load() }

func notFound(id string) error {
	return apperrors.NewNotFoundError("result", id, fmt.Sprintf("结果不存在: %s", id))
}
