package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/reward-vault/pkg/database/query"
	"github.com/code-payments/reward-vault/pkg/ledger/account"
)

type store struct {
	mu      sync.Mutex
	records []*account.Record
	last    uint64
}

type ById []*account.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

func New() account.Store {
	return &store{
		records: make([]*account.Record, 0),
	}
}

func (s *store) reset() {
	s.mu.Lock()
	s.records = make([]*account.Record, 0)
	s.last = 0
	s.mu.Unlock()
}

func (s *store) findAddress(address string) *account.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}
	return nil
}

func (s *store) findByOwner(owner string) []*account.Record {
	res := make([]*account.Record, 0)
	for _, item := range s.records {
		if item.Owner == owner {
			res = append(res, item)
		}
	}
	return res
}

func (s *store) filter(items []*account.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*account.Record {
	var start uint64

	start = 0
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*account.Record
	for _, item := range items {
		if item.Id > start && direction == query.Ascending {
			res = append(res, item)
		}
		if item.Id < start && direction == query.Descending {
			res = append(res, item)
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	}

	if limit > 0 && len(res) >= int(limit) {
		return res[:limit]
	}

	return res
}

func (s *store) Get(_ context.Context, address string) (*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findAddress(address); item != nil {
		cloned := item.Clone()
		return &cloned, nil
	}

	return nil, account.ErrAccountNotFound
}

func (s *store) PutAll(_ context.Context, records ...*account.Record) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, record := range records {
		record.LastUpdatedAt = now

		if item := s.findAddress(record.Address); item != nil {
			record.Id = item.Id
			record.CopyTo(item)
			continue
		}

		s.last++
		record.Id = s.last

		cloned := record.Clone()
		s.records = append(s.records, &cloned)
	}

	return nil
}

func (s *store) GetAllByOwner(_ context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.filter(s.findByOwner(owner), cursor, limit, direction)
	if len(items) == 0 {
		return nil, account.ErrAccountNotFound
	}

	res := make([]*account.Record, len(items))
	for i, item := range items {
		cloned := item.Clone()
		res[i] = &cloned
	}
	return res, nil
}
