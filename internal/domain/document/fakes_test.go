package document

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
)

// ============================================================================
// FAKES
// ============================================================================

type fakeStore struct {
	mu    sync.Mutex
	calls int
	saved []Document
	err   error
}

func (s *fakeStore) SaveDocument(ctx context.Context, doc Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, doc)
	return fmt.Sprintf("doc-%d", len(s.saved)), nil
}

type fakeNumberer struct {
	mu   sync.Mutex
	next map[enum.DocumentType]int
	err  error
}

func (n *fakeNumberer) Next(ctx context.Context, t enum.DocumentType) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return "", n.err
	}
	if n.next == nil {
		n.next = make(map[enum.DocumentType]int)
	}
	n.next[t]++
	info, _ := LookupKind(t)
	return fmt.Sprintf("%s-%06d", info.Prefix, n.next[t]), nil
}

type recordingNotifier struct {
	notices []Notice
}

func (r *recordingNotifier) Notify(ctx context.Context, n Notice) {
	r.notices = append(r.notices, n)
}

type fakeLookup struct {
	mu           sync.Mutex
	transactions []Transaction
	items        map[string][]LineItem
	outstanding  []OutstandingInvoice
	itemsErr     error
	// gates blocks ListItems for a transaction until the channel is closed
	gates   map[string]chan struct{}
	started chan string
}

func (l *fakeLookup) ListTransactions(ctx context.Context, c Customer) ([]Transaction, error) {
	return l.transactions, nil
}

func (l *fakeLookup) ListItems(ctx context.Context, id string) ([]LineItem, error) {
	l.mu.Lock()
	gate := l.gates[id]
	started := l.started
	l.mu.Unlock()

	if started != nil {
		started <- id
	}
	if gate != nil {
		<-gate
	}
	if l.itemsErr != nil {
		return nil, l.itemsErr
	}
	return l.items[id], nil
}

func (l *fakeLookup) ListOutstandingInvoices(ctx context.Context, c Customer) ([]OutstandingInvoice, error) {
	return l.outstanding, nil
}

// ledgerStore keeps one document per (type, number) and hands out numbers
// the way a count based database sequence does: stored documents plus one.
type ledgerStore struct {
	mu    sync.Mutex
	calls int
	saved []Document
}

func (s *ledgerStore) SaveDocument(ctx context.Context, doc Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for _, d := range s.saved {
		if d.Type == doc.Type && d.Number == doc.Number {
			return "", fmt.Errorf("%w: %s", ErrNumberTaken, doc.Number)
		}
	}
	s.saved = append(s.saved, doc)
	return fmt.Sprintf("doc-%d", len(s.saved)), nil
}

func (s *ledgerStore) Next(ctx context.Context, t enum.DocumentType) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.saved {
		if d.Type == t {
			n++
		}
	}
	info, _ := LookupKind(t)
	return fmt.Sprintf("%s-%06d", info.Prefix, n+1), nil
}

var errStoreDown = errors.New("connection refused")

// ============================================================================
// HELPERS
// ============================================================================

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func ndp(s string) *decimal.NullDecimal {
	v := nd(s)
	return &v
}

func strp(s string) *string {
	return &s
}

func newTestForm(t *testing.T, kind enum.DocumentType, opts ...Option) (*Form, *fakeStore, *fakeNumberer) {
	t.Helper()
	store := &fakeStore{}
	numbers := &fakeNumberer{}
	opts = append([]Option{WithIDGenerator(sequentialIDs()), WithClock(func() time.Time { return fixedNow })}, opts...)
	f, err := NewForm(context.Background(), kind, numbers, store, opts...)
	require.NoError(t, err)
	return f, store, numbers
}

func itemIDs(items []LineItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
