package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lop-gin/factory-finance-pal/internal/config"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
)

type stubSeed struct {
	next  int64
	err   error
	calls int
}

func (s *stubSeed) Next(ctx context.Context, t enum.DocumentType) (int64, error) {
	s.calls++
	return s.next, s.err
}

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisSequence_IncrementsPerType(t *testing.T) {
	client, _ := newTestClient(t)
	seq := NewRedisSequence(client, nil)
	ctx := context.Background()

	first, err := seq.Next(ctx, enum.DocumentTypeInvoice)
	require.NoError(t, err)
	second, err := seq.Next(ctx, enum.DocumentTypeInvoice)
	require.NoError(t, err)
	other, err := seq.Next(ctx, enum.DocumentTypeReceipt)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(1), other)
}

func TestRedisSequence_SeedsMissingKey(t *testing.T) {
	client, mr := newTestClient(t)
	seed := &stubSeed{next: 42}
	seq := NewRedisSequence(client, seed)
	ctx := context.Background()

	n, err := seq.Next(ctx, enum.DocumentTypeCreditNote)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = seq.Next(ctx, enum.DocumentTypeCreditNote)
	require.NoError(t, err)
	assert.Equal(t, int64(43), n)
	assert.Equal(t, 1, seed.calls)

	stored, err := mr.Get("docseq:credit_note")
	require.NoError(t, err)
	assert.Equal(t, "43", stored)
}

func TestRedisSequence_SeedError(t *testing.T) {
	client, _ := newTestClient(t)
	boom := errors.New("db down")
	seq := NewRedisSequence(client, &stubSeed{err: boom})

	_, err := seq.Next(context.Background(), enum.DocumentTypeInvoice)
	assert.ErrorIs(t, err, boom)
}

func TestRedisSequence_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	client, _ := newTestClient(t)
	seq := NewRedisSequence(client, nil)

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Next(context.Background(), enum.DocumentTypeEstimate)
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 20)
}

func TestRedisSequence_Unavailable(t *testing.T) {
	client, mr := newTestClient(t)
	mr.Close()

	_, err := NewRedisSequence(client, nil).Next(context.Background(), enum.DocumentTypeInvoice)
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), &config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mr.Close()
	_, err = NewRedisClient(context.Background(), &config.RedisConfig{Addr: mr.Addr()})
	assert.Error(t, err)
}
