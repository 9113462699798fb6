package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Last-emo-boy/github-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStorePutGet(t *testing.T) {
	s := NewMemoryTokenStore()

	identity := models.CallerIdentity("12345")

	_, ok := s.Get(identity)
	assert.False(t, ok)

	s.Put(identity, "gho_token_a")

	token, ok := s.Get(identity)
	require.True(t, ok)
	assert.Equal(t, models.AccessToken("gho_token_a"), token)
}

func TestMemoryTokenStoreOverwrite(t *testing.T) {
	s := NewMemoryTokenStore()

	identity := models.CallerIdentity("12345")
	s.Put(identity, "gho_old")
	s.Put(identity, "gho_new")

	token, ok := s.Get(identity)
	require.True(t, ok)
	assert.Equal(t, models.AccessToken("gho_new"), token)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryTokenStoreDelete(t *testing.T) {
	s := NewMemoryTokenStore()

	identity := models.CallerIdentity("12345")
	s.Put(identity, "gho_token")
	s.Delete(identity)

	_, ok := s.Get(identity)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	// Deleting a missing identity is a no-op
	s.Delete(models.CallerIdentity("missing"))
}

func TestMemoryTokenStoreDistinctIdentities(t *testing.T) {
	s := NewMemoryTokenStore()

	s.Put("alice", "gho_alice")
	s.Put("bob", "gho_bob")

	tokenA, ok := s.Get("alice")
	require.True(t, ok)
	tokenB, ok := s.Get("bob")
	require.True(t, ok)

	assert.Equal(t, models.AccessToken("gho_alice"), tokenA)
	assert.Equal(t, models.AccessToken("gho_bob"), tokenB)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryTokenStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryTokenStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			identity := models.CallerIdentity(fmt.Sprintf("chat-%d", n%10))
			s.Put(identity, models.AccessToken(fmt.Sprintf("gho_%d", n)))
			_, _ = s.Get(identity)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, s.Len())
	for i := 0; i < 10; i++ {
		_, ok := s.Get(models.CallerIdentity(fmt.Sprintf("chat-%d", i)))
		assert.True(t, ok)
	}
}
