package auth

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Lifecycle(t *testing.T) {
	t.Parallel()

	s := NewStore()
	_, ok := s.Get()
	assert.False(t, ok)
	assert.Empty(t, s.Token())

	s.Set(Credential{Token: "tok", CloudID: "cloud-1"})
	cred, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, "tok", cred.Token)
	assert.Equal(t, "cloud-1", cred.CloudID)

	s.Clear()
	_, ok = s.Get()
	assert.False(t, ok)
}

func TestStore_TokenWithoutCloudIDIsInvalid(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Set(Credential{Token: "tok"})
	_, ok := s.Get()
	assert.False(t, ok)
	// Token is still readable for callers that only need the bearer.
	assert.Equal(t, "tok", s.Token())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Set(Credential{Token: "tok", CloudID: "cloud-1"})
		}()
		go func() {
			defer wg.Done()
			s.Get()
		}()
	}
	wg.Wait()

	cred, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, "cloud-1", cred.CloudID)
}

func TestCredential_Masking(t *testing.T) {
	t.Parallel()

	cred := Credential{Token: "super-secret", CloudID: "cloud-1"}
	assert.NotContains(t, cred.String(), "super-secret")
	assert.Contains(t, cred.String(), "cloud-1")

	data, err := json.Marshal(cred)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "super-secret"))
	assert.Contains(t, string(data), `"token":"***"`)
}
