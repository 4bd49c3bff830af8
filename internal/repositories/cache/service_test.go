package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "wallet:snapshot:42", GenerateKey("wallet", "snapshot", 42))
	assert.Equal(t, "user:email:ada@example.com", GenerateKey("user", "email", "ada@example.com"))

	s := NewCacheService(nil, 0)
	assert.Equal(t, GenerateKey("wallet", "user", uint(3)), s.GenerateKey("wallet", "user", uint(3)))
}
