package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
}

func TestUserID(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	id, ok := GetUserID(WithUserID(context.Background(), 42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestValueKeysDoNotCollide(t *testing.T) {
	ctx := WithIdentity(context.Background(), "identity")
	ctx = WithScope(ctx, "scope")

	assert.Equal(t, "identity", ctx.Value(IdentityKey))
	assert.Equal(t, "scope", ctx.Value(ScopeKey))
	assert.Nil(t, ctx.Value(LoggerKey))
}
