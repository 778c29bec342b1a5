package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdownManager_Shutdown(t *testing.T) {
	sm := NewShutdownManager(NopLogger(), time.Second)

	var order []int
	sm.RegisterShutdownFunc(func(context.Context) error { order = append(order, 1); return nil })
	sm.RegisterShutdownFunc(nil)
	sm.RegisterShutdownFunc(func(context.Context) error { order = append(order, 2); return errors.New("close failed") })
	sm.RegisterShutdownFunc(func(context.Context) error { order = append(order, 3); return nil })

	err := sm.Shutdown(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "1 errors")
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestNewShutdownManager_DefaultTimeout(t *testing.T) {
	sm := NewShutdownManager(NopLogger(), 0)
	assert.Equal(t, 30*time.Second, sm.shutdownTimeout)
}
