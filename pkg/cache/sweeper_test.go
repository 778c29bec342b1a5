package cache

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSweeper(t *testing.T) {
	local, clock := newMemory(t, 10)
	local.Set(context.Background(), "k", []byte("v"), time.Second)
	clock.Advance(2 * time.Second)

	c, err := StartSweeper(local, "@every 1s", logrus.New())
	require.NoError(t, err)
	defer c.Stop()

	assert.Eventually(t, func() bool {
		return len(local.Keys()) == 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestStartSweeper_BadSchedule(t *testing.T) {
	local, _ := newMemory(t, 10)
	_, err := StartSweeper(local, "whenever", logrus.New())
	assert.Error(t, err)
}
