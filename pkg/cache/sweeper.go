package cache

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartSweeper removes expired local entries on the given cron schedule
// (for example "@every 1m"). Stop the returned cron on shutdown.
func StartSweeper(local *MemoryBackend, schedule string, log logrus.FieldLogger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if n := local.Sweep(); n > 0 {
			log.WithFields(logrus.Fields{"tier": TierLocal, "removed": n}).Debug("swept expired cache entries")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
