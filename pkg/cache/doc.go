// Package cache implements a two-tier cache for derived admin data such as
// user lists and statistics.
//
// Tiered fronts a remote Redis tier with a bounded in-process tier. Every
// operation tries the remote tier first. When the remote tier is unreachable
// or errors, reads fall through to the local tier and writes land in the
// local tier only, so cache failures never fail a request. Successful writes
// go to both tiers.
//
// The cache is an ordinary dependency: construct one Tiered at startup and
// pass it to the services that need it.
//
//	remote, _ := cache.NewRedisBackend(client, "")
//	c := cache.NewTiered(remote, cache.NewMemoryBackend(10000), cache.WithLogger(log))
//	stats, err := cache.Fetch(ctx, c, cache.UserStatsKey(...), ttls.Stats, loadStats)
package cache
