package api

import (
	"net/http"

	"github.com/cleancare/ccadmin/pkg/httputil"
)

// cacheStats handles GET /api/admin/cache/stats
func (s *Server) cacheStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.deps.Cache.Stats(r.Context()))
}
