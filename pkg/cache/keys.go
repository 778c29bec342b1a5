package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Key prefixes. Patterns derived from these are used for invalidation.
const (
	prefixUsersList      = "users:list:"
	prefixUsersStats     = "users:stats:"
	prefixUser           = "users:"
	prefixComplaintStats = "complaints:stats:"
	prefixDashboardStats = "dashboard:stats:"
	prefixActivityLogs   = "activity:logs:"
	prefixAssignedZones  = "zones:assigned:"

	wildcardAll = "all"
)

// TTLs holds the lifetime of each cached category
type TTLs struct {
	List     time.Duration
	Stats    time.Duration
	Detail   time.Duration
	Activity time.Duration
}

// DefaultTTLs are 120s for lists, 300s for statistics and details, and 60s for
// activity logs.
func DefaultTTLs() TTLs {
	return TTLs{
		List:     120 * time.Second,
		Stats:    300 * time.Second,
		Detail:   300 * time.Second,
		Activity: 60 * time.Second,
	}
}

// UserListKey keys a user list by a stable hash of the query shape. The query
// must be JSON encodable; struct field order makes the encoding deterministic.
func UserListKey(query interface{}) string {
	return prefixUsersList + hashQuery(query)
}

// UserStatsKey is users:stats:<cc|all>:<zone|all>:<ward|all>:<role|all>
func UserStatsKey(cityCorporationCode string, zoneID, wardID *int64, role string) string {
	return fmt.Sprintf("%s%s:%s:%s:%s", prefixUsersStats,
		orAll(cityCorporationCode), idOrAll(zoneID), idOrAll(wardID), orAll(role))
}

// UserStatsKeyForZones is UserStatsKey for a caller restricted to several
// zones. The zone segment lists them in ascending order joined by commas.
func UserStatsKeyForZones(cityCorporationCode string, zoneIDs []int64, wardID *int64, role string) string {
	return fmt.Sprintf("%s%s:%s:%s:%s", prefixUsersStats,
		orAll(cityCorporationCode), idsOrAll(zoneIDs), idOrAll(wardID), orAll(role))
}

// UserKey keys a single user's details
func UserKey(userID int64) string {
	return prefixUser + strconv.FormatInt(userID, 10)
}

// ComplaintStatsKey keys a user's complaint statistics
func ComplaintStatsKey(userID int64) string {
	return prefixComplaintStats + strconv.FormatInt(userID, 10)
}

// DashboardStatsKey is dashboard:stats:<cc|all>:<zone|all>:<ward|all>
func DashboardStatsKey(cityCorporationCode string, zoneID, wardID *int64) string {
	return fmt.Sprintf("%s%s:%s:%s", prefixDashboardStats,
		orAll(cityCorporationCode), idOrAll(zoneID), idOrAll(wardID))
}

// ActivityLogsKey keys an activity log page by its query
func ActivityLogsKey(query interface{}) string {
	return prefixActivityLogs + hashQuery(query)
}

// AssignedZonesKey keys a super admin's assigned zone ids
func AssignedZonesKey(userID int64) string {
	return prefixAssignedZones + strconv.FormatInt(userID, 10)
}

func orAll(s string) string {
	if s == "" {
		return wildcardAll
	}
	return s
}

func idOrAll(id *int64) string {
	if id == nil {
		return wildcardAll
	}
	return strconv.FormatInt(*id, 10)
}

func idsOrAll(ids []int64) string {
	if len(ids) == 0 {
		return wildcardAll
	}
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func hashQuery(query interface{}) string {
	data, err := json.Marshal(query)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", query))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
