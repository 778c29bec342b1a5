package scope

import (
	"fmt"
	"strings"

	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/lib/pq"
)

// Predicate restricts a query to a set of zones. The zero value places no
// restriction.
type Predicate struct {
	zoneIDs []int64
}

// BuildFilter derives the zone predicate for a resolved scope:
//
//	MASTER_ADMIN                          no restriction
//	SUPER_ADMIN with assigned zones       zone IN assigned zones
//	any identity with a legacy zone id    zone = zone id
//	otherwise                             no restriction
//
// It performs no I/O and may be called any number of times.
func BuildFilter(r *Resolved) Predicate {
	if r == nil || r.Identity == nil {
		return Predicate{}
	}
	id := r.Identity
	switch {
	case id.Role == auth.RoleMasterAdmin:
		return Predicate{}
	case id.Role == auth.RoleSuperAdmin && len(r.AssignedZoneIDs) > 0:
		ids := make([]int64, len(r.AssignedZoneIDs))
		copy(ids, r.AssignedZoneIDs)
		return Predicate{zoneIDs: ids}
	case id.ZoneID != nil:
		return Predicate{zoneIDs: []int64{*id.ZoneID}}
	}
	return Predicate{}
}

// IsEmpty reports whether the predicate is unrestricted
func (p Predicate) IsEmpty() bool {
	return len(p.zoneIDs) == 0
}

// ZoneIDs returns a copy of the allowed zones, nil when unrestricted
func (p Predicate) ZoneIDs() []int64 {
	if p.IsEmpty() {
		return nil
	}
	out := make([]int64, len(p.zoneIDs))
	copy(out, p.zoneIDs)
	return out
}

// Allows reports whether a row in zoneID is visible. Rows without a zone are
// only visible through an unrestricted predicate.
func (p Predicate) Allows(zoneID *int64) bool {
	if p.IsEmpty() {
		return true
	}
	if zoneID == nil {
		return false
	}
	for _, id := range p.zoneIDs {
		if id == *zoneID {
			return true
		}
	}
	return false
}

// SQL renders the predicate against column using placeholder $argIndex. An
// unrestricted predicate renders as an empty clause with no arguments.
func (p Predicate) SQL(column string, argIndex int) (string, []interface{}) {
	switch len(p.zoneIDs) {
	case 0:
		return "", nil
	case 1:
		return fmt.Sprintf("%s = $%d", column, argIndex), []interface{}{p.zoneIDs[0]}
	}
	return fmt.Sprintf("%s = ANY($%d)", column, argIndex), []interface{}{pq.Array(p.zoneIDs)}
}

func (p Predicate) String() string {
	switch len(p.zoneIDs) {
	case 0:
		return "unrestricted"
	case 1:
		return fmt.Sprintf("zone = %d", p.zoneIDs[0])
	}
	parts := make([]string, len(p.zoneIDs))
	for i, id := range p.zoneIDs {
		parts[i] = fmt.Sprint(id)
	}
	return "zone IN (" + strings.Join(parts, ", ") + ")"
}
