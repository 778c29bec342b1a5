package cache

import "context"

// InvalidateUser drops everything derived from a user record: the user's own
// entries plus every list, user statistic and dashboard statistic.
func (t *Tiered) InvalidateUser(ctx context.Context, userID int64) {
	t.Delete(ctx, UserKey(userID), ComplaintStatsKey(userID))
	t.DeletePattern(ctx, prefixUsersList+"*")
	t.DeletePattern(ctx, prefixUsersStats+"*")
	t.DeletePattern(ctx, prefixDashboardStats+"*")
}

// InvalidateComplaints drops every statistic a complaint write can change
func (t *Tiered) InvalidateComplaints(ctx context.Context) {
	t.DeletePattern(ctx, prefixComplaintStats+"*")
	t.DeletePattern(ctx, prefixUsersStats+"*")
	t.DeletePattern(ctx, prefixDashboardStats+"*")
}

// InvalidateActivityLogs drops every cached activity log page
func (t *Tiered) InvalidateActivityLogs(ctx context.Context) {
	t.DeletePattern(ctx, prefixActivityLogs+"*")
}

// InvalidateAssignedZones drops a super admin's cached zone ids
func (t *Tiered) InvalidateAssignedZones(ctx context.Context, userID int64) {
	t.Delete(ctx, AssignedZonesKey(userID))
}
