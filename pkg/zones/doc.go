/*
Package zones maintains multi-zone assignments for Super Admins.

A Super Admin with any assignment holds between two and five zones, all in
one City Corporation. The Registry validates every write against those rules
before replacing the user's assignment set inside a single transaction, and
keeps the legacy single-zone fields on the user's profile in step: the first
assigned zone becomes the primary zone and the zones' parent code becomes
the user's City Corporation.

# Reads

AssignedZoneIDs is on the hot path of every Super Admin request and is served
through the tiered cache under zones:assigned:<userId>. An empty result means
the user has no multi-zone assignment, not that they have no access; callers
fall back to the legacy zone on the profile.

# Writes

	Assign  replaces the assignment set (audit action ASSIGN_ZONES)
	Update  replaces it and records the old and new sets (UPDATE_ZONE_ASSIGNMENTS)
	Remove  drops one zone, never below two (REMOVE_ZONE)

Rule violations are returned as *ValidationError and are client errors.
Audit failures are logged and never fail the write.
*/
package zones
