/*
Package permissions stores and evaluates the per-user permission document.

A Document holds three scope sets (zones, wards and categories) and a fixed
set of feature flags. Each scope set is an IDSet: either All, or a Subset of
ids. On the wire and in the database an empty array means All, so a document
written as

	{"zones": [], "wards": [12], "categories": [], "features": {...}}

grants every zone and category but only ward 12.

Users without a stored document get RoleDefaults for their role. Documents
are checked twice before they are written: Validate enforces the structure
(every flag present and boolean) and DetectConflicts reports combinations
that contradict each other, such as view-only mode alongside an action flag.
*/
package permissions
