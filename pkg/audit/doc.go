// Package audit records administrative changes to the activity log.
//
// Zone assignment and permission writes hand an Event to a Logger. Events
// carry the acting user, the action, the affected entity and, where the
// change has one, the old and new values. Logging is best effort: Record
// reports failures to the application log and never returns them, so an
// unavailable activity log cannot abort the change being recorded.
//
// Loggers:
//
//	DBLogger     inserts into the activity_logs table
//	LogrusLogger writes events as structured log entries
//	MultiLogger  fans an event out to several loggers
package audit
