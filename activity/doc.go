// Package activity stores the notifications emitted by directory calls.
// Repository persists them through Bun and MemoryLog keeps them in process;
// both implement types.ActivitySink for writes and types.ActivityRepository
// for the feed.
package activity
