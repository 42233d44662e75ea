// Package notify manages per-target notification settings: whether the
// viewer gets notified about a followed user's activity. Settings toggle
// optimistically; a toggle against a target with no settings row yet falls
// back to creating the row.
package notify
