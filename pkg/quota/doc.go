// Package quota reports cache storage usage: per-slot entry counts and
// approximate byte totals. It is a read-only diagnostics surface for
// debugging storage pressure; it never modifies slots.
package quota
