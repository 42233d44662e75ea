// Package rsvp implements activity attendance: a per-post cache of who is
// going, expiring ten minutes after write, and the optimistic RSVP toggle.
//
// Attendee lists age quickly while other viewers keep responding, so this
// is the only cache kind carrying a TTL. Expiry is checked lazily at read
// time; an expired entry is pruned and the list refetched.
package rsvp
