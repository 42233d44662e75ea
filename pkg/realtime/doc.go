// Package realtime consumes the hosted backend's change-notification feed.
//
// The feed delivers insert and delete events per relation. Events are used
// only to adjust in-memory counters (follower counts); they are never
// persisted as a source of truth.
//
// [Hub] is the in-process dispatcher: features subscribe per relation with an
// optional column filter and receive [Event] values until they cancel.
// [Socket] bridges a websocket connection into a Hub, with ping/pong
// keepalive and reconnection. Tests and socketless deployments publish into
// the Hub directly.
package realtime
