// Package meetchat implements in-meeting chat on top of a call's generic
// custom-event broadcast channel.
//
// There is no chat backend: each client keeps its own append-only log, and
// ordering, deduplication and unread bookkeeping are all local. A Session
// ties together the Bridge (channel adapter), the Store (log and unread
// state) and the observers of whatever UI renders it.
//
// Late joiners receive no backlog; the channel only carries live events.
package meetchat
