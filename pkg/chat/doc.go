/*
Package chat implements Relay's stream-handling engine: the per-connection
state machine, the connection directory, and room fan-out.

# Connection Lifecycle

	          verified claims, or first
	          message carrying a user id
	┌─────────┐ ────────────────────────► ┌────────┐
	│ UNBOUND │                           │ BOUND  │
	└─────────┘                           └────────┘
	     │                                     │
	     │ stream ends before binding          │ EOF, transport error,
	     ▼                                     ▼ or dispatch error
	  (no cleanup)                         ┌────────┐
	                                       │ CLOSED │
	                                       └────────┘

Closing a bound connection evicts it from the directory, sets presence
offline, and broadcasts a "left" notice to every room the user belonged
to. Room membership itself survives, so a reconnect resumes where the
user left off.

One live connection exists per user. A reconnect replaces and closes the
previous stream; the stale stream's cleanup then finds its directory
entry gone and touches nothing.

# Message Dispatch

	TEXT / IMAGE / FILE : membership required (stream fails otherwise),
	                      persisted, fanned out to all members
	TYPING              : membership required (silently ignored otherwise),
	                      fanned out excluding the sender, never persisted
	SYSTEM              : persisted and fanned out, client-sent ones
	                      take the same path as internal notices

Inbound messages are stamped server-side: a fresh id, the receive time,
and the bound connection's identity override whatever the client sent.

Fan-out is best-effort at-most-once. Members without a live connection
are skipped, and a connection whose write fails is evicted without
aborting delivery to the rest of the room.

# Unary Operations

JoinRoom, LeaveRoom, GetHistory and UpdatePresence are request/response
operations alongside the stream. Validation failures come back as
unsuccessful responses, not errors; only stream-level faults terminate a
stream.
*/
package chat
