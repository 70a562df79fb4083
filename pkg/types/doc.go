/*
Package types defines Relay's shared data structures: messages and their
types, presence, endpoint health status, service instances, and the
request/response shapes of the chat operations.

The package has no behavior beyond small helpers (MessageType.Persistent)
and imports nothing from the rest of the module, so every other package
can depend on it freely.
*/
package types
