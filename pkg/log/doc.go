/*
Package log provides structured logging for Relay, wrapping zerolog.

Init configures the global logger once at startup (level, JSON or
console output). Components take child loggers with a fixed component
field; WithRoomID, WithUserID and WithEndpoint add the fabric's common
correlation fields.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	logger := log.WithComponent("chat")
	logger.Info().Str("room_id", roomID).Msg("room created")
*/
package log
