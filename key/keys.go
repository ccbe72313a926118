// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Stream Source - these keys select the single stream the controller plays.
const (
	StreamURL = "stream.url"
)

// Display Surface - these keys define the output rectangle handed to the player.
const (
	DisplayWidth  = "display.width"
	DisplayHeight = "display.height"
)

// Media Playback - these keys configure the external player and its lifecycle timings.
const (
	PlayerBinary           = "player.binary"
	PlayerStartDelayMs     = "player.start_delay_ms"
	PlayerPrepareTimeoutMs = "player.prepare_timeout_ms"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern the non-interactive application behavior.
const (
	CliColored = "cli.colored"
)
