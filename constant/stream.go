package constant

// Playback defaults. All of them can be overridden through configuration.
const (
	// StreamURL is the HLS manifest played when no other stream is configured.
	StreamURL = "https://emelplayout.ddnsguru.com/live/tv_emel_test101.m3u8"

	// DisplayWidth and DisplayHeight describe the full-HD output rectangle.
	DisplayWidth  = 1920
	DisplayHeight = 1080

	// StartDelayMs defers the first playback attempt until the player host is attached.
	StartDelayMs = 100

	// PrepareTimeoutMs bounds how long the player may take to load the stream.
	PrepareTimeoutMs = 15000

	// PlayerBinary is the media player executable driven over IPC.
	PlayerBinary = "mpv"
)
