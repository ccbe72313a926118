package controller

// Remote-control key codes delivered by the surface.
const (
	KeyBack      = 10009
	KeyPlay      = 415
	KeyPlayPause = 10252
	KeyPause     = 19
	KeyStop      = 413
)

// KeyName returns a readable label for a key code, used in logs.
func KeyName(code int) string {
	switch code {
	case KeyBack:
		return "back"
	case KeyPlay:
		return "play"
	case KeyPlayPause:
		return "play/pause"
	case KeyPause:
		return "pause"
	case KeyStop:
		return "stop"
	default:
		return "unmapped"
	}
}
