package controller

// Surface is the display environment hosting the player.
// Handlers registered here must be invoked on the controller's event loop.
type Surface interface {
	// CreatePlayerHost attaches the element the player renders into.
	CreatePlayerHost() error

	// OnKeyDown registers the remote-control key handler.
	OnKeyDown(handler func(code int))

	// OnVisibilityChange registers the handler for visibility transitions.
	OnVisibilityChange(handler func(hidden bool))
}

// Application is the application-lifecycle service.
type Application interface {
	Exit()
}

// Dispatcher runs functions on the controller's event loop, in order.
// Dispatch must not block the loop it posts to.
type Dispatcher interface {
	Dispatch(f func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(f func())

func (d DispatcherFunc) Dispatch(f func()) { d(f) }

// Immediate runs dispatched functions on the caller's goroutine.
var Immediate = DispatcherFunc(func(f func()) { f() })
