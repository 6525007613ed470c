package handlers

// Close codes used by the notice stream.
const (
	BadSubprotocolError = 3000 // client did not speak the notices subprotocol
	StreamUnavailable   = 3002 // subscription to the notice channel failed
)
