// package protocol defines constants related to the client-server protocol.
package protocol

const (
	// Version indicates an incompatible change to the JSON API.  A watching
	// client passes the number it was built against; on a mismatch the watch
	// returns at once so the client can notice and reload.
	Version = 1

	// Header carries Version on every API response.
	Header = "X-Deuces-Protocol"
)
