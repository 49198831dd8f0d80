package domain

import "fmt"

type ConnectionState int

const (
	ConnectionConnected ConnectionState = iota + 1
	ConnectionDisconnected
	// ConnectionLoggedOut is terminal: the gateway refused the token.
	ConnectionLoggedOut
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionConnected:
		return "connected"
	case ConnectionDisconnected:
		return "disconnected"
	case ConnectionLoggedOut:
		return "logged-out"
	default:
		return fmt.Sprintf("ConnectionState(%d)", int(s))
	}
}

type Phase int

const (
	PhaseUnregistered Phase = iota
	PhaseRegistered
	PhaseSessionStarted
	PhasePinging
)

func (p Phase) String() string {
	switch p {
	case PhaseUnregistered:
		return "unregistered"
	case PhaseRegistered:
		return "registered"
	case PhaseSessionStarted:
		return "session-started"
	case PhasePinging:
		return "pinging"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}
