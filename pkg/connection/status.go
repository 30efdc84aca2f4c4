package connection

import (
	"context"
	"errors"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
	"github.com/glassbridge/glassbridge-go/pkg/link"
)

// Reason explains why a transition happened.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonConnectRequested
	ReasonReconnect
	ReasonEstablished
	ReasonDisconnectRequested
	ReasonSuperseded
	ReasonNotPaired
	ReasonPermissionDenied
	ReasonAllAttemptsExhausted
	ReasonFailed
	ReasonLinkLost
	ReasonShutdown
)

var reasonNames = map[Reason]string{
	ReasonNone:                 "None",
	ReasonConnectRequested:     "ConnectRequested",
	ReasonReconnect:            "Reconnect",
	ReasonEstablished:          "Established",
	ReasonDisconnectRequested:  "DisconnectRequested",
	ReasonSuperseded:           "Superseded",
	ReasonNotPaired:            "NotPaired",
	ReasonPermissionDenied:     "PermissionDenied",
	ReasonAllAttemptsExhausted: "AllAttemptsExhausted",
	ReasonFailed:               "Failed",
	ReasonLinkLost:             "LinkLost",
	ReasonShutdown:             "Shutdown",
}

// String returns the reason name.
func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return "Unknown"
}

// reasonFor classifies an establishment error.
func reasonFor(err error) Reason {
	switch {
	case errors.Is(err, link.ErrNotPaired):
		return ReasonNotPaired
	case link.IsPermission(err):
		return ReasonPermissionDenied
	case errors.Is(err, link.ErrAllAttemptsExhausted):
		return ReasonAllAttemptsExhausted
	case errors.Is(err, context.Canceled):
		return ReasonSuperseded
	default:
		return ReasonFailed
	}
}

// Status is the short summary shown on a persistent status surface.
type Status struct {
	Title  string
	Detail string
}

func (s Status) String() string {
	if s.Detail == "" {
		return s.Title
	}
	return s.Title + " - " + s.Detail
}

// StatusFor returns the status summary for a state and reason.
func StatusFor(state State, reason Reason, ep endpoint.RemoteEndpoint) Status {
	name := ep.DisplayName()

	switch state {
	case StateConnecting:
		return Status{Title: "Connecting...", Detail: "Connecting to " + name}
	case StateConnected:
		return Status{Title: "Connected", Detail: "Connected to " + name}
	}

	switch reason {
	case ReasonNotPaired:
		return Status{Title: "Not Paired", Detail: "Pair the device in Bluetooth settings first"}
	case ReasonPermissionDenied:
		return Status{Title: "Permission Denied", Detail: "Grant Bluetooth permission"}
	case ReasonAllAttemptsExhausted, ReasonFailed:
		return Status{Title: "Connection Failed", Detail: "Check device is powered on and paired"}
	case ReasonLinkLost:
		return Status{Title: "Disconnected", Detail: "Connection lost"}
	case ReasonDisconnectRequested:
		return Status{Title: "Disconnected", Detail: "Tap to reconnect"}
	case ReasonSuperseded:
		return Status{Title: "Disconnected", Detail: "Restarting connection"}
	case ReasonShutdown:
		return Status{Title: "Disconnected", Detail: "Stopped"}
	default:
		return Status{Title: "Disconnected", Detail: "Not connected"}
	}
}
