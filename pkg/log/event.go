package log

import (
	"strings"
	"time"
)

// Event represents a link event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// LinkID identifies the link handle (UUID). Empty for events that
	// happen before a handle exists.
	LinkID string `cbor:"2,keyasint,omitempty"`

	// Endpoint is the remote endpoint address.
	Endpoint string `cbor:"3,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"`
	Attempt     *AttemptEvent     `cbor:"11,keyasint,omitempty"`
	Delivery    *DeliveryEvent    `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a connection state change.
	CategoryState Category = 0
	// CategoryAttempt indicates a channel-open attempt.
	CategoryAttempt Category = 1
	// CategoryDelivery indicates an outbound message outcome.
	CategoryDelivery Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryAttempt:
		return "ATTEMPT"
	case CategoryDelivery:
		return "DELIVERY"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name (case-insensitive).
func ParseCategory(s string) (Category, bool) {
	for _, c := range []Category{CategoryState, CategoryAttempt, CategoryDelivery, CategoryError} {
		if strings.EqualFold(s, c.String()) {
			return c, true
		}
	}
	return 0, false
}

// StateChangeEvent captures a connection state transition.
type StateChangeEvent struct {
	// OldState is the previous state.
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// AttemptEvent captures one channel-open attempt by the establisher.
type AttemptEvent struct {
	// Number is the 1-based attempt number within the sequence.
	Number int `cbor:"1,keyasint"`

	// Strategy is the name of the channel-open strategy used.
	Strategy string `cbor:"2,keyasint"`

	// Outcome of the attempt.
	Outcome AttemptOutcome `cbor:"3,keyasint"`

	// Error message for failed attempts.
	Error string `cbor:"4,keyasint,omitempty"`

	// Duration of the open call.
	Duration time.Duration `cbor:"5,keyasint,omitempty"`
}

// AttemptOutcome is the result of a single attempt.
type AttemptOutcome uint8

const (
	// AttemptSucceeded means the channel opened.
	AttemptSucceeded AttemptOutcome = 0
	// AttemptFailed means the open failed and may be retried.
	AttemptFailed AttemptOutcome = 1
	// AttemptAborted means the sequence stopped (permission, cancel).
	AttemptAborted AttemptOutcome = 2
)

// String returns the outcome name.
func (o AttemptOutcome) String() string {
	switch o {
	case AttemptSucceeded:
		return "SUCCEEDED"
	case AttemptFailed:
		return "FAILED"
	case AttemptAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// DeliveryEvent captures the fate of one dequeued message.
type DeliveryEvent struct {
	// Seq is the enqueue sequence number.
	Seq uint64 `cbor:"1,keyasint"`

	// Size is the number of bytes written (or that would have been).
	Size int `cbor:"2,keyasint"`

	// Outcome of the delivery.
	Outcome DeliveryOutcome `cbor:"3,keyasint"`

	// QueueDelay is how long the message waited in the queue.
	QueueDelay time.Duration `cbor:"4,keyasint,omitempty"`
}

// DeliveryOutcome is the result of a delivery.
type DeliveryOutcome uint8

const (
	// DeliveryWritten means the line was written and flushed.
	DeliveryWritten DeliveryOutcome = 0
	// DeliveryDropped means no link was present when dequeued.
	DeliveryDropped DeliveryOutcome = 1
	// DeliveryFailed means the write failed; the link was declared lost.
	DeliveryFailed DeliveryOutcome = 2
)

// String returns the outcome name.
func (o DeliveryOutcome) String() string {
	switch o {
	case DeliveryWritten:
		return "WRITTEN"
	case DeliveryDropped:
		return "DROPPED"
	case DeliveryFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors in any component.
type ErrorEventData struct {
	// Component where the error occurred (establisher, supervisor, sender).
	Component string `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`
}
