// Package endpoint describes the remote companion device a link targets.
//
// A RemoteEndpoint is supplied by an external collaborator (pairing UI,
// config file, remembered state) and is treated as immutable once a
// connection attempt begins.
package endpoint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Endpoint errors.
var (
	ErrEmptyAddress     = errors.New("endpoint address is empty")
	ErrInvalidAddress   = errors.New("invalid bluetooth address")
	ErrInvalidKind      = errors.New("invalid endpoint kind")
	ErrInvalidChannel   = errors.New("rfcomm channel must be 1-30")
	ErrInvalidBondState = errors.New("invalid bond state")
)

// DefaultChannel is the RFCOMM channel used when none is configured.
// Serial-profile devices almost always listen on channel 1.
const DefaultChannel uint8 = 1

// Kind selects the transport family used to reach the endpoint.
type Kind uint8

const (
	// KindRFCOMM is a Bluetooth serial-profile device addressed by MAC.
	KindRFCOMM Kind = iota

	// KindTCP is a network endpoint addressed by host:port.
	KindTCP
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRFCOMM:
		return "rfcomm"
	case KindTCP:
		return "tcp"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rfcomm", "bluetooth", "bt":
		return KindRFCOMM, nil
	case "tcp", "net":
		return KindTCP, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// BondState is the pairing status reported for the endpoint.
type BondState uint8

const (
	// BondNone means the endpoint is not paired.
	BondNone BondState = iota

	// BondBonding means pairing is in progress.
	BondBonding

	// BondBonded means the endpoint is paired and may be connected.
	BondBonded
)

// String returns the bond state name.
func (b BondState) String() string {
	switch b {
	case BondNone:
		return "NONE"
	case BondBonding:
		return "BONDING"
	case BondBonded:
		return "BONDED"
	default:
		return "UNKNOWN"
	}
}

// ParseBondState parses a bond state name.
func ParseBondState(s string) (BondState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "unpaired":
		return BondNone, nil
	case "bonding", "pairing":
		return BondBonding, nil
	case "", "bonded", "paired":
		return BondBonded, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidBondState, s)
	}
}

// RemoteEndpoint identifies the target device.
type RemoteEndpoint struct {
	// Address is a Bluetooth MAC ("AA:BB:CC:DD:EE:FF") for KindRFCOMM,
	// or host:port for KindTCP.
	Address string

	// Name is the human-readable device name.
	Name string

	// Kind selects the transport family.
	Kind Kind

	// Bond is the pairing status.
	Bond BondState

	// Channel is the RFCOMM channel (KindRFCOMM only, 0 means default).
	Channel uint8

	// ServiceInstance is the mDNS instance name advertised by the endpoint,
	// used by the alternate-path strategy for KindTCP endpoints.
	ServiceInstance string
}

// IsBonded reports whether a connection attempt is allowed.
func (e RemoteEndpoint) IsBonded() bool {
	return e.Bond == BondBonded
}

// DisplayName returns Name, falling back to Address.
func (e RemoteEndpoint) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Address
}

// RFCOMMChannel returns the configured channel or DefaultChannel.
func (e RemoteEndpoint) RFCOMMChannel() uint8 {
	if e.Channel == 0 {
		return DefaultChannel
	}
	return e.Channel
}

// String returns a compact description for logs.
func (e RemoteEndpoint) String() string {
	if e.Name == "" {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Address)
	}
	return fmt.Sprintf("%s %s(%s)", e.Name, e.Kind, e.Address)
}

// Validate checks the address format for the endpoint kind.
// Bond state is not validated here; an unpaired endpoint is a valid
// description that simply cannot be connected.
func (e RemoteEndpoint) Validate() error {
	if strings.TrimSpace(e.Address) == "" {
		return ErrEmptyAddress
	}
	switch e.Kind {
	case KindRFCOMM:
		if _, err := ParseBluetoothAddr(e.Address); err != nil {
			return err
		}
		if e.Channel > 30 {
			return ErrInvalidChannel
		}
	case KindTCP:
		if !strings.Contains(e.Address, ":") {
			return fmt.Errorf("tcp endpoint %q: missing port", e.Address)
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

// BluetoothAddr is a 48-bit device address in display (big-endian) order.
type BluetoothAddr [6]byte

// ParseBluetoothAddr parses "AA:BB:CC:DD:EE:FF" (or '-' separated).
func ParseBluetoothAddr(s string) (BluetoothAddr, error) {
	var addr BluetoothAddr
	parts := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ':' || r == '-'
	})
	if len(parts) != 6 {
		return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	for i, p := range parts {
		if len(p) != 2 {
			return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		addr[i] = byte(v)
	}
	return addr, nil
}

// LittleEndian returns the address in the byte order the kernel expects.
func (a BluetoothAddr) LittleEndian() [6]byte {
	var out [6]byte
	for i := range a {
		out[i] = a[len(a)-1-i]
	}
	return out
}

// String formats the address as upper-case colon-separated hex.
func (a BluetoothAddr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}
