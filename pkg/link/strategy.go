package link

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
)

// Strategy names.
const (
	StrategyRFCOMMSecure   = "rfcomm-secure"
	StrategyRFCOMMInsecure = "rfcomm-insecure"
	StrategyRFCOMMFallback = "rfcomm-fallback"
	StrategyTLS            = "tls"
	StrategyTCP            = "tcp"
	StrategyMDNS           = "mdns"
)

// FallbackChannel is the fixed RFCOMM channel used by the fallback strategy.
const FallbackChannel uint8 = 1

// Strategy is one technique for opening the transport channel.
type Strategy interface {
	// Name identifies the strategy in logs and events.
	Name() string

	// Open opens a stream to ep. Implementations must honor ctx
	// cancellation and release any partially opened resource on failure.
	Open(ctx context.Context, ep endpoint.RemoteEndpoint) (io.ReadWriteCloser, error)
}

// OpenFunc is the signature of Strategy.Open.
type OpenFunc func(ctx context.Context, ep endpoint.RemoteEndpoint) (io.ReadWriteCloser, error)

type funcStrategy struct {
	name string
	open OpenFunc
}

// NewStrategy adapts a function to the Strategy interface.
func NewStrategy(name string, open OpenFunc) Strategy {
	return funcStrategy{name: name, open: open}
}

func (s funcStrategy) Name() string { return s.name }

func (s funcStrategy) Open(ctx context.Context, ep endpoint.RemoteEndpoint) (io.ReadWriteCloser, error) {
	return s.open(ctx, ep)
}

// StrategyConfig carries the settings the built-in strategies need.
type StrategyConfig struct {
	// TLS is the client TLS configuration for the tls strategy.
	// A nil value uses system roots and the endpoint host as ServerName.
	TLS *tls.Config

	// ServiceType is the mDNS service browsed by the mdns strategy.
	ServiceType string

	// Domain is the mDNS domain (default "local.").
	Domain string

	// Browse overrides the mDNS browser (tests).
	Browse BrowseFunc
}

// DefaultStrategyNames returns the strategy order for an endpoint kind.
func DefaultStrategyNames(kind endpoint.Kind) []string {
	switch kind {
	case endpoint.KindRFCOMM:
		return []string{StrategyRFCOMMSecure, StrategyRFCOMMInsecure, StrategyRFCOMMFallback}
	case endpoint.KindTCP:
		return []string{StrategyTLS, StrategyTCP, StrategyMDNS}
	default:
		return nil
	}
}

// NewNamedStrategy builds a built-in strategy by name.
func NewNamedStrategy(name string, cfg StrategyConfig) (Strategy, error) {
	switch strings.ToLower(name) {
	case StrategyRFCOMMSecure:
		return &RFCOMMStrategy{Secure: true}, nil
	case StrategyRFCOMMInsecure:
		return &RFCOMMStrategy{}, nil
	case StrategyRFCOMMFallback:
		return &RFCOMMStrategy{Channel: FallbackChannel}, nil
	case StrategyTLS:
		return &TLSStrategy{Config: cfg.TLS}, nil
	case StrategyTCP:
		return &TCPStrategy{}, nil
	case StrategyMDNS:
		return &MDNSStrategy{
			ServiceType: cfg.ServiceType,
			Domain:      cfg.Domain,
			Browse:      cfg.Browse,
		}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// StrategiesFor builds the strategy list for ep. Empty names selects the
// default order for the endpoint kind.
func StrategiesFor(ep endpoint.RemoteEndpoint, names []string, cfg StrategyConfig) ([]Strategy, error) {
	if len(names) == 0 {
		names = DefaultStrategyNames(ep.Kind)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: kind %s", ErrNoStrategies, ep.Kind)
	}

	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, err := NewNamedStrategy(name, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
