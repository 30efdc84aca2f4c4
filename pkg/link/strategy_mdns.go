package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/enbility/zeroconf/v3"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
)

// mDNS defaults.
const (
	DefaultServiceType = "_glassbridge._tcp"
	DefaultDomain      = "local."
)

// ErrServiceNotFound is returned when browsing ends without the instance.
var ErrServiceNotFound = errors.New("mdns service instance not found")

// BrowseFunc matches zeroconf.Browse without client options.
type BrowseFunc func(ctx context.Context, service, domain string, entries, removed chan<- *zeroconf.ServiceEntry) error

func zeroconfBrowse(ctx context.Context, service, domain string, entries, removed chan<- *zeroconf.ServiceEntry) error {
	return zeroconf.Browse(ctx, service, domain, entries, removed)
}

// MDNSStrategy resolves the endpoint's advertised service instance and
// dials the address it announces. It is the alternate-path fallback for
// network endpoints whose configured address has gone stale.
type MDNSStrategy struct {
	ServiceType string
	Domain      string
	Browse      BrowseFunc
}

// Name returns "mdns".
func (s *MDNSStrategy) Name() string { return StrategyMDNS }

// Open browses until ep.ServiceInstance appears, then dials it.
// The caller's context bounds the browse.
func (s *MDNSStrategy) Open(ctx context.Context, ep endpoint.RemoteEndpoint) (io.ReadWriteCloser, error) {
	if ep.ServiceInstance == "" {
		return nil, fmt.Errorf("%w: endpoint has no service instance", ErrUnsupported)
	}

	address, err := s.resolve(ctx, ep.ServiceInstance)
	if err != nil {
		return nil, err
	}
	return dialTCP(ctx, address)
}

func (s *MDNSStrategy) resolve(ctx context.Context, instance string) (string, error) {
	service := s.ServiceType
	if service == "" {
		service = DefaultServiceType
	}
	domain := s.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	browse := s.Browse
	if browse == nil {
		browse = zeroconfBrowse
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	errCh := make(chan error, 1)

	go func() {
		errCh <- browse(ctx, service, domain, entries, removed)
	}()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrServiceNotFound, instance)
			}
			if entry == nil || entry.Instance != instance {
				continue
			}
			if addr := entryAddress(entry); addr != "" {
				return addr, nil
			}

		case <-removed:
			// Goodbyes for other instances; nothing to do.

		case err := <-errCh:
			if err != nil {
				return "", fmt.Errorf("mdns browse: %w", err)
			}
			errCh = nil

		case <-ctx.Done():
			return "", fmt.Errorf("%w: %s: %w", ErrServiceNotFound, instance, ctx.Err())
		}
	}
}

// entryAddress picks the first announced address, IPv4 first.
func entryAddress(entry *zeroconf.ServiceEntry) string {
	port := strconv.Itoa(entry.Port)
	switch {
	case len(entry.AddrIPv4) > 0:
		return net.JoinHostPort(entry.AddrIPv4[0].String(), port)
	case len(entry.AddrIPv6) > 0:
		return net.JoinHostPort(entry.AddrIPv6[0].String(), port)
	default:
		return ""
	}
}

var _ Strategy = (*MDNSStrategy)(nil)
