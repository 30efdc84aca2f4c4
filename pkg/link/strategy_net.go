package link

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
)

// TLSOptions describes the client TLS settings for network endpoints.
type TLSOptions struct {
	// CAFile is a PEM bundle of trusted roots. Empty uses system roots.
	CAFile string `yaml:"ca_file"`

	// ServerName overrides the name verified in the server certificate.
	ServerName string `yaml:"server_name"`

	// InsecureSkipVerify disables certificate verification.
	// Only for bench testing against bridges with throwaway certificates.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// NewClientTLSConfig creates the TLS configuration used by the tls strategy.
func NewClientTLSConfig(opts TLSOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         opts.ServerName,
		InsecureSkipVerify: opts.InsecureSkipVerify,
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},
	}

	if opts.CAFile != "" {
		pem, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates in %s", opts.CAFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

// TLSStrategy dials the endpoint and performs a TLS handshake.
// It is the secure channel for network endpoints.
type TLSStrategy struct {
	Config *tls.Config
}

// Name returns "tls".
func (s *TLSStrategy) Name() string { return StrategyTLS }

// Open dials ep.Address and completes the handshake.
func (s *TLSStrategy) Open(ctx context.Context, ep endpoint.RemoteEndpoint) (io.ReadWriteCloser, error) {
	cfg := s.Config
	if cfg == nil {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	d := &tls.Dialer{Config: cfg}
	conn, err := d.DialContext(ctx, "tcp", ep.Address)
	if err != nil {
		return nil, fmt.Errorf("tls dial %s: %w", ep.Address, err)
	}
	return conn, nil
}

// TCPStrategy opens a plain TCP stream. It is the insecure channel for
// network endpoints.
type TCPStrategy struct{}

// Name returns "tcp".
func (s *TCPStrategy) Name() string { return StrategyTCP }

// Open dials ep.Address.
func (s *TCPStrategy) Open(ctx context.Context, ep endpoint.RemoteEndpoint) (io.ReadWriteCloser, error) {
	return dialTCP(ctx, ep.Address)
}

func dialTCP(ctx context.Context, address string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return conn, nil
}

var (
	_ Strategy = (*TLSStrategy)(nil)
	_ Strategy = (*TCPStrategy)(nil)
)
