package link

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"io/fs"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
)

// lineServer accepts connections on ln and sends each received line to out.
func lineServer(t *testing.T, ln net.Listener, out chan<- string) {
	t.Helper()
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				r := bufio.NewReader(conn)
				for {
					line, err := r.ReadString('\n')
					if err != nil {
						return
					}
					out <- line
				}
			}()
		}
	}()
}

func selfSignedCert(t *testing.T) (tls.Certificate, []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "glasses.local"},
		DNSNames:     []string{"glasses.local"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:         true,

		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(t, err)
	return cert, certPEM
}

func tcpEndpoint(addr string) endpoint.RemoteEndpoint {
	return endpoint.RemoteEndpoint{
		Address: addr,
		Kind:    endpoint.KindTCP,
		Bond:    endpoint.BondBonded,
	}
}

func TestTCPStrategy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	lines := make(chan string, 1)
	lineServer(t, ln, lines)

	s := &TCPStrategy{}
	rwc, err := s.Open(context.Background(), tcpEndpoint(ln.Addr().String()))
	require.NoError(t, err)

	h := NewStreamHandle(rwc, tcpEndpoint(ln.Addr().String()), s.Name())
	defer h.Close()

	require.NoError(t, h.WriteLine("TEST: hello"))
	assert.Equal(t, "TEST: hello\n", <-lines)
}

func TestTCPStrategyRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = (&TCPStrategy{}).Open(context.Background(), tcpEndpoint(addr))
	assert.Error(t, err)
	assert.False(t, IsPermission(err))
}

func TestTLSStrategy(t *testing.T) {
	cert, certPEM := selfSignedCert(t)

	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	require.NoError(t, err)
	lines := make(chan string, 1)
	lineServer(t, ln, lines)

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(caFile, certPEM, 0600))

	cfg, err := NewClientTLSConfig(TLSOptions{CAFile: caFile, ServerName: "glasses.local"})
	require.NoError(t, err)

	s := &TLSStrategy{Config: cfg}
	ep := tcpEndpoint(ln.Addr().String())
	rwc, err := s.Open(context.Background(), ep)
	require.NoError(t, err)

	h := NewStreamHandle(rwc, ep, s.Name())
	defer h.Close()
	require.NoError(t, h.WriteLine("NOTIF: Mail: Inbox"))
	assert.Equal(t, "NOTIF: Mail: Inbox\n", <-lines)

	t.Run("UntrustedFails", func(t *testing.T) {
		untrusted := &TLSStrategy{Config: &tls.Config{ServerName: "glasses.local", MinVersion: tls.VersionTLS12}}
		_, err := untrusted.Open(context.Background(), ep)
		assert.Error(t, err)
	})
}

func TestNewClientTLSConfigErrors(t *testing.T) {
	_, err := NewClientTLSConfig(TLSOptions{CAFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a cert"), 0600))
	_, err = NewClientTLSConfig(TLSOptions{CAFile: bad})
	assert.Error(t, err)

	cfg, err := NewClientTLSConfig(TLSOptions{InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Nil(t, cfg.RootCAs)
}

func fakeBrowse(entries ...*zeroconf.ServiceEntry) BrowseFunc {
	return func(ctx context.Context, service, domain string, out, _ chan<- *zeroconf.ServiceEntry) error {
		go func() {
			for _, e := range entries {
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}()
		return nil
	}
}

func TestMDNSStrategy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	lines := make(chan string, 1)
	lineServer(t, ln, lines)
	port := ln.Addr().(*net.TCPAddr).Port

	other := &zeroconf.ServiceEntry{}
	other.Instance = "someone-else"
	other.Port = 1
	other.AddrIPv4 = []net.IP{net.ParseIP("10.0.0.1")}

	mine := &zeroconf.ServiceEntry{}
	mine.Instance = "ESP32_Glasses"
	mine.Port = port
	mine.AddrIPv4 = []net.IP{net.ParseIP("127.0.0.1")}

	s := &MDNSStrategy{Browse: fakeBrowse(other, mine)}
	ep := tcpEndpoint("192.0.2.1:9") // stale address, never dialed
	ep.ServiceInstance = "ESP32_Glasses"

	rwc, err := s.Open(context.Background(), ep)
	require.NoError(t, err)
	h := NewStreamHandle(rwc, ep, s.Name())
	defer h.Close()

	require.NoError(t, h.WriteLine("CALL: Bob"))
	assert.Equal(t, "CALL: Bob\n", <-lines)
}

func TestMDNSStrategyNotFound(t *testing.T) {
	s := &MDNSStrategy{Browse: fakeBrowse()}
	ep := tcpEndpoint("192.0.2.1:9")
	ep.ServiceInstance = "ESP32_Glasses"

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Open(ctx, ep)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestMDNSStrategyBrowseError(t *testing.T) {
	s := &MDNSStrategy{Browse: func(context.Context, string, string, chan<- *zeroconf.ServiceEntry, chan<- *zeroconf.ServiceEntry) error {
		return fmt.Errorf("no multicast interface")
	}}
	ep := tcpEndpoint("192.0.2.1:9")
	ep.ServiceInstance = "x"

	_, err := s.Open(context.Background(), ep)
	assert.ErrorContains(t, err, "no multicast interface")
}

func TestMDNSStrategyRequiresInstance(t *testing.T) {
	_, err := (&MDNSStrategy{}).Open(context.Background(), tcpEndpoint("127.0.0.1:1"))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRFCOMMStrategyNames(t *testing.T) {
	assert.Equal(t, StrategyRFCOMMSecure, (&RFCOMMStrategy{Secure: true}).Name())
	assert.Equal(t, StrategyRFCOMMInsecure, (&RFCOMMStrategy{}).Name())
	assert.Equal(t, StrategyRFCOMMFallback, (&RFCOMMStrategy{Channel: FallbackChannel}).Name())

	assert.Equal(t, uint8(5), (&RFCOMMStrategy{}).channelFor(5))
	assert.Equal(t, FallbackChannel, (&RFCOMMStrategy{Channel: FallbackChannel}).channelFor(5))
}

func TestRFCOMMStrategyRejectsBadAddress(t *testing.T) {
	_, err := (&RFCOMMStrategy{}).Open(context.Background(), tcpEndpoint("127.0.0.1:1"))
	assert.Error(t, err)
}

func TestIsPermission(t *testing.T) {
	assert.True(t, IsPermission(os.NewSyscallError("connect", syscall.EACCES)))
	assert.True(t, IsPermission(os.NewSyscallError("socket", syscall.EPERM)))
	assert.True(t, IsPermission(fs.ErrPermission))
	assert.True(t, IsPermission(fmt.Errorf("wrapped: %w", ErrPermissionDenied)))
	assert.False(t, IsPermission(syscall.ECONNREFUSED))
	assert.False(t, IsPermission(nil))
}
