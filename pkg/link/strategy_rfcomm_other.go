//go:build !linux

package link

import (
	"context"
	"io"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
)

// Open is only implemented on Linux. Elsewhere every RFCOMM attempt fails
// as a retryable channel-open failure.
func (s *RFCOMMStrategy) Open(_ context.Context, _ endpoint.RemoteEndpoint) (io.ReadWriteCloser, error) {
	return nil, ErrUnsupported
}
