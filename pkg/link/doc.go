// Package link opens and owns the byte stream to a paired companion device.
//
// A Handle wraps one established duplex stream. The Establisher produces a
// Handle from a RemoteEndpoint by walking an ordered list of Strategies
// with a bounded attempt budget:
//
//	attempt 1 -> strategy 1 (secure channel)
//	attempt 2 -> strategy 2 (insecure channel)
//	attempt 3 -> strategy 3 (fallback channel)
//
// When more attempts than strategies are configured the list is reused
// round-robin. Between failed attempts the establisher waits a fixed
// backoff (2s by default).
//
// # Failure Classification
//
//   - ErrNotPaired: endpoint not bonded. No attempt is made.
//   - ErrChannelOpen: one strategy failed. Retried within the budget.
//   - ErrPermissionDenied: the OS refused access. The sequence aborts.
//   - ErrAllAttemptsExhausted: the budget ran out.
//
// # Wire Format
//
// Handle.WriteLine sends the UTF-8 payload followed by a single '\n' in one
// contiguous write. There is no framing and no acknowledgement.
package link
