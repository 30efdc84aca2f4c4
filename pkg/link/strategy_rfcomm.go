package link

import "fmt"

// RFCOMMStrategy opens a Bluetooth serial-profile socket.
//
// Secure requests an authenticated, encrypted link. Channel overrides the
// endpoint channel; the fallback strategy pins it to FallbackChannel.
type RFCOMMStrategy struct {
	Secure  bool
	Channel uint8
}

// Name returns the strategy name derived from its settings.
func (s *RFCOMMStrategy) Name() string {
	switch {
	case s.Secure:
		return StrategyRFCOMMSecure
	case s.Channel != 0:
		return StrategyRFCOMMFallback
	default:
		return StrategyRFCOMMInsecure
	}
}

func (s *RFCOMMStrategy) channelFor(epChannel uint8) uint8 {
	if s.Channel != 0 {
		return s.Channel
	}
	return epChannel
}

func (s *RFCOMMStrategy) String() string {
	return fmt.Sprintf("%s(ch=%d)", s.Name(), s.Channel)
}

var _ Strategy = (*RFCOMMStrategy)(nil)
