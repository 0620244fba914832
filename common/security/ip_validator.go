package security

import (
	"fmt"
	"net"
	"syscall"
)

// IPValidator validates IP addresses for security
type IPValidator struct{}

// NewIPValidator creates a new IP validator
func NewIPValidator() *IPValidator {
	return &IPValidator{}
}

// Validate blocks loopback, private, link-local, multicast and unspecified addresses
func (v *IPValidator) Validate(ip net.IP) error {
	if ip == nil {
		return fmt.Errorf("IP address is nil")
	}

	switch {
	case ip.IsLoopback():
		return fmt.Errorf("IP %s is blocked (loopback address)", ip)
	case ip.IsPrivate():
		return fmt.Errorf("IP %s is blocked (private network)", ip)
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		// 169.254.169.254 lives here
		return fmt.Errorf("IP %s is blocked (link-local address)", ip)
	case ip.IsMulticast():
		return fmt.Errorf("IP %s is blocked (multicast address)", ip)
	case ip.IsUnspecified():
		return fmt.Errorf("IP %s is blocked (unspecified address)", ip)
	}

	return nil
}

// ValidateAll checks all IPs in a list
func (v *IPValidator) ValidateAll(ips []net.IP) error {
	if len(ips) == 0 {
		return fmt.Errorf("no IP addresses to validate")
	}

	for _, ip := range ips {
		if err := v.Validate(ip); err != nil {
			return err
		}
	}

	return nil
}

// DialControl is a net.Dialer Control hook that re-validates the address
// actually being dialed, closing the DNS-rebinding gap left by Validate.
func (v *IPValidator) DialControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlocked, err)
	}
	if err := v.Validate(net.ParseIP(host)); err != nil {
		return fmt.Errorf("%w: %v", ErrBlocked, err)
	}
	return nil
}
