package security

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// Resolver looks up the IPs for a host
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// HostValidator validates hostnames and the IPs they resolve to
type HostValidator struct {
	blockedHostnames map[string]bool
	ipValidator      *IPValidator
	resolver         Resolver
}

// NewHostValidator creates a host validator. A nil resolver uses net.DefaultResolver.
func NewHostValidator(resolver Resolver) *HostValidator {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &HostValidator{
		blockedHostnames: map[string]bool{
			"localhost":                true,
			"localhost.localdomain":    true,
			"metadata.google.internal": true,
		},
		ipValidator: NewIPValidator(),
		resolver:    resolver,
	}
}

// Validate rejects blocked names, literal internal IPs, and names resolving to them
func (v *HostValidator) Validate(hostname string) error {
	if hostname == "" {
		return fmt.Errorf("hostname is required")
	}

	normalizedHost := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(hostname)), ".")
	if v.blockedHostnames[normalizedHost] || strings.HasSuffix(normalizedHost, ".localhost") {
		return fmt.Errorf("hostname '%s' is blocked (localhost access)", hostname)
	}

	if ip := net.ParseIP(strings.Trim(normalizedHost, "[]")); ip != nil {
		return v.ipValidator.Validate(ip)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ips, err := v.resolver.LookupIP(ctx, "ip", normalizedHost)
	if err != nil {
		// The fetch itself will fail on an unresolvable host; the dialer
		// guard re-checks the address it actually connects to.
		return nil
	}

	return v.ipValidator.ValidateAll(ips)
}
