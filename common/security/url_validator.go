// Package security guards outbound fetches of user-supplied links.
package security

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrBlocked marks a URL rejected by SSRF protection
var ErrBlocked = errors.New("url blocked")

// URLValidator runs protocol, host and path checks on a URL before it is fetched
type URLValidator struct {
	protocolValidator *ProtocolValidator
	hostValidator     *HostValidator
	pathValidator     *PathValidator
}

// NewURLValidator creates a URL validator using the system resolver
func NewURLValidator() *URLValidator {
	return NewURLValidatorWithResolver(nil)
}

// NewURLValidatorWithResolver creates a URL validator with a custom resolver.
// A nil resolver uses net.DefaultResolver.
func NewURLValidatorWithResolver(resolver Resolver) *URLValidator {
	return &URLValidator{
		protocolValidator: NewProtocolValidator(),
		hostValidator:     NewHostValidator(resolver),
		pathValidator:     NewPathValidator(),
	}
}

// Validate returns an error wrapping ErrBlocked when urlStr is unsafe to fetch
func (v *URLValidator) Validate(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: invalid URL format: %v", ErrBlocked, err)
	}

	if err := v.protocolValidator.Validate(parsedURL.Scheme); err != nil {
		return fmt.Errorf("%w: %v", ErrBlocked, err)
	}

	if err := v.hostValidator.Validate(parsedURL.Hostname()); err != nil {
		return fmt.Errorf("%w: %v", ErrBlocked, err)
	}

	if err := v.pathValidator.Validate(parsedURL.Path); err != nil {
		return fmt.Errorf("%w: %v", ErrBlocked, err)
	}

	for key, values := range parsedURL.Query() {
		for _, value := range values {
			if err := v.pathValidator.Validate(value); err != nil {
				return fmt.Errorf("%w: query parameter '%s': %v", ErrBlocked, key, err)
			}
		}
	}

	return nil
}
