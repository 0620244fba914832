package security

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver map[string][]net.IP

func (r staticResolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	ips, ok := r[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return ips, nil
}

func TestURLValidator(t *testing.T) {
	v := NewURLValidatorWithResolver(staticResolver{
		"example.com":  {net.ParseIP("93.184.216.34")},
		"internal.lan": {net.ParseIP("10.1.2.3")},
		"rebind.test":  {net.ParseIP("93.184.216.34"), net.ParseIP("127.0.0.1")},
	})

	tests := []struct {
		url     string
		blocked bool
	}{
		{"https://example.com/posts/go-generics", false},
		{"http://example.com/?q=vectors", false},
		{"https://unknown.example.org/a", false},
		{"ftp://example.com/file", true},
		{"file:///etc/passwd", true},
		{"http://localhost:8080/admin", true},
		{"http://127.0.0.1/", true},
		{"http://[::1]/", true},
		{"http://169.254.169.254/latest/meta-data", true},
		{"http://internal.lan/", true},
		{"http://rebind.test/", true},
		{"https://example.com/../../etc/passwd", true},
		{"https://example.com/a?path=..%2f..%2fsecret", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := v.Validate(tt.url)
			if tt.blocked {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrBlocked))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIPValidator_DialControl(t *testing.T) {
	v := NewIPValidator()

	assert.NoError(t, v.DialControl("tcp", "93.184.216.34:443", nil))
	assert.ErrorIs(t, v.DialControl("tcp", "127.0.0.1:80", nil), ErrBlocked)
	assert.ErrorIs(t, v.DialControl("tcp", "[fd00::1]:80", nil), ErrBlocked)
	assert.ErrorIs(t, v.DialControl("tcp", "not-an-address", nil), ErrBlocked)
}
