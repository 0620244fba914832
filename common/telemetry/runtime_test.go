package telemetry

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectContainer(t *testing.T) {
	noFile := func(string) ([]byte, error) { return nil, errors.New("missing") }

	tests := []struct {
		name    string
		files   map[string]bool
		cgroup  string
		want    bool
		runtime string
	}{
		{"docker marker", map[string]bool{"/.dockerenv": true}, "", true, "docker"},
		{"kubernetes secrets", map[string]bool{"/var/run/secrets/kubernetes.io": true}, "", true, "kubernetes"},
		{"kubepods cgroup", nil, "0::/kubepods/besteffort/pod1", true, "kubernetes"},
		{"containerd cgroup", nil, "0::/system.slice/containerd.service", true, "containerd"},
		{"bare host", nil, "0::/init.scope", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exists := func(p string) bool { return tt.files[p] }
			read := noFile
			if tt.cgroup != "" {
				read = func(string) ([]byte, error) { return []byte(tt.cgroup), nil }
			}
			got, rt := detectContainer(exists, read)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.runtime, rt)
		})
	}
}

func TestParseMemTotal(t *testing.T) {
	meminfo := "MemTotal:       16318504 kB\nMemFree:         1234 kB\n"
	assert.Equal(t, uint64(15936), parseMemTotal(strings.NewReader(meminfo)))
	assert.Zero(t, parseMemTotal(strings.NewReader("MemFree: 1 kB\n")))
}

func TestCaptureRuntime(t *testing.T) {
	info := CaptureRuntime()
	assert.NotEmpty(t, info.OS)
	assert.Positive(t, info.CPUs)
	args := info.LogArgs()
	assert.Contains(t, args, "go_version")
}
