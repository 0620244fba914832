package telemetry

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// RuntimeInfo describes the host a service is running on
type RuntimeInfo struct {
	Hostname         string
	OS               string
	Arch             string
	GoVersion        string
	CPUs             int
	InContainer      bool
	ContainerRuntime string
	TotalMemoryMB    uint64
}

// CaptureRuntime gathers host information for startup logs
func CaptureRuntime() RuntimeInfo {
	info := RuntimeInfo{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		GoVersion: runtime.Version(),
		CPUs:      runtime.NumCPU(),
		Hostname:  "unknown",
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}

	info.InContainer, info.ContainerRuntime = detectContainer(fileExists, os.ReadFile)

	if runtime.GOOS == "linux" {
		if f, err := os.Open("/proc/meminfo"); err == nil {
			info.TotalMemoryMB = parseMemTotal(f)
			f.Close()
		}
	}

	return info
}

// LogArgs renders the info as slog key/value pairs
func (r RuntimeInfo) LogArgs() []any {
	args := []any{
		"hostname", r.Hostname,
		"os", r.OS,
		"arch", r.Arch,
		"go_version", r.GoVersion,
		"cpus", r.CPUs,
	}
	if r.InContainer {
		args = append(args, "container", r.ContainerRuntime)
	}
	if r.TotalMemoryMB > 0 {
		args = append(args, "memory_mb", r.TotalMemoryMB)
	}
	return args
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func detectContainer(exists func(string) bool, readFile func(string) ([]byte, error)) (bool, string) {
	if exists("/.dockerenv") {
		return true, "docker"
	}
	if exists("/var/run/secrets/kubernetes.io") {
		return true, "kubernetes"
	}

	data, err := readFile("/proc/1/cgroup")
	if err != nil {
		return false, ""
	}
	content := string(data)
	switch {
	case strings.Contains(content, "kubepods"):
		return true, "kubernetes"
	case strings.Contains(content, "docker"):
		return true, "docker"
	case strings.Contains(content, "containerd"):
		return true, "containerd"
	}
	return false, ""
}

// parseMemTotal reads the MemTotal line of /proc/meminfo, in MB
func parseMemTotal(r io.Reader) uint64 {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "MemTotal:" {
			kb, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0
			}
			return kb / 1024
		}
	}
	return 0
}
