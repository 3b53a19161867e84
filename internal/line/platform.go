package line

import (
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// pulseCommands indicate a PulseAudio server reachable from WSL
var pulseCommands = []string{"pulseaudio", "paplay", "pactl"}

// host is what "auto" backend selection knows about the machine
type host struct {
	procVersion string
	wslDistro   string
	hasCommand  func(name string) bool
}

func currentHost() host {
	procVersion, err := os.ReadFile("/proc/version")
	if err != nil {
		slog.Debug("failed to read /proc/version", "error", err)
	}
	return host{
		procVersion: string(procVersion),
		wslDistro:   os.Getenv("WSL_DISTRO_NAME"),
		hasCommand: func(name string) bool {
			_, err := exec.LookPath(name)
			return name != "" && err == nil
		},
	}
}

// wsl reports whether the host is Windows Subsystem for Linux
func (h host) wsl() bool {
	if h.wslDistro != "" {
		return true
	}
	v := strings.ToLower(h.procVersion)
	return strings.Contains(v, "microsoft") || strings.Contains(v, "wsl")
}

// autoCandidates lists the device backends "auto" tries, best first. Under
// WSL with PulseAudio, oto leads: malgo's short periods crackle there.
func (h host) autoCandidates() []string {
	if !h.wsl() {
		return []string{BackendMalgo}
	}
	for _, name := range pulseCommands {
		if h.hasCommand(name) {
			slog.Debug("WSL with PulseAudio detected", "command", name)
			return []string{BackendOto, BackendMalgo}
		}
	}
	slog.Warn("no PulseAudio tools found in WSL, using malgo (may crackle)", "distro", h.wslDistro)
	return []string{BackendMalgo}
}
