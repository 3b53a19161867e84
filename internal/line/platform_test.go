package line

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func commands(names ...string) func(string) bool {
	return func(name string) bool { return slices.Contains(names, name) }
}

func TestHostWSL(t *testing.T) {
	testCases := []struct {
		name string
		host host
		want bool
	}{
		{"wsl1 kernel", host{procVersion: "Linux version 4.4.0-19041-Microsoft (Microsoft@Microsoft.com)"}, true},
		{"wsl2 kernel", host{procVersion: "Linux version 5.15.74.2-microsoft-standard-WSL2"}, true},
		{"distro variable", host{wslDistro: "Ubuntu"}, true},
		{"native kernel", host{procVersion: "Linux version 6.8.0-45-generic (buildd@lcy02-amd64-075)"}, false},
		{"nothing known", host{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.host.wsl())
		})
	}
}

func TestHostAutoCandidates(t *testing.T) {
	testCases := []struct {
		name string
		host host
		want []string
	}{
		{"wsl with paplay", host{wslDistro: "Ubuntu", hasCommand: commands("paplay")}, []string{BackendOto, BackendMalgo}},
		{"wsl with pulse daemon", host{wslDistro: "Debian", hasCommand: commands("pulseaudio")}, []string{BackendOto, BackendMalgo}},
		{"wsl with alsa only", host{wslDistro: "Ubuntu", hasCommand: commands("aplay")}, []string{BackendMalgo}},
		{"native with paplay", host{procVersion: "Linux version 6.8.0", hasCommand: commands("paplay")}, []string{BackendMalgo}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.host.autoCandidates())
		})
	}
}

func TestCurrentHostCommandLookup(t *testing.T) {
	h := currentHost()
	assert.False(t, h.hasCommand(""))
	assert.False(t, h.hasCommand("hsound-no-such-command"))
	assert.NotEmpty(t, h.autoCandidates())
}
