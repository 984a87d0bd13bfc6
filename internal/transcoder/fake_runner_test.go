package transcoder

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"library-converter/internal/tools"
)

var (
	jxlBytes = []byte{0xFF, 0x0A, 0x01, 0x02, 0x03}
	jpegData = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 200)...)
	pngData  = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 200)...)
)

type call struct {
	name    string
	args    []string
	timeout time.Duration
}

// fakeRunner scripts tool behavior by name. Encoders write output to their
// last argument.
type fakeRunner struct {
	mu       sync.Mutex
	calls    []call
	fail     map[string]error
	output   map[string][]byte
	probeOut map[string]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		fail:     map[string]error{},
		output:   map[string][]byte{},
		probeOut: map[string]string{},
	}
}

func (f *fakeRunner) Run(_ context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: args, timeout: timeout})
	err := f.fail[name]
	data, hasData := f.output[name]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}

	switch name {
	case "ffprobe":
		key := "codec"
		if strings.Contains(strings.Join(args, " "), "format=duration") {
			key = "duration"
		}
		return []byte(f.probeOut[key]), nil
	case "exiftool":
		return nil, nil
	}

	if !hasData {
		data = jxlBytes
	}
	if err := os.WriteFile(args[len(args)-1], data, 0o644); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeRunner) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.name
	}
	return out
}

func (f *fakeRunner) find(name string) (call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.name == name {
			return c, true
		}
	}
	return call{}, false
}

func exitErr(tool string) error {
	return &tools.ToolError{Tool: tool, Kind: tools.KindExit, ExitCode: 1}
}
