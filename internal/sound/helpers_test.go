package sound

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"hsound.dev/internal/audio"
	"hsound.dev/internal/line"
)

var (
	stereo = audio.Format{Channels: 2, SampleRate: 1000, Encoding: audio.EncodingS16}
	mono   = audio.Format{Channels: 1, SampleRate: 1000, Encoding: audio.EncodingS16}
)

func testStream(format audio.Format, frames int) *audio.Stream {
	samples := make([]byte, frames*format.FrameSize())
	if format.Encoding == audio.EncodingS16 {
		for i := 0; i+1 < len(samples); i += 2 {
			binary.LittleEndian.PutUint16(samples[i:], uint16(500))
		}
	}
	return &audio.Stream{Format: format, Samples: samples}
}

// fakeSource serves prepared streams and counts decodes
type fakeSource struct {
	mutex   sync.Mutex
	streams map[string]*audio.Stream
	decodes int
}

func newFakeSource() *fakeSource {
	return &fakeSource{streams: make(map[string]*audio.Stream)}
}

func (f *fakeSource) add(path string, stream *audio.Stream) *fakeSource {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.streams[path] = stream
	return f
}

func (f *fakeSource) remove(path string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	delete(f.streams, path)
}

func (f *fakeSource) Decode(path string) (*audio.Stream, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.decodes++
	stream, ok := f.streams[path]
	if !ok {
		return nil, &audio.DecodeError{Path: path, Kind: audio.IOFailure, Err: fmt.Errorf("%w: no such file", audio.ErrReadFailure)}
	}
	return stream, nil
}

// logBuffer is a goroutine safe slog sink
type logBuffer struct {
	mutex sync.Mutex
	buf   bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.String()
}

// count returns the number of log lines containing every fragment
func (b *logBuffer) count(fragments ...string) int {
	n := 0
	for _, record := range strings.Split(b.String(), "\n") {
		matched := record != ""
		for _, f := range fragments {
			if !strings.Contains(record, f) {
				matched = false
				break
			}
		}
		if matched {
			n++
		}
	}
	return n
}

func newTestLogger() (*slog.Logger, *logBuffer) {
	buf := &logBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// eventLog records listener callbacks in order
type eventLog struct {
	mutex  sync.Mutex
	events []string
}

func (e *eventLog) add(kind, id string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.events = append(e.events, kind+":"+id)
}

func (e *eventLog) OnOpen(id string)  { e.add("open", id) }
func (e *eventLog) OnStart(id string) { e.add("start", id) }
func (e *eventLog) OnStop(id string)  { e.add("stop", id) }
func (e *eventLog) OnClose(id string) { e.add("close", id) }

func (e *eventLog) snapshot() []string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return append([]string(nil), e.events...)
}

func control(t *testing.T, l line.Line, kind line.ControlKind) line.Control {
	t.Helper()
	ctl, err := l.Control(kind)
	if err != nil {
		t.Fatalf("line has no %s control: %v", kind, err)
	}
	return ctl
}
