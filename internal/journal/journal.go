package journal

import (
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/huandu/go-sqlbuilder"

	"hsound.dev/internal/sound"
)

// Event names stored in the event column
const (
	EventOpen  = "open"
	EventStart = "start"
	EventStop  = "stop"
	EventClose = "close"
)

// DefaultQueueSize bounds how many events may wait for the writer
const DefaultQueueSize = 256

type record struct {
	at    time.Time
	sound string
	event string
}

// Journal is a sound.Listener that persists every lifecycle event.
// Callbacks only enqueue; a single goroutine writes. When the queue is full
// events are dropped, and the first write error disables the journal.
type Journal struct {
	db  *sql.DB
	now func() time.Time

	mutex   sync.RWMutex
	queue   chan record
	closed  bool
	dropped atomic.Int64

	done     chan struct{}
	disabled bool
	written  int
}

var _ sound.Listener = (*Journal)(nil)

// New starts a journal writing to db
func New(db *sql.DB, queueSize int) *Journal {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	j := &Journal{
		db:    db,
		now:   time.Now,
		queue: make(chan record, queueSize),
		done:  make(chan struct{}),
	}
	go j.run()
	return j
}

func (j *Journal) OnOpen(id string)  { j.enqueue(id, EventOpen) }
func (j *Journal) OnStart(id string) { j.enqueue(id, EventStart) }
func (j *Journal) OnStop(id string)  { j.enqueue(id, EventStop) }
func (j *Journal) OnClose(id string) { j.enqueue(id, EventClose) }

func (j *Journal) enqueue(id, event string) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()
	if j.closed {
		return
	}
	select {
	case j.queue <- record{at: j.now(), sound: id, event: event}:
	default:
		j.dropped.Add(1)
	}
}

func (j *Journal) run() {
	defer close(j.done)
	for r := range j.queue {
		if j.disabled {
			continue
		}
		if err := j.insert(r); err != nil {
			slog.Warn("playback journal failed, disabling it", "error", err, "sound", r.sound)
			j.disabled = true
			continue
		}
		j.written++
		slog.Debug("journal recorded event", "sound", r.sound, "event", r.event)
	}
}

func (j *Journal) insert(r record) error {
	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("playback_events")
	ib.Cols("timestamp", "sound", "event")
	ib.Values(r.at.Unix(), r.sound, r.event)
	query, args := ib.BuildWithFlavor(sqlbuilder.SQLite)
	_, err := j.db.Exec(query, args...)
	return err
}

// Close stops accepting events and waits until queued events are written.
// It does not close the database.
func (j *Journal) Close() error {
	j.mutex.Lock()
	if j.closed {
		j.mutex.Unlock()
		<-j.done
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mutex.Unlock()

	<-j.done
	if dropped := j.dropped.Load(); dropped > 0 {
		slog.Warn("playback journal dropped events", "dropped", dropped)
	}
	slog.Debug("playback journal closed", "written", j.written)
	return nil
}

// Written waits for the writer to finish after Close and returns how many
// events reached the database
func (j *Journal) Written() int {
	<-j.done
	return j.written
}

// Dropped returns how many events were lost to a full queue
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}
