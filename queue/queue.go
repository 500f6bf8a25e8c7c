// Package queue implements the offline durable delivery bridge (spec §4.8):
// when the core is configured with an external-bus target that is
// unreachable, events are appended to a local append-only JSON-lines file
// instead of being dropped, and drained in order once a Publisher becomes
// reachable again. It is an adjunct to the projection, never a substitute —
// nothing here replaces projection.Writer as the durable record.
package queue

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// Publisher is the external-bus delivery target. Implementations live
// outside this package (e.g. a NATS publisher built on the messaging
// package's credentials); queue only needs to know it can fail.
type Publisher interface {
	Publish(ctx context.Context, ev event.Event) error
}

// Queue is a crash-durable FIFO of events awaiting delivery, backed by a
// single append-only file. Safe for concurrent Enqueue/Drain calls, though
// the core's single-writer scheduling model (§5) means contention in
// practice comes only from a concurrent drain.
type Queue struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open opens (creating if necessary) the queue file at path in append mode.
// An empty path is rejected by callers upstream of this package; config.Load
// only sets QueuePath when the offline queue is enabled.
func Open(path string) (*Queue, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, xerrors.IoFailure(path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o640)
	if err != nil {
		return nil, xerrors.IoFailure(path, err)
	}
	return &Queue{path: path, file: f}, nil
}

// Close releases the underlying file handle.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.file.Close()
}

// Enqueue appends ev to the durable queue. The event's own event_id lets a
// downstream consumer deduplicate if the same entry is ever delivered twice
// (e.g. after a crash between publish and compaction).
func (q *Queue) Enqueue(ev event.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := event.Marshal(ev)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := q.file.Write(data); err != nil {
		return xerrors.IoFailure(q.path, err)
	}
	return q.file.Sync()
}

// Pending reports how many events currently sit in the queue, without
// draining them. Used for the backpressure-monitoring surface (§5:
// "backpressure: the optional offline queue grows until the bus is reached;
// no admission control beyond available disk").
func (q *Queue) Pending() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	lines, err := q.readLines()
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

// Drain delivers every queued event to pub, in the order they were
// enqueued, stopping at the first delivery failure. Events already
// delivered are removed from the durable file before Drain returns, whether
// it returns an error or not, so a crash mid-drain can at worst redeliver
// the single in-flight event, never lose or reorder the rest.
func (q *Queue) Drain(ctx context.Context, pub Publisher) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	lines, err := q.readLines()
	if err != nil {
		return err
	}

	delivered := 0
	var deliverErr error
	for _, line := range lines {
		ev, err := event.Unmarshal(line)
		if err != nil {
			deliverErr = err
			break
		}
		if err := pub.Publish(ctx, ev); err != nil {
			deliverErr = err
			break
		}
		delivered++
	}

	if delivered == 0 {
		return deliverErr
	}
	if err := q.rewrite(lines[delivered:]); err != nil {
		return err
	}
	return deliverErr
}

// readLines loads every undrained entry from the queue file without
// consuming it, leaving the file handle positioned for further Enqueue
// appends.
func (q *Queue) readLines() ([][]byte, error) {
	if _, err := q.file.Seek(0, 0); err != nil {
		return nil, xerrors.IoFailure(q.path, err)
	}
	var lines [][]byte
	scanner := bufio.NewScanner(q.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		lines = append(lines, cp)
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.IoFailure(q.path, err)
	}
	if _, err := q.file.Seek(0, 2); err != nil {
		return nil, xerrors.IoFailure(q.path, err)
	}
	return lines, nil
}

// rewrite replaces the queue file's contents with remaining, the entries
// that were not yet delivered, following the same truncate-and-rewrite
// pattern the teacher uses for its registry snapshot rather than attempting
// an in-place line delete.
func (q *Queue) rewrite(remaining [][]byte) error {
	tmp := q.path + ".tmp"
	var buf bytes.Buffer
	for _, line := range remaining {
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(tmp, buf.Bytes(), 0o640); err != nil {
		return xerrors.IoFailure(tmp, err)
	}
	if err := q.file.Close(); err != nil {
		return xerrors.IoFailure(q.path, err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return xerrors.IoFailure(q.path, err)
	}
	f, err := os.OpenFile(q.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o640)
	if err != nil {
		return xerrors.IoFailure(q.path, err)
	}
	q.file = f
	return nil
}
