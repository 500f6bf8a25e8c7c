package main

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// eventLog is the permanent, append-only record of every event this process
// has emitted: one JSON object per line, envelope and payload together, so a
// consumer can replay it end to end to reconstruct any projection. Unlike
// queue.Queue, nothing ever removes an entry from this file.
type eventLog struct {
	mu   sync.Mutex
	file *os.File
}

func openEventLog(outputRoot string) (*eventLog, error) {
	path := filepath.Join(outputRoot, "events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, xerrors.IoFailure(path, err)
	}
	return &eventLog{file: f}, nil
}

func (l *eventLog) Append(ev event.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := event.Marshal(ev)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := l.file.Write(data); err != nil {
		return xerrors.IoFailure(l.file.Name(), err)
	}
	return l.file.Sync()
}

func (l *eventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
