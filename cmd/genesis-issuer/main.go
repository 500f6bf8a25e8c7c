// Command genesis-issuer is the air-gapped composition root: it wires the
// environment contract (config), structured logging, the event-sourced
// projection writer, and the optional offline bus queue together, then
// drives one operator session worth of commands read from a batch of JSON
// envelopes against a single in-memory aggregate.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cowboyai/genesis-issuer/config"
	"github.com/cowboyai/genesis-issuer/domain/command"
	"github.com/cowboyai/genesis-issuer/pkg/logger"
	"github.com/cowboyai/genesis-issuer/projection"
	"github.com/cowboyai/genesis-issuer/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "genesis-issuer:", err)
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})

	actor := os.Getenv("GENESIS_OPERATOR")
	if actor == "" {
		actor = "operator"
	}

	writer, err := projection.Open(cfg.OutputRoot, []byte(cfg.Passphrase), actor)
	if err != nil {
		log.WithError(err).Fatal("open projection")
	}

	eventLog, err := openEventLog(cfg.OutputRoot)
	if err != nil {
		log.WithError(err).Fatal("open event log")
	}
	defer eventLog.Close()

	var q *queue.Queue
	if cfg.QueuePath != "" {
		q, err = queue.Open(cfg.QueuePath)
		if err != nil {
			log.WithError(err).Fatal("open offline queue")
		}
		defer q.Close()
	}

	// One continuous aggregate for the whole session: domain/command has no
	// event-replay path back into an in-memory Aggregate, so every command in
	// this batch must run against the same Aggregate that handled the ones
	// before it, or guard checks like "person already exists" stop working
	// the moment the process restarts between commands.
	aggregate := command.NewAggregate(command.NewProjection(), pinHash)

	sess := &session{
		log:       log,
		writer:    writer,
		aggregate: aggregate,
		eventLog:  eventLog,
		queue:     q,
	}

	var src io.Reader = os.Stdin
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			log.WithError(err).Fatal("open command batch")
		}
		defer f.Close()
		src = f
	}

	result, err := sess.run(context.Background(), src)
	if err != nil {
		log.WithError(err).Fatal("command session failed")
	}
	log.WithField("commands", result.commands).
		WithField("events", result.events).
		WithField("failures", result.failures).
		Info("command session complete")
	if result.failures > 0 {
		os.Exit(1)
	}
}
