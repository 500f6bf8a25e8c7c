package main

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cowboyai/genesis-issuer/domain/command"
	"github.com/cowboyai/genesis-issuer/pkg/logger"
	"github.com/cowboyai/genesis-issuer/projection"
)

func newTestSession(t *testing.T) (*session, string) {
	t.Helper()
	root := t.TempDir()
	w, err := projection.Open(root, []byte("passphrase"), "operator-1")
	if err != nil {
		t.Fatalf("open projection: %v", err)
	}
	el, err := openEventLog(root)
	if err != nil {
		t.Fatalf("open event log: %v", err)
	}
	t.Cleanup(func() { el.Close() })

	sess := &session{
		log:       logger.New(logger.LoggingConfig{Level: "error"}),
		writer:    w,
		aggregate: command.NewAggregate(command.NewProjection(), pinHash),
		eventLog:  el,
	}
	return sess, root
}

func TestRunAppliesACommandBatchInOrder(t *testing.T) {
	sess, root := newTestSession(t)

	batch := strings.Join([]string{
		`{"type":"bootstrap-organization","params":{"Name":"cowboyai","DisplayName":"Cowboy AI","Domain":"cowboyai.com","PersonNames":["alice"]}}`,
		`{"type":"generate-key","params":{"Algorithm":{"Family":"Ed25519"},"Purpose":"signing"}}`,
	}, "\n")

	result, err := sess.run(context.Background(), strings.NewReader(batch))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.commands != 2 {
		t.Fatalf("expected 2 commands processed, got %d", result.commands)
	}
	if result.failures != 0 {
		t.Fatalf("expected 0 failures, got %d", result.failures)
	}
	if result.events == 0 {
		t.Fatalf("expected at least one event emitted")
	}

	if _, err := os.Stat(filepath.Join(root, "organization", "metadata.json")); err != nil {
		t.Fatalf("expected projection to materialize the organization: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "events.jsonl"))
	if err != nil {
		t.Fatalf("read event log: %v", err)
	}
	lines := strings.Count(strings.TrimSpace(string(data)), "\n") + 1
	if lines != result.events {
		t.Fatalf("expected event log to carry %d lines, got %d", result.events, lines)
	}
}

func TestRunCountsRejectedCommandsAsFailuresNotFatal(t *testing.T) {
	sess, _ := newTestSession(t)

	batch := strings.Join([]string{
		`{"type":"revoke-key","params":{"KeyID":"00000000-0000-0000-0000-000000000001","Reason":"nope"}}`,
		`{"type":"bootstrap-organization","params":{"Name":"cowboyai","DisplayName":"Cowboy AI","Domain":"cowboyai.com"}}`,
	}, "\n")

	result, err := sess.run(context.Background(), strings.NewReader(batch))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.failures != 1 {
		t.Fatalf("expected the revoke of a nonexistent key to be counted as a rejected command, got %d failures", result.failures)
	}
	if result.commands != 2 {
		t.Fatalf("expected both commands to be processed, got %d", result.commands)
	}
}

func TestRunRejectsAnUnknownCommandType(t *testing.T) {
	sess, _ := newTestSession(t)

	_, err := sess.run(context.Background(), strings.NewReader(`{"type":"launch-the-missiles","params":{}}`))
	if err == nil {
		t.Fatal("expected an unknown command type to stop the batch")
	}
}

func TestRegistrySpotChecksEachDomainArea(t *testing.T) {
	// A spot check across every domain area rather than a reflective scan of
	// domain/command: this registry is hand-authored, so the thing worth
	// guarding against is a typo'd key silently shadowing the real one.
	for _, name := range []string{
		"create-organization", "bootstrap-organization", "create-person",
		"generate-key", "revoke-key", "create-pki-hierarchy", "issue-leaf-certificate",
		"detect-smartcard", "configure-smartcard-pin", "configure-smartcard-puk",
		"bootstrap-messaging", "create-messaging-account", "propose-relationship",
		"define-claim", "create-policy", "create-policy-binding",
	} {
		ctor, ok := registry[name]
		if !ok {
			t.Fatalf("registry missing %q", name)
		}
		if ctor() == nil {
			t.Fatalf("registry constructor for %q returned nil", name)
		}
	}
}

func TestPinHashIsDeterministicAndNotThePlaintext(t *testing.T) {
	want := sha256.Sum256([]byte("123456"))
	got := pinHash("123456")
	if string(got) != string(want[:]) {
		t.Fatal("expected pinHash to be a deterministic sha256 digest")
	}
	if string(got) == "123456" {
		t.Fatal("expected pinHash to not return the plaintext PIN")
	}
}
