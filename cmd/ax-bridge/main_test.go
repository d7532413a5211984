package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/codexwm/codex/internal/axproto"
)

func TestRunRejectsInvalidJSON(t *testing.T) {
	stdin := strings.NewReader("not json")
	var stdout, stderr bytes.Buffer

	if err := run(context.Background(), stdin, &stdout, &stderr); err == nil {
		t.Fatal("expected run to return an error for invalid JSON input")
	}
}

func TestRunEmptyBatchProducesEmptyOutput(t *testing.T) {
	ops := []axproto.Op{}
	payload, _ := json.Marshal(ops)

	stdin := bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer

	if err := run(context.Background(), stdin, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	var out []axproto.Frame
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty output for an empty batch, got %v", out)
	}
}

func TestRunTolerantOfUntrustedBackend(t *testing.T) {
	// Without accessibility permission (or off darwin), every op's backend
	// call fails; run must still complete and simply omit unreported
	// frames rather than erroring out.
	ops := []axproto.Op{
		{WinID: 1, PID: 100, X: 0, Y: 0, W: 400, H: 300, Save: true},
		{WinID: 2, PID: 100, X: 0, Y: 0, ReadOnly: true},
	}
	payload, _ := json.Marshal(ops)

	stdin := bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer

	if err := run(context.Background(), stdin, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	var out []axproto.Frame
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no frames reported when the backend can't resolve any window, got %v", out)
	}
}
