package logs

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/talgya/mini-realm/internal/errx"
)

func TestBuildErrorLogExtractsContext(t *testing.T) {
	leaf := errx.Invariant("stored below zero").WithData("commodity", "grain").WithCause(errors.New("clamp"))
	err := errx.Wrap(leaf, "do turn", "country", 3)

	meta := BuildErrorLog(err)
	if meta.Code != string(errx.CodeInvariant) {
		t.Fatalf("got code %q, want %q", meta.Code, errx.CodeInvariant)
	}
	if meta.Data["country"] != 3 || meta.Data["commodity"] != "grain" {
		t.Fatalf("got data %v, want country and commodity merged", meta.Data)
	}
	if len(meta.CauseChain) < 2 {
		t.Fatalf("got cause chain %v, want at least 2 links", meta.CauseChain)
	}
	if meta.Origin == "" || meta.Stack == "" {
		t.Fatalf("expected origin stack, origin=%q", meta.Origin)
	}
}

func TestReportErrorWritesOneEntry(t *testing.T) {
	core, recorded := observer.New(zap.ErrorLevel)
	Set(zap.New(core))
	defer Set(nil)

	ReportError("do_turn", errx.Content("missing culture"), zap.Uint64("turn", 4))
	if recorded.Len() != 1 {
		t.Fatalf("got %d entries, want 1", recorded.Len())
	}
	entry := recorded.All()[0]
	if entry.ContextMap()["error_code"] != string(errx.CodeContent) {
		t.Fatalf("got fields %v", entry.ContextMap())
	}
}
