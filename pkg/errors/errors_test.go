package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	if meta := MetadataFor(CodeInsufficient); meta.HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status for insufficient funds: %d", meta.HTTPStatus)
	}
	if meta := MetadataFor(CodeReconciliation); meta.Retryable {
		t.Fatal("reconciliation failures must not be marked retryable")
	}
	if meta := MetadataFor(Code("nope")); meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes should map to internal metadata, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("boom")
	err := Wrap(CodeChainFailure, cause, "transaction reverted")

	if err.Unwrap() != cause {
		t.Fatal("expected wrapped cause to survive")
	}
	if typed := As(fmt.Errorf("outer: %w", err)); typed == nil || typed.Code() != CodeChainFailure {
		t.Fatalf("expected typed error through wrapping, got %v", typed)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	t.Parallel()

	err := Wrap(CodeDependency, fmt.Errorf("inner"), "outer")
	dump := Dump(err)

	if dump.Code != CodeDependency {
		t.Fatalf("unexpected code: %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected full chain, got %v", dump.Chain)
	}
}
