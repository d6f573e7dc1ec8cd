//go:build !cgo

package javasrc

import (
	"context"
	"testing"

	"apiextract/internal/errors"
)

func TestParseWithoutCgo(t *testing.T) {
	if IsAvailable() {
		t.Fatal("parser should be unavailable without cgo")
	}
	_, err := NewParser(Options{}).Parse(context.Background(), []Source{{Path: "A.java", Data: []byte("class A {}")}})
	if !errors.Is(err, errors.SourceParseFailed) {
		t.Errorf("error = %v, want SOURCE_PARSE_FAILED", err)
	}
}
