//go:build !cgo

package javasrc

import (
	"context"

	"apiextract/internal/errors"
)

// Parser is unavailable without cgo.
type Parser struct{}

// NewParser returns a parser whose Parse always fails.
func NewParser(opts Options) *Parser {
	return &Parser{}
}

// Parse reports that Java sources cannot be read in this build.
func (p *Parser) Parse(ctx context.Context, sources []Source) (*Result, error) {
	return nil, errors.New(errors.SourceParseFailed, "Java source parsing requires a cgo build; use --snapshot instead", nil)
}

// IsAvailable reports whether Java sources can be parsed.
func IsAvailable() bool {
	return false
}
