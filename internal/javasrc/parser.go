//go:build cgo

package javasrc

import (
	"context"
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"apiextract/internal/decl"
	"apiextract/internal/errors"
	"apiextract/internal/slogutil"
)

// Parser parses Java compilation units with tree-sitter.
type Parser struct {
	parser *sitter.Parser
	opts   Options
	logger *slog.Logger
}

// NewParser creates a Java parser.
func NewParser(opts Options) *Parser {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &Parser{parser: p, opts: opts, logger: slogutil.OrDiscard(opts.Logger)}
}

// IsAvailable reports whether Java sources can be parsed.
func IsAvailable() bool {
	return true
}

// unit is one parsed compilation unit.
type unit struct {
	path string
	src  []byte
	tree *sitter.Tree
	root *sitter.Node

	pkg     string
	pkgDecl decl.Handle
	// imports maps simple names to single-type imports.
	imports map[string]string
	// onDemand lists package or type names imported with .*
	onDemand []string
	// staticImports maps simple names to the type declaring a statically
	// imported member; staticOnDemand lists types imported with static .*
	staticImports  map[string]string
	staticOnDemand []string
}

// Parse builds one graph from all sources. Syntax errors and duplicate
// declarations fail the whole parse with SOURCE_PARSE_FAILED.
func (p *Parser) Parse(ctx context.Context, sources []Source) (*Result, error) {
	st := newState(p)

	for _, s := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tree, err := p.parser.ParseCtx(ctx, nil, s.Data)
		if err != nil {
			return nil, errors.New(errors.SourceParseFailed, "cannot parse "+s.Path, err)
		}
		u := &unit{
			path:          s.Path,
			src:           s.Data,
			tree:          tree,
			root:          tree.RootNode(),
			imports:       make(map[string]string),
			staticImports: make(map[string]string),
		}
		if u.root.HasError() {
			st.problem(u, firstError(u.root), "syntax error")
			continue
		}
		st.units = append(st.units, u)
	}
	if len(st.problems) > 0 {
		return nil, st.failure()
	}

	for _, u := range st.units {
		st.declareUnit(u)
	}
	for _, td := range st.types {
		st.fillSupertypes(td)
	}
	for _, td := range st.types {
		st.fillType(td)
	}
	st.evaluateConstants()
	st.resolveAnnotations()
	if len(st.problems) > 0 {
		return nil, st.failure()
	}

	g, err := st.b.Graph()
	if err != nil {
		return nil, errors.New(errors.SourceParseFailed, "invalid declarations", err)
	}
	seeds := discoverSeeds(g, p.opts.IncludeAnnotation, p.opts.ExcludeAnnotation)

	p.logger.Info("Java sources parsed",
		"files", len(st.units),
		"types", len(st.types),
		"declarations", g.Len(),
		"seeds", len(seeds),
	)
	return &Result{Graph: g, Seeds: seeds, Files: len(st.units)}, nil
}

// firstError returns the first ERROR or MISSING node below n.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && (c.HasError() || c.IsMissing()) {
			return firstError(c)
		}
	}
	return n
}

func (st *state) problem(u *unit, n *sitter.Node, format string, args ...interface{}) {
	line := 0
	if n != nil {
		line = int(n.StartPoint().Row) + 1
	}
	st.problems = append(st.problems, fmt.Sprintf("%s:%d: %s", u.path, line, fmt.Sprintf(format, args...)))
}

func (st *state) failure() error {
	return errors.Newf(errors.SourceParseFailed, "%d problem(s) in Java sources", len(st.problems)).WithDetails(st.problems)
}
