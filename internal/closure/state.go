package closure

import (
	"apiextract/internal/decl"
	"apiextract/internal/errors"
)

// Progress records which dependency classes of a declaration were expanded.
type Progress uint8

const (
	EnclosingDone Progress = 1 << iota
	KindDone
	MembersDone
)

// Has reports whether every step in p2 is recorded.
func (p Progress) Has(p2 Progress) bool {
	return p&p2 == p2
}

// State is the inclusion state of one declaration in the closure.
type State struct {
	// MemberModifiers is the visibility set whose members are pulled in
	// automatically: public, or public|protected for subclassable classes.
	// Zero for non-type declarations.
	MemberModifiers decl.Modifiers
	Progress        Progress
	// Dependents are the seeds from which this declaration is reachable,
	// sorted by qualified name.
	Dependents []decl.Handle
}

// ShouldIncludeMember reports whether one of the member's modifiers is in
// the qualifying set.
func (s *State) ShouldIncludeMember(mods decl.Modifiers) bool {
	return s.MemberModifiers.Any(mods)
}

// memberModifiers computes the qualifying visibility set of type or package h.
func memberModifiers(g *decl.Graph, h decl.Handle) decl.Modifiers {
	switch g.Kind(h) {
	case decl.KindAnnotation, decl.KindEnum, decl.KindInterface, decl.KindPackage:
		return decl.ModPublic
	case decl.KindClass:
		mods := g.Modifiers(h)
		if mods.Has(decl.ModFinal) || !mods.Any(decl.ModPublic|decl.ModProtected) {
			return decl.ModPublic
		}
		if !hasVisibleConstructor(g, h) {
			return decl.ModPublic
		}
		return decl.ModPublic | decl.ModProtected
	}
	return 0
}

func hasVisibleConstructor(g *decl.Graph, h decl.Handle) bool {
	for _, c := range g.Constructors(h) {
		if g.Modifiers(c).Any(decl.ModPublic | decl.ModProtected) {
			return true
		}
	}
	return false
}

// Severity of a diagnostic.
type Severity uint8

const (
	SeverityWarning Severity = iota + 1
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a problem attached to one declaration.
type Diagnostic struct {
	Severity Severity         `json:"severity"`
	Code     errors.ErrorCode `json:"code"`
	Decl     decl.Handle      `json:"-"`
	Name     string           `json:"name"`
	Message  string           `json:"message"`
}

func (d Diagnostic) String() string {
	return d.Name + ": " + d.Message
}
