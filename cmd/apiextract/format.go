package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"apiextract/internal/closure"
	"apiextract/internal/decl"
	"apiextract/internal/docwarn"
	"apiextract/internal/sink"
	"apiextract/internal/storage"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *ExtractResponseCLI:
		return formatExtractHuman(v), nil
	case *ClosureResponseCLI:
		return formatClosureHuman(v), nil
	case *StaleResponseCLI:
		return formatStaleHuman(v), nil
	case *InspectResponseCLI:
		return formatInspectHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

// ExtractResponseCLI summarizes an extract run
type ExtractResponseCLI struct {
	RunID        string               `json:"runId,omitempty"`
	Seeds        int                  `json:"seeds"`
	Declarations int                  `json:"declarations"`
	Artifacts    []ArtifactCLI        `json:"artifacts"`
	Warnings     []closure.Diagnostic `json:"warnings,omitempty"`
	DocWarnings  []docwarn.Warning    `json:"docWarnings,omitempty"`
	DurationMs   int64                `json:"durationMs"`
}

// ArtifactCLI is one written artifact
type ArtifactCLI struct {
	Location     string   `json:"location"`
	Path         string   `json:"path"`
	BinaryName   string   `json:"binaryName"`
	Dependencies []string `json:"dependencies,omitempty"`
	SHA256       string   `json:"sha256,omitempty"`
	RunID        string   `json:"runId,omitempty"`
}

func artifactFromResource(r sink.Resource) ArtifactCLI {
	return ArtifactCLI{
		Location:     r.Location,
		Path:         r.Path(),
		BinaryName:   r.BinaryName,
		Dependencies: r.Dependencies,
	}
}

func artifactFromRecord(a storage.ArtifactRecord) ArtifactCLI {
	path := a.File
	if a.Package != "" {
		path = a.Package + "/" + a.File
	}
	return ArtifactCLI{
		Location:     a.Location,
		Path:         path,
		BinaryName:   a.BinaryName,
		Dependencies: a.Dependencies,
		SHA256:       a.SHA256,
		RunID:        a.RunID,
	}
}

func formatExtractHuman(r *ExtractResponseCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extracted %d artifact(s) from %d seed(s), %d declaration(s) in the closure\n",
		len(r.Artifacts), r.Seeds, r.Declarations)
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	}
	if len(r.Artifacts) > 0 {
		b.WriteString("\nArtifacts:\n")
		for _, a := range r.Artifacts {
			fmt.Fprintf(&b, "  %s/%s\n", a.Location, a.Path)
		}
	}
	writeDiagnostics(&b, r.Warnings)
	if len(r.DocWarnings) > 0 {
		fmt.Fprintf(&b, "\nUndocumented (%d):\n", len(r.DocWarnings))
		for _, w := range r.DocWarnings {
			fmt.Fprintf(&b, "  %-12s %s\n", w.Kind, w.Name)
		}
	}
	fmt.Fprintf(&b, "\n(took %dms)", r.DurationMs)
	return b.String()
}

// ClosureResponseCLI lists the closure of a seed set
type ClosureResponseCLI struct {
	Seeds        []SeedCLI            `json:"seeds"`
	Declarations []DeclarationCLI     `json:"declarations"`
	Warnings     []closure.Diagnostic `json:"warnings,omitempty"`
}

// SeedCLI is one included seed
type SeedCLI struct {
	Kind           string `json:"kind"`
	Name           string `json:"name"`
	IncludeMembers string `json:"includeMembers"`
	Unconstantize  string `json:"unconstantize"`
}

// DeclarationCLI is one declaration of the closure
type DeclarationCLI struct {
	Kind            string   `json:"kind"`
	Name            string   `json:"name"`
	MemberModifiers []string `json:"memberModifiers,omitempty"`
	Dependents      []string `json:"dependents"`
}

func convertClosure(res *closure.Result) *ClosureResponseCLI {
	g := res.Graph()
	resp := &ClosureResponseCLI{
		Seeds:        []SeedCLI{},
		Declarations: []DeclarationCLI{},
		Warnings:     res.Warnings,
	}
	for _, h := range res.Seeds() {
		s, _ := res.Seed(h)
		resp.Seeds = append(resp.Seeds, SeedCLI{
			Kind:           g.Kind(h).String(),
			Name:           g.QualifiedName(h),
			IncludeMembers: s.IncludeMembers.String(),
			Unconstantize:  s.Unconstantize.String(),
		})
	}
	for _, h := range res.Handles() {
		st, _ := res.State(h)
		resp.Declarations = append(resp.Declarations, DeclarationCLI{
			Kind:            g.Kind(h).String(),
			Name:            g.QualifiedName(h),
			MemberModifiers: st.MemberModifiers.Names(),
			Dependents:      qualifiedNames(g, st.Dependents),
		})
	}
	return resp
}

func qualifiedNames(g *decl.Graph, hs []decl.Handle) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = g.QualifiedName(h)
	}
	return out
}

func formatClosureHuman(r *ClosureResponseCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Seeds (%d):\n", len(r.Seeds))
	for _, s := range r.Seeds {
		fmt.Fprintf(&b, "  %-14s %s (includeMembers=%s, unconstantize=%s)\n",
			s.Kind, s.Name, s.IncludeMembers, s.Unconstantize)
	}
	fmt.Fprintf(&b, "\nClosure (%d):\n", len(r.Declarations))
	for _, d := range r.Declarations {
		fmt.Fprintf(&b, "  %-14s %s", d.Kind, d.Name)
		if len(d.MemberModifiers) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(d.MemberModifiers, "|"))
		}
		if len(d.Dependents) > 0 {
			fmt.Fprintf(&b, " <- %s", strings.Join(d.Dependents, ", "))
		}
		b.WriteString("\n")
	}
	writeDiagnostics(&b, r.Warnings)
	return strings.TrimRight(b.String(), "\n")
}

func writeDiagnostics(b *strings.Builder, diags []closure.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(b, "\nWarnings (%d):\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(b, "  [%s] %s\n", d.Code, d)
	}
}

// StaleResponseCLI lists the artifacts invalidated by changed seeds
type StaleResponseCLI struct {
	Seeds     []string      `json:"seeds"`
	Artifacts []ArtifactCLI `json:"artifacts"`
}

func formatStaleHuman(r *StaleResponseCLI) string {
	if len(r.Artifacts) == 0 {
		return fmt.Sprintf("No recorded artifacts depend on %s", strings.Join(r.Seeds, ", "))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d stale artifact(s):\n", len(r.Artifacts))
	for _, a := range r.Artifacts {
		fmt.Fprintf(&b, "  %s/%s (%s)\n", a.Location, a.Path, strings.Join(a.Dependencies, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
