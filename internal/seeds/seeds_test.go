package seeds

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apiextract/internal/closure"
	"apiextract/internal/decl"
	"apiextract/internal/errors"
)

func testGraph(t *testing.T) (*decl.Graph, map[string]decl.Handle) {
	t.Helper()
	b := decl.NewBuilder()
	pkg := b.Package("com.example")
	obj := b.External("java.lang", decl.KindClass, decl.ModPublic, "Object")
	client := b.Add(decl.Decl{Kind: decl.KindClass, Name: "Client", Mods: decl.ModPublic, Enclosing: pkg, Superclass: decl.Declared(obj)})
	inner := b.Add(decl.Decl{Kind: decl.KindClass, Name: "Internal", Mods: decl.ModPublic | decl.ModStatic, Enclosing: client, Superclass: decl.Declared(obj)})
	max := b.Add(decl.Decl{Kind: decl.KindField, Name: "MAX", Mods: decl.ModPublic | decl.ModStatic | decl.ModFinal,
		Enclosing: client, Type: decl.Prim(decl.Int), Constant: decl.IntConst(3)})
	send1 := b.Add(decl.Decl{Kind: decl.KindMethod, Name: "send", Mods: decl.ModPublic, Enclosing: client, Return: decl.Prim(decl.Void)})
	send2 := b.Add(decl.Decl{Kind: decl.KindMethod, Name: "send", Mods: decl.ModPublic, Enclosing: client, Return: decl.Prim(decl.Void)})
	b.Add(decl.Decl{Kind: decl.KindParameter, Name: "n", Enclosing: send2, Type: decl.Prim(decl.Int)})
	g, err := b.Graph()
	if err != nil {
		t.Fatal(err)
	}
	return g, map[string]decl.Handle{
		"pkg": pkg, "client": client, "inner": inner, "max": max, "send1": send1, "send2": send2,
	}
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte(`
[[include]]
name = "com.example.Client"
includeMembers = "TRUE"

[[include]]
name = "com.example.Client#MAX"
unconstantize = "true"

[[exclude]]
name = "com.example.Client.Internal"
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(m.Include) != 2 || len(m.Exclude) != 1 || m.Len() != 3 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if m.Include[0].IncludeMembers != "TRUE" || m.Include[1].Unconstantize != "true" {
		t.Errorf("entries = %+v", m.Include)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "[[include]]\nname = \"a\"\nmembers = true\n"},
		{"syntax", "[[include]\nname = \"a\"\n"},
		{"wrong type", "include = 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); !errors.Is(err, errors.ConfigInvalid) {
				t.Errorf("expected CONFIG_INVALID, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "seeds.toml"))
	if err != nil || m.Len() != 0 {
		t.Fatalf("missing manifest should be empty: %v %+v", err, m)
	}

	path := filepath.Join(t.TempDir(), "seeds.toml")
	if err := os.WriteFile(path, []byte("[[exclude]]\nname = \"com.example\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m, err = Load(path)
	if err != nil || len(m.Exclude) != 1 {
		t.Fatalf("Load = %+v, %v", m, err)
	}
}

func TestManifest_Seeds(t *testing.T) {
	g, h := testGraph(t)
	m := &Manifest{
		Include: []Entry{
			{Name: "com.example.Client", IncludeMembers: "FALSE"},
			{Name: "com.example.Client#MAX", Unconstantize: "TRUE"},
			{Name: "com.example.Client#send"},
			{Name: "com.example"},
		},
		Exclude: []Entry{{Name: "com.example.Client.Internal"}},
	}
	seeds, err := m.Seeds(g)
	if err != nil {
		t.Fatalf("Seeds failed: %v", err)
	}
	want := []closure.Seed{
		{Decl: h["client"], IncludeMembers: closure.False},
		{Decl: h["max"], Unconstantize: closure.True},
		{Decl: h["send1"]},
		{Decl: h["send2"]},
		{Decl: h["pkg"]},
		{Decl: h["inner"], Excluded: true},
	}
	if len(seeds) != len(want) {
		t.Fatalf("got %d seeds, want %d: %+v", len(seeds), len(want), seeds)
	}
	for i := range want {
		if seeds[i] != want[i] {
			t.Errorf("seed %d = %+v, want %+v", i, seeds[i], want[i])
		}
	}
}

func TestManifest_SeedsUnknownNames(t *testing.T) {
	g, _ := testGraph(t)
	m := &Manifest{
		Include: []Entry{
			{Name: "com.example.Missing"},
			{Name: "com.example.Client#nothing"},
			{Name: "com.example.Client", IncludeMembers: "maybe"},
		},
		Exclude: []Entry{{Name: "com.example#Client"}},
	}
	_, err := m.Seeds(g)
	if !errors.Is(err, errors.ConfigInvalid) {
		t.Fatalf("expected CONFIG_INVALID, got %v", err)
	}
	for _, name := range []string{"com.example.Missing", "Client#nothing", "includeMembers", "com.example#Client"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should mention %s: %v", name, err)
		}
	}
}

func TestMerge(t *testing.T) {
	g, h := testGraph(t)
	discovered := []closure.Seed{
		{Decl: h["client"], IncludeMembers: closure.True},
		{Decl: h["max"]},
	}
	manifest := []closure.Seed{
		{Decl: h["max"], Unconstantize: closure.True},
		{Decl: h["client"]},
		{Decl: h["inner"], Excluded: true},
		{Decl: h["client"], Excluded: true},
	}

	got := Merge(g, discovered, manifest)
	want := []closure.Seed{
		{Decl: h["client"], IncludeMembers: closure.True},
		{Decl: h["client"], Excluded: true},
		{Decl: h["inner"], Excluded: true},
		{Decl: h["max"], Unconstantize: closure.True},
	}
	if len(got) != len(want) {
		t.Fatalf("Merge = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("seed %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// Explicit manifest values override discovered ones.
	over := Merge(g, discovered, []closure.Seed{{Decl: h["client"], IncludeMembers: closure.False}})
	if over[0].IncludeMembers != closure.False {
		t.Errorf("manifest should override: %+v", over[0])
	}
}
