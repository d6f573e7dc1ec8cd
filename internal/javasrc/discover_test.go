package javasrc

import (
	"testing"

	"apiextract/internal/closure"
	"apiextract/internal/decl"
)

func TestDiscoverSeeds(t *testing.T) {
	b := decl.NewBuilder()
	ann := b.Package("apiextract.annotations")
	include := b.Add(decl.Decl{Kind: decl.KindAnnotation, Name: "PublicApi", Mods: decl.ModPublic, Enclosing: ann})
	exclude := b.Add(decl.Decl{Kind: decl.KindAnnotation, Name: "ExcludeApi", Mods: decl.ModPublic, Enclosing: ann})
	boolEnum := b.Add(decl.Decl{Kind: decl.KindEnum, Name: "DefaultableBoolean", Mods: decl.ModPublic, Enclosing: ann})

	pkg := b.Package("com.example")
	api := b.Add(decl.Decl{
		Kind: decl.KindClass, Name: "Api", Mods: decl.ModPublic, Enclosing: pkg,
		Annotations: []decl.Annotation{{Type: include, Values: []decl.ElementValue{
			{Name: "includeMembers", Value: decl.EnumValue(boolEnum, "FALSE")},
		}}},
	})
	field := b.Add(decl.Decl{
		Kind: decl.KindField, Name: "X", Mods: decl.ModPublic | decl.ModStatic | decl.ModFinal, Enclosing: api,
		Annotations: []decl.Annotation{{Type: include, Values: []decl.ElementValue{
			{Name: "unconstantize", Value: decl.ConstValue(decl.BoolConst(true))},
		}}},
	})
	both := b.Add(decl.Decl{
		Kind: decl.KindMethod, Name: "both", Mods: decl.ModPublic, Enclosing: api,
		Annotations: []decl.Annotation{{Type: include}, {Type: exclude}},
	})
	b.Add(decl.Decl{Kind: decl.KindMethod, Name: "plain", Mods: decl.ModPublic, Enclosing: api})
	g, err := b.Graph()
	if err != nil {
		t.Fatal(err)
	}

	got := discoverSeeds(g, "apiextract.annotations.PublicApi", "apiextract.annotations.ExcludeApi")
	want := []closure.Seed{
		{Decl: api, IncludeMembers: closure.False},
		{Decl: field, Unconstantize: closure.True},
		{Decl: both},
		{Decl: both, Excluded: true},
	}
	if len(got) != len(want) {
		t.Fatalf("seeds = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("seed %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if seeds := discoverSeeds(g, "other.Include", "other.Exclude"); len(seeds) != 0 {
		t.Errorf("unknown markers should find nothing, got %+v", seeds)
	}
}
