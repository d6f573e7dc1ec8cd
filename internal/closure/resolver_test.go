package closure

import (
	"reflect"
	"strings"
	"testing"

	"apiextract/internal/decl"
	"apiextract/internal/errors"
)

// fixture is a small graph under package "com.example" plus java.lang.Object.
type fixture struct {
	b      *decl.Builder
	pkg    decl.Handle
	object decl.Handle
}

func newFixture() *fixture {
	b := decl.NewBuilder()
	return &fixture{
		b:      b,
		pkg:    b.Package("com.example"),
		object: b.External("java.lang", decl.KindClass, decl.ModPublic, "Object"),
	}
}

func (f *fixture) class(name string, mods decl.Modifiers, enclosing decl.Handle) decl.Handle {
	if enclosing == decl.None {
		enclosing = f.pkg
	}
	return f.b.Add(decl.Decl{
		Kind: decl.KindClass, Name: name, Mods: mods, Enclosing: enclosing,
		Superclass: decl.Declared(f.object),
	})
}

func (f *fixture) method(owner decl.Handle, name string, mods decl.Modifiers, ret decl.TypeRef, params ...decl.TypeRef) decl.Handle {
	m := f.b.Add(decl.Decl{Kind: decl.KindMethod, Name: name, Mods: mods, Enclosing: owner, Return: ret})
	for i, p := range params {
		f.b.Add(decl.Decl{Kind: decl.KindParameter, Name: "arg" + string(rune('0'+i)), Enclosing: m, Type: p})
	}
	return m
}

func (f *fixture) ctor(owner decl.Handle, mods decl.Modifiers) decl.Handle {
	return f.b.Add(decl.Decl{Kind: decl.KindConstructor, Name: "<init>", Mods: mods, Enclosing: owner, Return: decl.Prim(decl.Void)})
}

func (f *fixture) field(owner decl.Handle, name string, mods decl.Modifiers, t decl.TypeRef) decl.Handle {
	return f.b.Add(decl.Decl{Kind: decl.KindField, Name: name, Mods: mods, Enclosing: owner, Type: t})
}

func (f *fixture) graph(t *testing.T) *decl.Graph {
	t.Helper()
	g, err := f.b.Graph()
	if err != nil {
		t.Fatalf("Graph() error: %v", err)
	}
	return g
}

func resolve(t *testing.T, g *decl.Graph, seeds ...Seed) (*Result, error) {
	t.Helper()
	r := NewResolver(g, Options{
		Scope:                 Scope{Base: []string{"com.example"}},
		IncludeMembersDefault: true,
	})
	return r.Resolve(seeds)
}

func mustResolve(t *testing.T, g *decl.Graph, seeds ...Seed) *Result {
	t.Helper()
	res, err := resolve(t, g, seeds...)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	return res
}

func TestResolve_FinalClassPolicy(t *testing.T) {
	f := newFixture()
	cls := f.class("F", decl.ModPublic|decl.ModFinal, decl.None)
	f.ctor(cls, decl.ModPublic)
	m := f.method(cls, "m", decl.ModPublic, decl.Prim(decl.Void))
	fld := f.field(cls, "f", decl.ModProtected, decl.Prim(decl.Int))
	g := f.graph(t)

	res := mustResolve(t, g, Seed{Decl: cls})

	if !res.Contains(m) {
		t.Error("public method m should be included")
	}
	if res.Contains(fld) {
		t.Error("protected field f of a final class should not be included")
	}
	st, _ := res.State(cls)
	if st.MemberModifiers != decl.ModPublic {
		t.Errorf("MemberModifiers = %v, want public", st.MemberModifiers)
	}
}

func TestResolve_SubclassablePolicy(t *testing.T) {
	f := newFixture()
	cls := f.class("C", decl.ModPublic, decl.None)
	f.ctor(cls, decl.ModPublic)
	p := f.method(cls, "p", decl.ModProtected, decl.Prim(decl.Void))
	priv := f.method(cls, "hidden", decl.ModPrivate, decl.Prim(decl.Void))
	g := f.graph(t)

	res := mustResolve(t, g, Seed{Decl: cls})

	if !res.Contains(p) {
		t.Error("protected method p of a subclassable class should be included")
	}
	if res.Contains(priv) {
		t.Error("private method should never be included")
	}
}

func TestMemberModifiers(t *testing.T) {
	f := newFixture()
	pubCtor := f.class("PubCtor", decl.ModPublic, decl.None)
	f.ctor(pubCtor, decl.ModProtected)
	privCtor := f.class("PrivCtor", decl.ModPublic, decl.None)
	f.ctor(privCtor, decl.ModPrivate)
	pkgPrivate := f.class("PkgPrivate", 0, decl.None)
	f.ctor(pkgPrivate, decl.ModPublic)
	itf := f.b.Add(decl.Decl{Kind: decl.KindInterface, Name: "I", Mods: decl.ModPublic | decl.ModAbstract, Enclosing: f.pkg})
	enum := f.b.Add(decl.Decl{Kind: decl.KindEnum, Name: "E", Mods: decl.ModPublic | decl.ModFinal, Enclosing: f.pkg})
	ann := f.b.Add(decl.Decl{Kind: decl.KindAnnotation, Name: "A", Mods: decl.ModPublic | decl.ModAbstract, Enclosing: f.pkg})
	fld := f.field(pubCtor, "x", decl.ModPublic, decl.Prim(decl.Int))
	g := f.graph(t)

	tests := []struct {
		name string
		h    decl.Handle
		want decl.Modifiers
	}{
		{"subclassable class", pubCtor, decl.ModPublic | decl.ModProtected},
		{"private constructors only", privCtor, decl.ModPublic},
		{"package-private class", pkgPrivate, decl.ModPublic},
		{"interface", itf, decl.ModPublic},
		{"enum", enum, decl.ModPublic},
		{"annotation", ann, decl.ModPublic},
		{"package", f.pkg, decl.ModPublic},
		{"field", fld, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := memberModifiers(g, tc.h); got != tc.want {
				t.Errorf("memberModifiers = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolve_SelfReferentialBound(t *testing.T) {
	f := newFixture()
	a := f.class("A", decl.ModPublic|decl.ModFinal, decl.None)
	tp := f.b.Add(decl.Decl{Kind: decl.KindTypeParameter, Name: "T", Enclosing: a})
	f.b.Decl(tp).Bounds = []decl.TypeRef{decl.Declared(a, decl.Var(tp))}
	self := f.method(a, "self", decl.ModPublic, decl.Var(tp), decl.Declared(a, decl.Var(tp)))
	g := f.graph(t)

	res := mustResolve(t, g, Seed{Decl: a})

	count := 0
	for _, h := range res.Handles() {
		if h == a {
			count++
		}
	}
	if count != 1 {
		t.Errorf("A appears %d times, want 1", count)
	}
	for _, h := range []decl.Handle{a, tp, self} {
		if !res.Contains(h) {
			t.Errorf("%s should be included", g.QualifiedName(h))
		}
	}
	st, _ := res.State(a)
	if !st.Progress.Has(EnclosingDone | KindDone | MembersDone) {
		t.Errorf("Progress = %b, want all steps done", st.Progress)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	f := newFixture()
	a := f.class("A", decl.ModPublic, decl.None)
	f.ctor(a, decl.ModPublic)
	b := f.class("B", decl.ModPublic, decl.None)
	f.method(a, "toB", decl.ModPublic, decl.Declared(b))
	f.method(b, "toA", decl.ModProtected, decl.Declared(a))
	g := f.graph(t)

	first := mustResolve(t, g, Seed{Decl: b}, Seed{Decl: a})
	second := mustResolve(t, g, Seed{Decl: a}, Seed{Decl: b})

	if !reflect.DeepEqual(first.Handles(), second.Handles()) {
		t.Fatalf("Handles differ:\n%v\n%v", first.Handles(), second.Handles())
	}
	for _, h := range first.Handles() {
		s1, _ := first.State(h)
		s2, _ := second.State(h)
		if !reflect.DeepEqual(s1, s2) {
			t.Errorf("state of %s differs: %+v vs %+v", g.QualifiedName(h), s1, s2)
		}
	}
}

func TestResolve_ScopeContainment(t *testing.T) {
	f := newFixture()
	other := f.b.Package("org.other")
	ext := f.b.Add(decl.Decl{Kind: decl.KindClass, Name: "Ext", Mods: decl.ModPublic, Enclosing: other})
	internal := f.b.Package("com.example.internal")
	hidden := f.b.Add(decl.Decl{Kind: decl.KindClass, Name: "Hidden", Mods: decl.ModPublic, Enclosing: internal})
	a := f.class("A", decl.ModPublic|decl.ModFinal, decl.None)
	f.method(a, "ext", decl.ModPublic, decl.Declared(ext))
	f.method(a, "hidden", decl.ModPublic, decl.Declared(hidden))
	g := f.graph(t)

	r := NewResolver(g, Options{
		Scope: Scope{Base: []string{"com.example"}, Exclude: []string{"com.example.internal"}},
	})
	res, err := r.Resolve([]Seed{{Decl: a}})
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range res.Handles() {
		scope := g.QualifiedName(g.NearestTypeOrPackage(h))
		if !(Scope{Base: []string{"com.example"}, Exclude: []string{"com.example.internal"}}).Contains(scope) {
			t.Errorf("%s is outside the scope", g.QualifiedName(h))
		}
	}
	if res.Contains(ext) || res.Contains(hidden) || res.Contains(f.object) {
		t.Error("out-of-scope types must not be included")
	}
}

func TestScope_Contains(t *testing.T) {
	s := Scope{Base: []string{"com.example", "org.lib"}, Exclude: []string{"com.example.impl"}}
	tests := []struct {
		name string
		want bool
	}{
		{"com.example", true},
		{"com.example.Api", true},
		{"com.examples.Api", false},
		{"com.example.impl", false},
		{"com.example.impl.Thing", false},
		{"com.example.implementation.Thing", true},
		{"org.lib.x.Y", true},
		{"com", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Contains(tc.name); got != tc.want {
				t.Errorf("Contains(%q) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestResolve_ExcludedAncestor(t *testing.T) {
	f := newFixture()
	outer := f.class("Outer", decl.ModPublic, decl.None)
	inner := f.class("Inner", decl.ModPublic|decl.ModStatic, outer)
	api := f.class("Api", decl.ModPublic|decl.ModFinal, decl.None)
	f.method(api, "use", decl.ModPublic, decl.Prim(decl.Void), decl.Declared(inner))
	g := f.graph(t)

	_, err := resolve(t, g, Seed{Decl: api}, Seed{Decl: outer, Excluded: true})
	if err == nil {
		t.Fatal("expected an excluded-ancestor error")
	}
	if !errors.Is(err, errors.ExcludedAncestor) {
		t.Errorf("error code = %v, want EXCLUDED_ANCESTOR", err)
	}
	if !strings.Contains(err.Error(), "com.example.Outer.Inner") {
		t.Errorf("error should name the nested declaration: %v", err)
	}
}

func TestResolve_ExcludedNeverIncluded(t *testing.T) {
	f := newFixture()
	api := f.class("Api", decl.ModPublic|decl.ModFinal, decl.None)
	secret := f.class("Secret", decl.ModPublic, decl.None)
	f.method(api, "secret", decl.ModPublic, decl.Declared(secret))
	g := f.graph(t)

	res := mustResolve(t, g, Seed{Decl: api}, Seed{Decl: secret, Excluded: true})
	if res.Contains(secret) {
		t.Error("excluded declaration must not be in the result")
	}
	for _, h := range res.Handles() {
		for _, anc := range g.Ancestors(h) {
			if anc == secret {
				t.Errorf("%s has an excluded ancestor", g.QualifiedName(h))
			}
		}
	}
}

func TestResolve_SeedConflict(t *testing.T) {
	f := newFixture()
	a := f.class("A", decl.ModPublic, decl.None)
	b := f.class("B", decl.ModPublic, decl.None)
	g := f.graph(t)

	_, err := resolve(t, g,
		Seed{Decl: a}, Seed{Decl: a, Excluded: true},
		Seed{Decl: b}, Seed{Decl: b, Excluded: true},
	)
	if !errors.Is(err, errors.SeedConflict) {
		t.Fatalf("error = %v, want SEED_CONFLICT", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "com.example.A") || !strings.Contains(msg, "com.example.B") {
		t.Errorf("all conflicts should be reported: %v", msg)
	}
}

func TestResolve_ScopeWarning(t *testing.T) {
	f := newFixture()
	other := f.b.Package("org.other")
	stray := f.b.Add(decl.Decl{Kind: decl.KindClass, Name: "Stray", Mods: decl.ModPublic, Enclosing: other})
	a := f.class("A", decl.ModPublic|decl.ModFinal, decl.None)
	g := f.graph(t)

	res := mustResolve(t, g, Seed{Decl: a}, Seed{Decl: stray})
	if res.Contains(stray) {
		t.Error("out-of-scope seed should be dropped")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != errors.ScopeViolation {
		t.Fatalf("Warnings = %+v, want one SCOPE_VIOLATION", res.Warnings)
	}
	if res.Warnings[0].Name != "org.other.Stray" {
		t.Errorf("warning names %q", res.Warnings[0].Name)
	}
}

func TestResolve_UnresolvedType(t *testing.T) {
	f := newFixture()
	a := f.class("A", decl.ModPublic|decl.ModFinal, decl.None)
	m := f.method(a, "broken", decl.ModPublic, decl.ArrayOf(decl.ErrorType("Missing")))
	g := f.graph(t)

	_, err := resolve(t, g, Seed{Decl: a})
	if !errors.Is(err, errors.UnresolvedType) {
		t.Fatalf("error = %v, want UNRESOLVED_TYPE", err)
	}
	msg := err.Error()
	for _, want := range []string{g.QualifiedName(m), "Missing", "required by com.example.A"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %q", msg, want)
		}
	}
}

func TestResolve_IncludeMembersPreference(t *testing.T) {
	build := func() (*fixture, decl.Handle, decl.Handle, decl.Handle, decl.Handle) {
		f := newFixture()
		outer := f.class("Outer", decl.ModPublic|decl.ModFinal, decl.None)
		nested := f.class("Nested", decl.ModPublic|decl.ModStatic|decl.ModFinal, outer)
		m := f.method(outer, "m", decl.ModPublic, decl.Prim(decl.Void))
		nm := f.method(nested, "n", decl.ModPublic, decl.Prim(decl.Void))
		return f, outer, nested, m, nm
	}

	tests := []struct {
		name          string
		pref          Tristate
		membersDef    bool
		wantMethod    bool
		wantNested    bool
		wantNestedMem bool
	}{
		{"explicit true", True, false, true, true, true},
		{"explicit false", False, true, false, false, false},
		{"default resolves true", Default, true, true, true, true},
		{"default resolves false", Default, false, false, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, outer, nested, m, nm := build()
			g := f.graph(t)
			r := NewResolver(g, Options{
				Scope:                 Scope{Base: []string{"com.example"}},
				IncludeMembersDefault: tc.membersDef,
			})
			res, err := r.Resolve([]Seed{{Decl: outer, IncludeMembers: tc.pref}})
			if err != nil {
				t.Fatal(err)
			}
			if got := res.Contains(m); got != tc.wantMethod {
				t.Errorf("method included = %v, want %v", got, tc.wantMethod)
			}
			if got := res.Contains(nested); got != tc.wantNested {
				t.Errorf("nested type included = %v, want %v", got, tc.wantNested)
			}
			if got := res.Contains(nm); got != tc.wantNestedMem {
				t.Errorf("nested member included = %v, want %v", got, tc.wantNestedMem)
			}
		})
	}
}

func TestResolve_ReferencedTypeSkipsNestedTypes(t *testing.T) {
	f := newFixture()
	api := f.class("Api", decl.ModPublic|decl.ModFinal, decl.None)
	ref := f.class("Ref", decl.ModPublic|decl.ModFinal, decl.None)
	refMethod := f.method(ref, "get", decl.ModPublic, decl.Prim(decl.Int))
	refNested := f.class("Inner", decl.ModPublic|decl.ModStatic, ref)
	f.method(api, "ref", decl.ModPublic, decl.Declared(ref))
	g := f.graph(t)

	res := mustResolve(t, g, Seed{Decl: api, IncludeMembers: True})
	if !res.Contains(ref) || !res.Contains(refMethod) {
		t.Error("referenced type and its public members should be included")
	}
	if res.Contains(refNested) {
		t.Error("nested types of a type with no explicit ancestor need an opt-in")
	}
}

func TestResolve_EnclosingEdge(t *testing.T) {
	f := newFixture()
	owner := f.class("Owner", decl.ModPublic, decl.None)
	f.ctor(owner, decl.ModPublic)
	m := f.method(owner, "only", decl.ModPublic, decl.Prim(decl.Void))
	g := f.graph(t)

	res := mustResolve(t, g, Seed{Decl: m})
	if !res.Contains(owner) {
		t.Fatal("owner of an included member must be included")
	}
	st, _ := res.State(owner)
	if !reflect.DeepEqual(st.Dependents, []decl.Handle{m}) {
		t.Errorf("owner dependents = %v, want [%v]", st.Dependents, m)
	}
}

func TestResolve_Dependents(t *testing.T) {
	f := newFixture()
	shared := f.class("Shared", decl.ModPublic|decl.ModFinal, decl.None)
	a := f.class("A", decl.ModPublic|decl.ModFinal, decl.None)
	b := f.class("B", decl.ModPublic|decl.ModFinal, decl.None)
	f.method(a, "s", decl.ModPublic, decl.Declared(shared))
	f.field(b, "s", decl.ModPublic, decl.Declared(shared))
	g := f.graph(t)

	res := mustResolve(t, g, Seed{Decl: b}, Seed{Decl: a})
	st, ok := res.State(shared)
	if !ok {
		t.Fatal("shared type should be included")
	}
	if !reflect.DeepEqual(st.Dependents, []decl.Handle{a, b}) {
		t.Errorf("Dependents = %v, want [%v %v]", st.Dependents, a, b)
	}
	sa, _ := res.State(a)
	if !reflect.DeepEqual(sa.Dependents, []decl.Handle{a}) {
		t.Errorf("seed A dependents = %v", sa.Dependents)
	}
}

func TestResolve_PackageSeed(t *testing.T) {
	f := newFixture()
	pub := f.class("Pub", decl.ModPublic|decl.ModFinal, decl.None)
	hidden := f.class("Hidden", decl.ModFinal, decl.None)
	g := f.graph(t)

	res := mustResolve(t, g, Seed{Decl: f.pkg})
	if !res.Contains(pub) {
		t.Error("public top-level type of a seeded package should be included")
	}
	if res.Contains(hidden) {
		t.Error("package-private type should not be included")
	}
	types := res.Types()
	if len(types) != 1 || types[0] != pub {
		t.Errorf("Types() = %v, want [%v]", types, pub)
	}
}

func TestParseTristate(t *testing.T) {
	tests := []struct {
		in      string
		want    Tristate
		wantErr bool
	}{
		{"", Default, false},
		{"DEFAULT", Default, false},
		{"true", True, false},
		{"FALSE", False, false},
		{"maybe", Default, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTristate(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseTristate(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestSplitPackageList(t *testing.T) {
	got := SplitPackageList("com.a, com.b  com.c,,com.d")
	want := []string{"com.a", "com.b", "com.c", "com.d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitPackageList = %v, want %v", got, want)
	}
}
