//go:build cgo

package javasrc

import (
	"context"
	"sort"
	"strings"
	"testing"

	"apiextract/internal/closure"
	"apiextract/internal/decl"
	"apiextract/internal/errors"
)

const serviceSrc = `package com.example;

/** Entry point. */
public interface Service {
    int LIMIT = 10;
    void run();
    default void stop() {}
    static Service create() { return null; }
    class Impl {}
    enum Mode { ON, OFF }
    @interface Marker {}
}
`

const registrySrc = `package com.example;

import java.util.List;
import java.util.Map;

public class Registry<T extends Comparable<T>> extends Base implements Iterable<T> {
    public static final long BIG = 1L << 40;
    public static final String NAME = "reg" + BIG;
    public static final int MASK = ~0 >>> 4;
    public static final char C = 'a' + 1;
    public static final double HALF = 1 / 2.0;
    public static final byte SMALL = (byte) 300;
    public static final int REF = Base.SIZE * 2;
    public static final boolean ON = REF > 10 && !false;
    public final int notStatic = 3;
    public static int notFinal = 4;
    public static final int CYCLE_A = CYCLE_B + 1;
    public static final int CYCLE_B = CYCLE_A + 1;
    public List<? extends T> items;
    public Map.Entry<String, T> entry;
    public Missing broken;

    protected <R> R map(T... values) throws java.io.IOException { return null; }
}

class Base {
    static final int SIZE = 8;
}
`

const opSrc = `package com.example;

public enum Op {
    PLUS { },
    MINUS;

    Op() {}
}
`

func parseSources(t *testing.T, files map[string]string) (*Result, error) {
	t.Helper()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var sources []Source
	for _, p := range paths {
		sources = append(sources, Source{Path: p, Data: []byte(files[p])})
	}
	return NewParser(Options{
		IncludeAnnotation: "apiextract.annotations.PublicApi",
		ExcludeAnnotation: "apiextract.annotations.ExcludeApi",
	}).Parse(context.Background(), sources)
}

func mustParse(t *testing.T, files map[string]string) *Result {
	t.Helper()
	res, err := parseSources(t, files)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			t.Fatalf("Parse failed: %v %v", err, e.Details)
		}
		t.Fatalf("Parse failed: %v", err)
	}
	return res
}

func lookup(t *testing.T, g *decl.Graph, name string) decl.Handle {
	t.Helper()
	h, ok := g.Lookup(name)
	if !ok {
		t.Fatalf("%s not declared", name)
	}
	return h
}

func member(t *testing.T, g *decl.Graph, owner decl.Handle, name string) decl.Handle {
	t.Helper()
	ms := g.MembersNamed(owner, name)
	if len(ms) != 1 {
		t.Fatalf("expected one member %s, got %d", name, len(ms))
	}
	return ms[0]
}

func TestParse_ImplicitModifiers(t *testing.T) {
	res := mustParse(t, map[string]string{"Service.java": serviceSrc, "Op.java": opSrc})
	g := res.Graph
	svc := lookup(t, g, "com.example.Service")
	if !g.HasDoc(svc) {
		t.Error("Service should have documentation")
	}

	tests := []struct {
		name    string
		h       decl.Handle
		has     decl.Modifiers
		hasNot  decl.Modifiers
		wantKnd decl.Kind
	}{
		{"interface", svc, decl.ModPublic | decl.ModAbstract, 0, decl.KindInterface},
		{"field", member(t, g, svc, "LIMIT"), decl.ModPublic | decl.ModStatic | decl.ModFinal, 0, decl.KindField},
		{"abstract method", member(t, g, svc, "run"), decl.ModPublic | decl.ModAbstract, 0, decl.KindMethod},
		{"default method", member(t, g, svc, "stop"), decl.ModPublic | decl.ModDefault, decl.ModAbstract, decl.KindMethod},
		{"static method", member(t, g, svc, "create"), decl.ModPublic | decl.ModStatic, decl.ModAbstract, decl.KindMethod},
		{"member class", lookup(t, g, "com.example.Service.Impl"), decl.ModPublic | decl.ModStatic, 0, decl.KindClass},
		{"member enum", lookup(t, g, "com.example.Service.Mode"), decl.ModPublic | decl.ModStatic | decl.ModFinal, 0, decl.KindEnum},
		{"member annotation", lookup(t, g, "com.example.Service.Marker"), decl.ModPublic | decl.ModStatic | decl.ModAbstract, 0, decl.KindAnnotation},
		{"enum with bodies", lookup(t, g, "com.example.Op"), decl.ModPublic, decl.ModFinal, decl.KindEnum},
		{"enum constant", member(t, g, lookup(t, g, "com.example.Op"), "PLUS"), decl.ModPublic | decl.ModStatic | decl.ModFinal, 0, decl.KindEnumConstant},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mods := g.Modifiers(tc.h)
			if !mods.Has(tc.has) || mods.Any(tc.hasNot) {
				t.Errorf("modifiers = %s, want %s without %s", mods, tc.has, tc.hasNot)
			}
			if g.Kind(tc.h) != tc.wantKnd {
				t.Errorf("kind = %s, want %s", g.Kind(tc.h), tc.wantKnd)
			}
		})
	}

	if c, ok := g.ConstantValue(member(t, g, svc, "LIMIT")); !ok || c != decl.IntConst(10) {
		t.Errorf("LIMIT = %v, %v", c, ok)
	}

	impl := lookup(t, g, "com.example.Service.Impl")
	ctors := g.Constructors(impl)
	if len(ctors) != 1 || !g.IsImplicit(ctors[0]) || g.Modifiers(ctors[0]) != decl.ModPublic {
		t.Errorf("Impl should get an implicit public constructor, got %v", ctors)
	}

	mode := lookup(t, g, "com.example.Service.Mode")
	ctors = g.Constructors(mode)
	if len(ctors) != 1 || g.Modifiers(ctors[0]) != decl.ModPrivate {
		t.Errorf("enum constructor should be private")
	}
	valueOf := member(t, g, mode, "valueOf")
	if !g.IsImplicit(valueOf) || !g.Modifiers(valueOf).Has(decl.ModPublic|decl.ModStatic) {
		t.Error("valueOf should be implicit public static")
	}
	params := g.Parameters(valueOf)
	if len(params) != 1 || g.QualifiedName(g.DeclaredType(params[0]).Decl) != "java.lang.String" {
		t.Error("valueOf should take a String")
	}
	values := member(t, g, mode, "values")
	if rt := g.ReturnType(values); rt.Kind != decl.TypeArray || rt.Elem.Decl != mode {
		t.Errorf("values() returns %+v", rt)
	}

	op := lookup(t, g, "com.example.Op")
	ctors = g.Constructors(op)
	if len(ctors) != 1 || g.IsImplicit(ctors[0]) || g.Modifiers(ctors[0]) != decl.ModPrivate {
		t.Error("explicit enum constructor should be private")
	}
}

func TestParse_Types(t *testing.T) {
	res := mustParse(t, map[string]string{"Registry.java": registrySrc})
	g := res.Graph
	reg := lookup(t, g, "com.example.Registry")

	if sc := g.Superclass(reg); sc.Kind != decl.TypeDeclared || g.QualifiedName(sc.Decl) != "com.example.Base" {
		t.Errorf("superclass = %+v", sc)
	}
	ifaces := g.Interfaces(reg)
	if len(ifaces) != 1 || g.QualifiedName(ifaces[0].Decl) != "java.lang.Iterable" || len(ifaces[0].Args) != 1 {
		t.Errorf("interfaces = %+v", ifaces)
	}
	tps := g.TypeParameters(reg)
	if len(tps) != 1 || len(g.Bounds(tps[0])) != 1 {
		t.Fatalf("type parameters = %v", tps)
	}
	if b := g.Bounds(tps[0])[0]; g.QualifiedName(b.Decl) != "java.lang.Comparable" || b.Args[0].Kind != decl.TypeVariable {
		t.Errorf("bound = %+v", b)
	}

	items := g.DeclaredType(member(t, g, reg, "items"))
	if g.QualifiedName(items.Decl) != "java.util.List" || items.Args[0].Kind != decl.TypeWildcard ||
		items.Args[0].Extends == nil || items.Args[0].Extends.Decl != tps[0] {
		t.Errorf("items = %+v", items)
	}
	entry := g.DeclaredType(member(t, g, reg, "entry"))
	if g.QualifiedName(entry.Decl) != "java.util.Map.Entry" || len(entry.Args) != 2 {
		t.Errorf("entry = %+v", entry)
	}
	if broken := g.DeclaredType(member(t, g, reg, "broken")); broken.Kind != decl.TypeError || broken.Name != "Missing" {
		t.Errorf("broken = %+v", broken)
	}

	m := member(t, g, reg, "map")
	if !g.IsVarargs(m) || !g.Modifiers(m).Has(decl.ModProtected) {
		t.Error("map should be protected varargs")
	}
	params := g.Parameters(m)
	if len(params) != 1 || g.Name(params[0]) != "values" {
		t.Fatalf("params = %v", params)
	}
	if pt := g.DeclaredType(params[0]); pt.Kind != decl.TypeArray || pt.Elem.Decl != tps[0] {
		t.Errorf("varargs parameter type = %+v", pt)
	}
	if rt := g.ReturnType(m); rt.Kind != decl.TypeVariable || g.Name(rt.Decl) != "R" {
		t.Errorf("return type = %+v", rt)
	}
	thrown := g.ThrownTypes(m)
	if len(thrown) != 1 || g.QualifiedName(thrown[0].Decl) != "java.io.IOException" {
		t.Errorf("thrown = %+v", thrown)
	}

	base := lookup(t, g, "com.example.Base")
	ctors := g.Constructors(base)
	if len(ctors) != 1 || !g.IsImplicit(ctors[0]) || g.Modifiers(ctors[0]) != 0 {
		t.Error("package-private class should get a package-private implicit constructor")
	}
}

func TestParse_Constants(t *testing.T) {
	res := mustParse(t, map[string]string{"Registry.java": registrySrc})
	g := res.Graph
	reg := lookup(t, g, "com.example.Registry")

	tests := []struct {
		field string
		want  decl.Constant
	}{
		{"BIG", decl.LongConst(1 << 40)},
		{"NAME", decl.StringConst("reg1099511627776")},
		{"MASK", decl.IntConst(0x0FFFFFFF)},
		{"C", decl.CharConst('b')},
		{"HALF", decl.DoubleConst(0.5)},
		{"SMALL", decl.Constant{Kind: decl.ConstByte, I: 44}},
		{"REF", decl.IntConst(16)},
		{"ON", decl.BoolConst(true)},
		{"notStatic", decl.IntConst(3)},
	}
	for _, tc := range tests {
		t.Run(tc.field, func(t *testing.T) {
			got, ok := g.ConstantValue(member(t, g, reg, tc.field))
			if !ok || got != tc.want {
				t.Errorf("%s = %+v (%v), want %+v", tc.field, got, ok, tc.want)
			}
		})
	}
	for _, name := range []string{"notFinal", "CYCLE_A", "CYCLE_B", "items"} {
		if c, ok := g.ConstantValue(member(t, g, reg, name)); ok {
			t.Errorf("%s should not be a constant, got %v", name, c)
		}
	}
}

func TestParse_Annotations(t *testing.T) {
	files := map[string]string{
		"ann/Tag.java": `package com.example.ann;

import java.lang.annotation.Retention;
import java.lang.annotation.RetentionPolicy;

@Retention(RetentionPolicy.RUNTIME)
public @interface Tag {
    String name();
    Level level() default Level.LOW;
    int[] sizes() default {1, 2};
    Class<?> type() default Object.class;
    long big() default 1;
}
`,
		"ann/Level.java": `package com.example.ann;

public enum Level { LOW, HIGH }
`,
		"ann/Tagged.java": `package com.example.ann;

@Tag(name = "x", sizes = 3, level = Level.HIGH)
@Deprecated
public class Tagged {
    @Tag(name = "f") public int f;

    /**
     * Old.
     * @deprecated use f
     */
    public void old() {}
}
`,
	}
	res := mustParse(t, files)
	g := res.Graph
	tag := lookup(t, g, "com.example.ann.Tag")
	level := lookup(t, g, "com.example.ann.Level")

	if g.Kind(tag) != decl.KindAnnotation || g.Retention(tag) != decl.RetentionRuntime {
		t.Errorf("Tag kind %s retention %s", g.Kind(tag), g.Retention(tag))
	}
	if ifaces := g.Interfaces(tag); len(ifaces) != 1 || g.QualifiedName(ifaces[0].Decl) != "java.lang.annotation.Annotation" {
		t.Errorf("annotation interfaces = %+v", ifaces)
	}
	name := member(t, g, tag, "name")
	if !g.Modifiers(name).Has(decl.ModPublic | decl.ModAbstract) {
		t.Errorf("element modifiers = %s", g.Modifiers(name))
	}
	if _, ok := g.AnnotationDefault(name); ok {
		t.Error("name has no default")
	}

	if d, ok := g.AnnotationDefault(member(t, g, tag, "level")); !ok || d.Kind != decl.ValueEnum || d.EnumType != level || d.EnumName != "LOW" {
		t.Errorf("level default = %+v", d)
	}
	if d, _ := g.AnnotationDefault(member(t, g, tag, "sizes")); d.Kind != decl.ValueArray || len(d.Elems) != 2 || d.Elems[1].Const != decl.IntConst(2) {
		t.Errorf("sizes default = %+v", d)
	}
	if d, _ := g.AnnotationDefault(member(t, g, tag, "type")); d.Kind != decl.ValueClass || g.QualifiedName(d.Type.Decl) != "java.lang.Object" {
		t.Errorf("type default = %+v", d)
	}
	if d, _ := g.AnnotationDefault(member(t, g, tag, "big")); d.Const != decl.LongConst(1) {
		t.Errorf("big default = %+v", d)
	}

	tagged := lookup(t, g, "com.example.ann.Tagged")
	if !g.IsDeprecated(tagged) {
		t.Error("@Deprecated should mark Tagged deprecated")
	}
	a, ok := g.FindAnnotation(tagged, tag)
	if !ok {
		t.Fatal("Tagged should carry @Tag")
	}
	if v, _ := a.Value("name"); v.Const != decl.StringConst("x") {
		t.Errorf("name = %+v", v)
	}
	if v, _ := a.Value("sizes"); v.Kind != decl.ValueArray || len(v.Elems) != 1 || v.Elems[0].Const != decl.IntConst(3) {
		t.Errorf("sizes = %+v", v)
	}
	if v, _ := a.Value("level"); v.Kind != decl.ValueEnum || v.EnumName != "HIGH" {
		t.Errorf("level = %+v", v)
	}
	if !g.HasAnnotation(member(t, g, tagged, "f"), tag) {
		t.Error("field f should carry @Tag")
	}
	old := member(t, g, tagged, "old")
	if !g.HasDoc(old) || !g.IsDeprecated(old) {
		t.Error("@deprecated javadoc tag should mark old deprecated")
	}
}

func TestParse_Seeds(t *testing.T) {
	files := map[string]string{
		"ann/PublicApi.java": `package apiextract.annotations;

public @interface PublicApi {
    DefaultableBoolean includeMembers() default DefaultableBoolean.DEFAULT;
    DefaultableBoolean unconstantize() default DefaultableBoolean.DEFAULT;
}
`,
		"ann/ExcludeApi.java": `package apiextract.annotations;

public @interface ExcludeApi {}
`,
		"ann/DefaultableBoolean.java": `package apiextract.annotations;

public enum DefaultableBoolean { TRUE, FALSE, DEFAULT }
`,
		"src/Api.java": `package com.example;

import apiextract.annotations.*;

@PublicApi(includeMembers = DefaultableBoolean.FALSE)
public class Api {
    @PublicApi(unconstantize = DefaultableBoolean.TRUE)
    public static final int X = 1;

    @ExcludeApi
    public void hidden() {}
}
`,
	}
	res := mustParse(t, files)
	g := res.Graph
	api := lookup(t, g, "com.example.Api")
	want := []closure.Seed{
		{Decl: api, IncludeMembers: closure.False},
		{Decl: member(t, g, api, "X"), Unconstantize: closure.True},
		{Decl: member(t, g, api, "hidden"), Excluded: true},
	}
	if len(res.Seeds) != len(want) {
		t.Fatalf("seeds = %+v, want %+v", res.Seeds, want)
	}
	for i := range want {
		if res.Seeds[i] != want[i] {
			t.Errorf("seed %d = %+v, want %+v", i, res.Seeds[i], want[i])
		}
	}
	if res.Files != 4 {
		t.Errorf("Files = %d", res.Files)
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"syntax error", map[string]string{"Broken.java": "package p;\n\nclass {\n"}, "Broken.java"},
		{"unknown annotation", map[string]string{"A.java": "package p;\n@Missing\nclass A {}\n"}, "unknown annotation type Missing"},
		{"duplicate type", map[string]string{
			"a/A.java": "package p;\nclass A {}\n",
			"b/A.java": "package p;\nclass A {}\n",
		}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseSources(t, tc.files)
			if !errors.Is(err, errors.SourceParseFailed) {
				t.Fatalf("error = %v, want SOURCE_PARSE_FAILED", err)
			}
			if tc.want == "" {
				return
			}
			e := err.(*errors.Error)
			details, _ := e.Details.([]string)
			if !strings.Contains(strings.Join(details, "\n"), tc.want) {
				t.Errorf("details %v do not mention %q", details, tc.want)
			}
		})
	}
}

func TestParse_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewParser(Options{}).Parse(ctx, []Source{{Path: "A.java", Data: []byte("class A {}")}})
	if err == nil {
		t.Error("Parse should fail on a canceled context")
	}
}

func TestParse_InheritedMemberTypes(t *testing.T) {
	files := map[string]string{
		"ann/PublicApi.java": `package apiextract.annotations;

public @interface PublicApi {}
`,
		"ATree.java": `package com.example;

import apiextract.annotations.PublicApi;

@PublicApi
public class Tree extends Base {
    public Node root() { return null; }
    public Edge edge() { return null; }
    public static class Leaf extends Node {}
}
`,
		"Base.java": `package com.example;

public class Base extends Root implements Shape {
    public static class Node {}
}
`,
		"Root.java": `package com.example;

public class Root {
    public interface Visitor {}
}
`,
		"Shape.java": `package com.example;

public interface Shape {
    interface Edge {}
}
`,
		"Walker.java": `package com.example;

public class Walker extends Tree {
    public Visitor visitor() { return null; }
}
`,
	}
	res := mustParse(t, files)
	g := res.Graph
	tree := lookup(t, g, "com.example.Tree")

	tests := []struct {
		owner  string
		method string
		want   string
	}{
		{"com.example.Tree", "root", "com.example.Base.Node"},
		{"com.example.Tree", "edge", "com.example.Shape.Edge"},
		{"com.example.Walker", "visitor", "com.example.Root.Visitor"},
	}
	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			rt := g.ReturnType(member(t, g, lookup(t, g, tc.owner), tc.method))
			if rt.Kind != decl.TypeDeclared || g.QualifiedName(rt.Decl) != tc.want {
				t.Errorf("%s() returns %+v, want %s", tc.method, rt, tc.want)
			}
		})
	}
	leaf := lookup(t, g, "com.example.Tree.Leaf")
	if sc := g.Superclass(leaf); g.QualifiedName(sc.Decl) != "com.example.Base.Node" {
		t.Errorf("Leaf superclass = %+v", sc)
	}

	closed, err := closure.NewResolver(g, closure.Options{
		Scope:                 closure.Scope{Base: []string{"com.example"}},
		IncludeMembersDefault: true,
	}).Resolve(res.Seeds)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !closed.Contains(tree) || !closed.Contains(lookup(t, g, "com.example.Base.Node")) {
		t.Error("Tree and the inherited Node should be in the closure")
	}
}
