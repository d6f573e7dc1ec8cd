// Package snapshot loads declaration graphs from YAML (or JSON) documents.
//
// A snapshot lists packages, their types and members the way a compiler
// front end would see them, with types written as Java-like type
// expressions:
//
//	packages:
//	  - name: com.example
//	    types:
//	      - name: Registry
//	        kind: class
//	        modifiers: [public]
//	        typeParameters:
//	          - {name: T, bounds: ["java.lang.Comparable<T>"]}
//	        methods:
//	          - name: find
//	            modifiers: [public]
//	            returns: "java.util.List<? extends T>"
//	            parameters: [{name: key, type: String}]
//	externals:
//	  - {name: java.util.List, kind: interface}
//	seeds:
//	  include: [{name: com.example.Registry}]
//
// Names that resolve to nothing become error types, which the closure
// reports as unresolved when a seed reaches them.
package snapshot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"apiextract/internal/closure"
	"apiextract/internal/decl"
	"apiextract/internal/errors"
	"apiextract/internal/seeds"
)

// Document is the root of a snapshot file.
type Document struct {
	Packages  []Package      `yaml:"packages"`
	Externals []External     `yaml:"externals"`
	Seeds     seeds.Manifest `yaml:"seeds"`
}

// Package is a package and its top-level types.
type Package struct {
	Name        string       `yaml:"name"`
	Doc         bool         `yaml:"doc"`
	Deprecated  bool         `yaml:"deprecated"`
	Annotations []Annotation `yaml:"annotations"`
	Types       []Type       `yaml:"types"`
}

// External is a type referenced but not described by the snapshot.
type External struct {
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind"`
	Modifiers []string `yaml:"modifiers"`
	Retention string   `yaml:"retention"`
}

// Type is a class, interface, enum or annotation type.
type Type struct {
	Name           string          `yaml:"name"`
	Kind           string          `yaml:"kind"`
	Modifiers      []string        `yaml:"modifiers"`
	Doc            bool            `yaml:"doc"`
	Deprecated     bool            `yaml:"deprecated"`
	TypeParameters []TypeParameter `yaml:"typeParameters"`
	Extends        string          `yaml:"extends"`
	Implements     []string        `yaml:"implements"`
	Retention      string          `yaml:"retention"`
	Annotations    []Annotation    `yaml:"annotations"`
	Fields         []Field         `yaml:"fields"`
	EnumConstants  []EnumConstant  `yaml:"enumConstants"`
	Constructors   []Executable    `yaml:"constructors"`
	Methods        []Executable    `yaml:"methods"`
	Types          []Type          `yaml:"types"`
}

// TypeParameter is a formal type parameter with its bounds.
type TypeParameter struct {
	Name   string   `yaml:"name"`
	Bounds []string `yaml:"bounds"`
}

// Field is a field; Constant holds its compile-time value, if any.
type Field struct {
	Name        string       `yaml:"name"`
	Type        string       `yaml:"type"`
	Modifiers   []string     `yaml:"modifiers"`
	Doc         bool         `yaml:"doc"`
	Deprecated  bool         `yaml:"deprecated"`
	Constant    *yaml.Node   `yaml:"constant"`
	Annotations []Annotation `yaml:"annotations"`
}

// EnumConstant may be written as a bare name or as a mapping.
type EnumConstant struct {
	Name        string       `yaml:"name"`
	Doc         bool         `yaml:"doc"`
	Deprecated  bool         `yaml:"deprecated"`
	Annotations []Annotation `yaml:"annotations"`
}

func (e *EnumConstant) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		e.Name = n.Value
		return nil
	}
	type plain EnumConstant
	return n.Decode((*plain)(e))
}

// Executable is a method or a constructor. Default is the default value of
// an annotation type element.
type Executable struct {
	Name           string          `yaml:"name"`
	Modifiers      []string        `yaml:"modifiers"`
	Doc            bool            `yaml:"doc"`
	Deprecated     bool            `yaml:"deprecated"`
	Implicit       bool            `yaml:"implicit"`
	Varargs        bool            `yaml:"varargs"`
	TypeParameters []TypeParameter `yaml:"typeParameters"`
	Returns        string          `yaml:"returns"`
	Parameters     []Parameter     `yaml:"parameters"`
	Throws         []string        `yaml:"throws"`
	Default        *yaml.Node      `yaml:"default"`
	Annotations    []Annotation    `yaml:"annotations"`
}

// Parameter is a formal parameter.
type Parameter struct {
	Name        string       `yaml:"name"`
	Type        string       `yaml:"type"`
	Modifiers   []string     `yaml:"modifiers"`
	Annotations []Annotation `yaml:"annotations"`
}

// Annotation is an annotation use. A bare string names an annotation with
// no element values.
type Annotation struct {
	Type   string    `yaml:"type"`
	Values yaml.Node `yaml:"values"`
}

func (a *Annotation) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		a.Type = n.Value
		return nil
	}
	type plain Annotation
	return n.Decode((*plain)(a))
}

// Snapshot is a loaded snapshot: the graph plus the seeds it declares.
type Snapshot struct {
	Graph *decl.Graph
	Seeds []closure.Seed
}

// Load reads and builds the snapshot at path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.SourceParseFailed, fmt.Sprintf("failed to read snapshot %s", path), err)
	}
	return Parse(data)
}

// Parse decodes and builds a snapshot document.
func Parse(data []byte) (*Snapshot, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(errors.SourceParseFailed, "failed to parse snapshot", err)
	}
	return Build(&doc)
}

// Build turns a decoded document into a graph and resolves its seeds.
func Build(doc *Document) (*Snapshot, error) {
	bld := newBuilder()
	g, err := bld.build(doc)
	if err != nil {
		return nil, err
	}
	seedList, err := doc.Seeds.Seeds(g)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Graph: g, Seeds: seedList}, nil
}
