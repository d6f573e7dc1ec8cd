package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/cobra"

	"apiextract/internal/classfile"
)

var inspectFormat string

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.class|file.jar>...",
	Short: "Describe generated class files",
	Long: `Parse class files, or every class file inside a jar, and print their
access flags, supertypes, fields and methods in a javap-like form.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	resp := &InspectResponseCLI{Classes: []ClassCLI{}}
	for _, path := range args {
		classes, err := inspectPath(path)
		if err != nil {
			return err
		}
		resp.Classes = append(resp.Classes, classes...)
	}
	out, err := FormatResponse(resp, OutputFormat(inspectFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func inspectPath(path string) ([]ClassCLI, error) {
	if strings.EqualFold(filepath.Ext(path), ".jar") {
		return inspectJar(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := inspectClass(path, data)
	if err != nil {
		return nil, err
	}
	return []ClassCLI{c}, nil
}

func inspectJar(path string) ([]ClassCLI, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open jar %s: %w", path, err)
	}
	defer zr.Close()

	var out []ClassCLI
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in %s: %w", f.Name, path, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s in %s: %w", f.Name, path, err)
		}
		c, err := inspectClass(path+"!/"+f.Name, data)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out, nil
}

// InspectResponseCLI describes parsed class files
type InspectResponseCLI struct {
	Classes []ClassCLI `json:"classes"`
}

// ClassCLI is the readable form of one class file
type ClassCLI struct {
	File        string      `json:"file"`
	Version     string      `json:"version"`
	Access      []string    `json:"access"`
	Name        string      `json:"name"`
	Super       string      `json:"super,omitempty"`
	Interfaces  []string    `json:"interfaces,omitempty"`
	Signature   string      `json:"signature,omitempty"`
	Deprecated  bool        `json:"deprecated,omitempty"`
	Annotations []string    `json:"annotations,omitempty"`
	Fields      []MemberCLI `json:"fields"`
	Methods     []MemberCLI `json:"methods"`
}

// MemberCLI is one field or method
type MemberCLI struct {
	Access     []string `json:"access"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Descriptor string   `json:"descriptor"`
	Signature  string   `json:"signature,omitempty"`
	Constant   string   `json:"constant,omitempty"`
	Throws     []string `json:"throws,omitempty"`
	HasBody    bool     `json:"hasBody,omitempty"`
}

func inspectClass(file string, data []byte) (ClassCLI, error) {
	c, err := classfile.Parse(data)
	if err != nil {
		return ClassCLI{}, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	out := ClassCLI{
		File:       file,
		Version:    fmt.Sprintf("%d.%d", c.Major, c.Minor),
		Access:     nonNil(classfile.FlagNames(c.Access, classfile.ClassContext)),
		Name:       dotted(c.Name),
		Super:      dotted(c.Super),
		Signature:  c.Signature,
		Deprecated: c.Deprecated,
		Fields:     []MemberCLI{},
		Methods:    []MemberCLI{},
	}
	for _, i := range c.Interfaces {
		out.Interfaces = append(out.Interfaces, dotted(i))
	}
	for _, a := range c.VisibleAnnotations {
		out.Annotations = append(out.Annotations, "@"+classfile.JavaTypeName(a.Type))
	}
	for _, a := range c.InvisibleAnnotations {
		out.Annotations = append(out.Annotations, "@"+classfile.JavaTypeName(a.Type)+" (class retention)")
	}
	for _, f := range c.Fields {
		m := MemberCLI{
			Access:     nonNil(classfile.FlagNames(f.Access, classfile.FieldContext)),
			Name:       f.Name,
			Type:       classfile.JavaTypeName(f.Descriptor),
			Descriptor: f.Descriptor,
			Signature:  f.Signature,
		}
		if f.ConstantValue != nil {
			m.Constant = constantText(f.ConstantValue)
		}
		out.Fields = append(out.Fields, m)
	}
	for _, meth := range c.Methods {
		params, ret, err := classfile.ParseMethodDescriptor(meth.Descriptor)
		if err != nil {
			return ClassCLI{}, fmt.Errorf("%s: method %s: %w", file, meth.Name, err)
		}
		names := make([]string, len(params))
		for i, p := range params {
			names[i] = classfile.JavaTypeName(p)
		}
		m := MemberCLI{
			Access:     nonNil(classfile.FlagNames(meth.Access, classfile.MethodContext)),
			Name:       meth.Name,
			Type:       classfile.JavaTypeName(ret) + " (" + strings.Join(names, ", ") + ")",
			Descriptor: meth.Descriptor,
			Signature:  meth.Signature,
			HasBody:    meth.Code != nil,
		}
		for _, e := range meth.Exceptions {
			m.Throws = append(m.Throws, dotted(e))
		}
		out.Methods = append(out.Methods, m)
	}
	return out, nil
}

func dotted(internalName string) string {
	return strings.ReplaceAll(internalName, "/", ".")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func constantText(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

func formatInspectHuman(r *InspectResponseCLI) string {
	var b strings.Builder
	for i, c := range r.Classes {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (version %s)\n", c.File, c.Version)
		for _, a := range c.Annotations {
			fmt.Fprintf(&b, "  %s\n", a)
		}
		fmt.Fprintf(&b, "  %s %s", strings.Join(c.Access, " "), c.Name)
		if c.Super != "" {
			fmt.Fprintf(&b, " extends %s", c.Super)
		}
		if len(c.Interfaces) > 0 {
			fmt.Fprintf(&b, " implements %s", strings.Join(c.Interfaces, ", "))
		}
		b.WriteString("\n")
		if c.Signature != "" {
			fmt.Fprintf(&b, "  Signature: %s\n", c.Signature)
		}
		for _, f := range c.Fields {
			fmt.Fprintf(&b, "    %s %s %s", strings.Join(f.Access, " "), f.Type, f.Name)
			if f.Constant != "" {
				fmt.Fprintf(&b, " = %s", f.Constant)
			}
			b.WriteString("\n")
		}
		for _, m := range c.Methods {
			fmt.Fprintf(&b, "    %s %s %s", strings.Join(m.Access, " "), m.Name, m.Type)
			if len(m.Throws) > 0 {
				fmt.Fprintf(&b, " throws %s", strings.Join(m.Throws, ", "))
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
