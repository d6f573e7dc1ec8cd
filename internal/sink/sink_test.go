package sink

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zip"

	"apiextract/internal/storage"
)

func res(pkg, file string) Resource {
	bin := file[:len(file)-len(".class")]
	if pkg != "" {
		bin = filepath.ToSlash(pkg) + "/" + bin
	}
	return Resource{
		Location:     DefaultLocation,
		Package:      pkg,
		File:         file,
		BinaryName:   bytesToDots(bin),
		Dependencies: []string{"com.example.A"},
	}
}

func bytesToDots(s string) string {
	return string(bytes.ReplaceAll([]byte(s), []byte("/"), []byte(".")))
}

func TestResource_Validate(t *testing.T) {
	tests := []struct {
		name    string
		res     Resource
		wantErr bool
	}{
		{"plain", Resource{Package: "com/example", File: "A.class"}, false},
		{"nested", Resource{Package: "com/example", File: "A$B.class"}, false},
		{"unnamed package", Resource{File: "A.class"}, false},
		{"empty file", Resource{Package: "com/example"}, true},
		{"slash in file", Resource{Package: "com", File: "x/A.class"}, true},
		{"parent", Resource{Package: "../etc", File: "A.class"}, true},
		{"absolute", Resource{Package: "/tmp", File: "A.class"}, true},
		{"unclean", Resource{Package: "com//example", File: "A.class"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.res.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestDir_Create(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir failed: %v", err)
	}
	ctx := context.Background()
	if err := d.Create(ctx, res("com/example", "A.class"), []byte("first")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := d.Create(ctx, res("com/example", "A.class"), []byte("second")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(root, "com", "example", "A.class"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want second", got)
	}
	entries, err := os.ReadDir(filepath.Join(root, "com", "example"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestDir_CanceledContext(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Create(ctx, res("p", "A.class"), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Create() error = %v, want context.Canceled", err)
	}
}

func TestJar_Create(t *testing.T) {
	target := filepath.Join(t.TempDir(), "api.jar")
	build := func() []byte {
		j, err := NewJar(target)
		if err != nil {
			t.Fatalf("NewJar failed: %v", err)
		}
		ctx := context.Background()
		for _, r := range []Resource{res("com/example", "A.class"), res("com/example/sub", "B$C.class")} {
			if err := j.Create(ctx, r, []byte(r.File)); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}
		if err := j.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		data, err := os.ReadFile(target)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	first := build()
	if second := build(); !bytes.Equal(first, second) {
		t.Error("jar bytes should be deterministic")
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(target)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0644 {
			t.Errorf("jar mode = %v, want 0644", perm)
		}
	}

	zr, err := zip.NewReader(bytes.NewReader(first), int64(len(first)))
	if err != nil {
		t.Fatalf("reading jar: %v", err)
	}
	var names []string
	contents := map[string]string{}
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(rc)
		_ = rc.Close()
		contents[f.Name] = string(b)
	}
	wantNames := []string{
		"META-INF/", "META-INF/MANIFEST.MF",
		"com/", "com/example/", "com/example/A.class",
		"com/example/sub/", "com/example/sub/B$C.class",
	}
	if !reflect.DeepEqual(names, wantNames) {
		t.Errorf("entries = %v\nwant %v", names, wantNames)
	}
	if contents["com/example/sub/B$C.class"] != "B$C.class" {
		t.Errorf("unexpected content %q", contents["com/example/sub/B$C.class"])
	}
}

func TestJar_Abort(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "api.jar")
	j, err := NewJar(target)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Create(context.Background(), res("p", "A.class"), []byte("x")); err != nil {
		t.Fatal(err)
	}
	j.Abort()
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("abort should leave nothing behind, found %v", entries)
	}
	if err := j.Create(context.Background(), res("p", "B.class"), nil); err == nil {
		t.Error("Create after Abort should fail")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.Create(ctx, res("com/example", "A.class"), []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := m.Create(ctx, res("com/example", "A.class"), []byte("a")); err == nil {
		t.Error("duplicate resource should fail")
	}
	e, ok := m.Get(DefaultLocation, "com/example/A.class")
	if !ok || string(e.Data) != "a" || e.Resource.BinaryName != "com.example.A" {
		t.Errorf("Get = %+v, %v", e, ok)
	}
	if len(m.Entries()) != 1 {
		t.Errorf("Entries = %d", len(m.Entries()))
	}
}

type fakeRecorder struct {
	recs []storage.ArtifactRecord
	err  error
}

func (f *fakeRecorder) RecordArtifact(a *storage.ArtifactRecord) error {
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, *a)
	return nil
}

type failingSink struct{ closed bool }

func (f *failingSink) Create(context.Context, Resource, []byte) error { return errors.New("disk full") }
func (f *failingSink) Close() error                                   { f.closed = true; return nil }

func TestLedger(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	rec := &fakeRecorder{}
	l := NewLedger(mem, rec, "run-1", nil)

	r := res("com/example", "A.class")
	if err := l.Create(ctx, r, []byte("abc")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(rec.recs) != 1 || l.Recorded() != 1 {
		t.Fatalf("expected one record, got %d", len(rec.recs))
	}
	got := rec.recs[0]
	// sha256("abc")
	if got.SHA256 != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("sha256 = %s", got.SHA256)
	}
	if got.RunID != "run-1" || got.Size != 3 || got.BinaryName != "com.example.A" ||
		!reflect.DeepEqual(got.Dependencies, []string{"com.example.A"}) {
		t.Errorf("record = %+v", got)
	}

	failing := &failingSink{}
	rec2 := &fakeRecorder{}
	l2 := NewLedger(failing, rec2, "run-2", nil)
	if err := l2.Create(ctx, r, []byte("abc")); err == nil {
		t.Error("inner failure should be returned")
	}
	if len(rec2.recs) != 0 {
		t.Error("failed writes must not be recorded")
	}
	if err := l2.Close(); err != nil || !failing.closed {
		t.Error("Close should close the inner sink")
	}

	l3 := NewLedger(NewMemory(), &fakeRecorder{err: errors.New("db locked")}, "run-3", nil)
	if err := l3.Create(ctx, r, nil); err == nil {
		t.Error("recorder failure should be returned")
	}
}

func TestTee(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	tee := Tee{a, b}
	if err := tee.Create(context.Background(), res("p", "A.class"), []byte("x")); err != nil {
		t.Fatal(err)
	}
	if len(a.Entries()) != 1 || len(b.Entries()) != 1 {
		t.Error("tee should write to every sink")
	}
	if err := tee.Close(); err != nil {
		t.Fatal(err)
	}

	failing := &failingSink{}
	c := NewMemory()
	if err := (Tee{failing, c}).Create(context.Background(), res("p", "A.class"), nil); err == nil {
		t.Error("tee should stop at the first failure")
	}
	if len(c.Entries()) != 0 {
		t.Error("sinks after a failure should not be written")
	}
}
