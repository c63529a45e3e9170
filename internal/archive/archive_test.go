package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

const manifestJSON = `{"name": "demo", "version": "1.0.0", "platform": "nes", "entry": "main.pasm"}`

func TestPackUnpackRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"poppy.json":     manifestJSON,
		"main.pasm":      ".nes\n.org $8000\nrts\n",
		"src/lib.pasm":   "nop\n",
		"build/out.nes":  "should be excluded",
		".DS_Store":      "trash",
		"editor.pasm~":   "trash",
	})

	arc := filepath.Join(t.TempDir(), "demo.poppy")
	if err := Pack(src, arc); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if err := Validate(arc); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	dest := t.TempDir()
	if err := Unpack(arc, dest); err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	for _, rel := range []string{"poppy.json", "main.pasm", "src/lib.pasm"} {
		want, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatal(err)
		}
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("unpacked tree missing %s: %v", rel, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("%s changed across the round trip", rel)
		}
	}

	for _, rel := range []string{"build/out.nes", ".DS_Store", "editor.pasm~"} {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(rel))); err == nil {
			t.Fatalf("excluded file %s was packed", rel)
		}
	}
}

func TestArchiveMetadataEntries(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"poppy.json": manifestJSON, "main.pasm": "rts\n"})
	arc := filepath.Join(t.TempDir(), "demo.poppy")
	if err := Pack(src, arc); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	zr, err := zip.OpenReader(arc)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{".poppy/version.txt", ".poppy/checksums.txt", ".poppy/build-info.json"} {
		if !names[want] {
			t.Fatalf("archive missing %s (have %v)", want, names)
		}
	}
}

func TestChecksumLineFormat(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"poppy.json": manifestJSON, "main.pasm": "rts\n"})
	arc := filepath.Join(t.TempDir(), "demo.poppy")
	if err := Pack(src, arc); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	zr, err := zip.OpenReader(arc)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != ".poppy/checksums.txt" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatal(err)
		}
		rc.Close()
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			parts := strings.SplitN(line, ":", 3)
			if len(parts) != 3 || parts[0] != "SHA256" || len(parts[2]) != 64 {
				t.Fatalf("malformed checksum line %q", line)
			}
		}
		return
	}
	t.Fatal("checksums.txt not found")
}

func TestValidateDetectsTampering(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"poppy.json": manifestJSON, "main.pasm": "rts\n"})
	arc := filepath.Join(t.TempDir(), "demo.poppy")
	if err := Pack(src, arc); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	// Rewrite the archive with main.pasm's contents changed but the old
	// checksums kept.
	zr, err := zip.OpenReader(arc)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, f := range zr.File {
		w, err := zw.Create(f.Name)
		if err != nil {
			t.Fatal(err)
		}
		if f.Name == "main.pasm" {
			if _, err := w.Write([]byte("nop\n")); err != nil {
				t.Fatal(err)
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatal(err)
		}
		rc.Close()
		if _, err := w.Write(buf.Bytes()); err != nil {
			t.Fatal(err)
		}
	}
	zr.Close()
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(arc, out.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Validate(arc); err == nil {
		t.Fatal("expected a checksum mismatch")
	}
}

func TestDeterministicRepack(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"poppy.json": manifestJSON, "main.pasm": "rts\n"})
	a := filepath.Join(t.TempDir(), "a.poppy")
	b := filepath.Join(t.TempDir(), "b.poppy")
	if err := Pack(src, a); err != nil {
		t.Fatal(err)
	}
	if err := Pack(src, b); err != nil {
		t.Fatal(err)
	}
	da, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := os.ReadFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(da, db) {
		t.Fatal("packing the same tree twice produced different archives")
	}
}

func TestReadManifest(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"poppy.json": manifestJSON, "main.pasm": "rts\n"})
	arc := filepath.Join(t.TempDir(), "demo.poppy")
	if err := Pack(src, arc); err != nil {
		t.Fatal(err)
	}
	m, err := ReadManifest(arc)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if m.Name != "demo" || m.Platform != "nes" {
		t.Fatalf("m = %+v", m)
	}
}
