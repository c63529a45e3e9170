// Package archive packs a project directory into the .poppy container
//: a ZIP holding poppy.json, the source tree, and a .poppy/
// metadata folder with version.txt, per-file SHA-256 checksums, and
// build-info.json. Unpacking and validation recompute the checksums so
// a round-trip is verifiably byte-identical.
package archive

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/TheAnsarya/poppy-sub004/internal/manifest"
)

// FormatVersion is written to .poppy/version.txt inside every archive.
const FormatVersion = "1"

// metaDir is the in-archive metadata folder.
const metaDir = ".poppy/"

// excludedDirs are directory names never packed.
var excludedDirs = map[string]bool{
	"build": true, ".git": true, ".hg": true, ".svn": true, ".poppy": true,
}

// excludedFiles are file names never packed (user-editor trash).
var excludedFiles = map[string]bool{
	".DS_Store": true, "Thumbs.db": true, "desktop.ini": true,
}

func excluded(name string, isDir bool) bool {
	if isDir {
		return excludedDirs[name]
	}
	return excludedFiles[name] || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp")
}

// buildInfo is the .poppy/build-info.json payload.
type buildInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Platform      string `json:"platform"`
	FormatVersion string `json:"formatVersion"`
	FileCount     int    `json:"fileCount"`
}

// Pack walks dir (which must contain a valid poppy.json) and writes the
// .poppy archive to outPath. Entry order and checksum order are both
// sorted by relative path, so identical trees produce identical
// archives.
func Pack(dir, outPath string) error {
	m, err := manifest.Load(filepath.Join(dir, manifest.FileName))
	if err != nil {
		return err
	}

	var files []string
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if excluded(info.Name(), info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if abs, _ := filepath.Abs(path); abs != "" {
			if out, _ := filepath.Abs(outPath); out == abs {
				return nil
			}
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	var checksums []string
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		if err := writeEntry(zw, rel, data); err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		checksums = append(checksums, fmt.Sprintf("SHA256:%s:%s", rel, hex.EncodeToString(sum[:])))
	}

	if err := writeEntry(zw, metaDir+"version.txt", []byte(FormatVersion+"\n")); err != nil {
		return err
	}
	if err := writeEntry(zw, metaDir+"checksums.txt", []byte(strings.Join(checksums, "\n")+"\n")); err != nil {
		return err
	}
	info, err := json.MarshalIndent(buildInfo{
		Name:          m.Name,
		Version:       m.Version,
		Platform:      m.Platform,
		FormatVersion: FormatVersion,
		FileCount:     len(files),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := writeEntry(zw, metaDir+"build-info.json", append(info, '\n')); err != nil {
		return err
	}

	return zw.Close()
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	// Write each entry with a fixed header so repacking an unchanged tree yields an
	// identical archive (no per-run timestamps).
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Unpack extracts the archive at path into destDir, validating checksums
// on the way out. Metadata entries under .poppy/ are extracted too.
func Unpack(path, destDir string) error {
	if err := Validate(path); err != nil {
		return err
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// safeJoin rejects entry names that would escape destDir.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes the destination directory", name)
	}
	return target, nil
}

// Validate checks the archive's structure: the manifest parses, the
// metadata folder is present, and every recorded checksum matches the
// entry's actual contents.
func Validate(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	contents := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return err
		}
		contents[f.Name] = data
	}

	manifestData, ok := contents[manifest.FileName]
	if !ok {
		return fmt.Errorf("archive has no %s", manifest.FileName)
	}
	if _, err := manifest.Parse(manifestData); err != nil {
		return err
	}

	checksumData, ok := contents[metaDir+"checksums.txt"]
	if !ok {
		return fmt.Errorf("archive has no %schecksums.txt", metaDir)
	}
	for _, line := range strings.Split(strings.TrimSpace(string(checksumData)), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 || parts[0] != "SHA256" {
			return fmt.Errorf("malformed checksum line %q", line)
		}
		rel, want := parts[1], parts[2]
		data, ok := contents[rel]
		if !ok {
			return fmt.Errorf("checksum references missing entry %q", rel)
		}
		sum := sha256.Sum256(data)
		if got := hex.EncodeToString(sum[:]); got != want {
			return fmt.Errorf("checksum mismatch for %q", rel)
		}
	}
	return nil
}

// ReadManifest pulls and parses poppy.json out of an archive without
// extracting it.
func ReadManifest(path string) (*manifest.Manifest, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != manifest.FileName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		_, err = io.Copy(&buf, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		return manifest.Parse(buf.Bytes())
	}
	return nil, fmt.Errorf("archive has no %s", manifest.FileName)
}
