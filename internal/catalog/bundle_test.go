package catalog

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	lzip "github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"

	"github.com/tsukumogami/naosu/internal/config"
)

const widgetBundleRecipe = `
[metadata]
name = "widget"
binary = "widget"

[[methods]]
name = "script"
kind = "script"
command = "curl -fsSL https://example.com/widget.sh | sh"
`

const gadgetBundleRecipe = `
[metadata]
name = "gadget"
binary = "gadget"

[[methods]]
name = "script"
kind = "script"
command = "curl -fsSL https://example.com/gadget.sh | sh"
`

// buildTar assembles an uncompressed tar archive in memory.
func buildTar(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		hdr := &tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// writeBundle compresses a tar archive according to the file extension
// and writes it under dir.
func writeBundle(t *testing.T, dir, name string, raw []byte) string {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		w = gzip.NewWriter(&buf)
	case strings.HasSuffix(name, ".tar.zst"):
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatal(err)
		}
		w = zw
	case strings.HasSuffix(name, ".tar.xz"):
		xw, err := xz.NewWriter(&buf)
		if err != nil {
			t.Fatal(err)
		}
		w = xw
	case strings.HasSuffix(name, ".tar.lz"):
		w = lzip.NewWriter(&buf)
	default:
		buf.Write(raw)
	}
	if w != nil {
		if _, err := w.Write(raw); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadBundle_Formats(t *testing.T) {
	raw := buildTar(t, map[string]string{
		"widget.toml": widgetBundleRecipe,
		"gadget.toml": gadgetBundleRecipe,
	})

	for _, name := range []string{
		"bundle.tar",
		"bundle.tar.gz",
		"bundle.tar.zst",
		"bundle.tar.xz",
		"bundle.tar.lz",
	} {
		t.Run(name, func(t *testing.T) {
			path := writeBundle(t, t.TempDir(), name, raw)
			cat, err := LoadBundle(path)
			if err != nil {
				t.Fatalf("LoadBundle() failed: %v", err)
			}
			if cat.Len() != 2 {
				t.Errorf("Len() = %d, want 2", cat.Len())
			}
			if !cat.Has("widget") || !cat.Has("gadget") {
				t.Errorf("bundle recipes missing: %v", cat.Names())
			}
		})
	}
}

func TestLoadBundle_IgnoresNonRecipeEntries(t *testing.T) {
	raw := buildTar(t, map[string]string{
		"widget.toml": widgetBundleRecipe,
		"README.md":   "about this bundle",
	})
	path := writeBundle(t, t.TempDir(), "bundle.tar", raw)
	cat, err := LoadBundle(path)
	if err != nil {
		t.Fatalf("LoadBundle() failed: %v", err)
	}
	if cat.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cat.Len())
	}
}

func TestLoadBundle_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.rar")
	if err := os.WriteFile(path, []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadBundle(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported bundle format") {
		t.Errorf("LoadBundle() error = %v, want unsupported format", err)
	}
}

func TestLoadBundle_NoRecipes(t *testing.T) {
	raw := buildTar(t, map[string]string{"README.md": "nothing here"})
	path := writeBundle(t, t.TempDir(), "bundle.tar", raw)
	_, err := LoadBundle(path)
	if err == nil || !strings.Contains(err.Error(), "contains no recipes") {
		t.Errorf("LoadBundle() error = %v, want no recipes", err)
	}
}

func TestLoadBundle_RejectsSuspiciousPaths(t *testing.T) {
	raw := buildTar(t, map[string]string{"../escape.toml": widgetBundleRecipe})
	path := writeBundle(t, t.TempDir(), "bundle.tar", raw)
	_, err := LoadBundle(path)
	if err == nil || !strings.Contains(err.Error(), "suspicious path") {
		t.Errorf("LoadBundle() error = %v, want suspicious path", err)
	}
}

func TestLoadBundle_SizeLimit(t *testing.T) {
	// 1M is the lowest limit the config accepts, so the oversized entry
	// has to clear that.
	t.Setenv(config.EnvBundleSizeLimit, "1M")
	padded := widgetBundleRecipe + "\n" + strings.Repeat("# padding line\n", 80000)
	raw := buildTar(t, map[string]string{"widget.toml": padded})
	path := writeBundle(t, t.TempDir(), "bundle.tar", raw)
	_, err := LoadBundle(path)
	if err == nil || !strings.Contains(err.Error(), "size limit") {
		t.Errorf("LoadBundle() error = %v, want size limit", err)
	}
}

func TestLoadBundle_InvalidRecipe(t *testing.T) {
	raw := buildTar(t, map[string]string{"broken.toml": `
[metadata]
name = "broken"
binary = "broken"
`})
	path := writeBundle(t, t.TempDir(), "bundle.tar", raw)
	_, err := LoadBundle(path)
	if err == nil || !strings.Contains(err.Error(), "at least one install method") {
		t.Errorf("LoadBundle() error = %v, want validation failure", err)
	}
}

func TestImportBundle(t *testing.T) {
	raw := buildTar(t, map[string]string{
		// Archive entry names do not have to match tool names; imports
		// are written as <tool>.toml regardless.
		"recipes/a.toml": widgetBundleRecipe,
		"recipes/b.toml": gadgetBundleRecipe,
	})
	path := writeBundle(t, t.TempDir(), "bundle.tar.gz", raw)
	dest := filepath.Join(t.TempDir(), "catalog")

	names, err := ImportBundle(path, dest)
	if err != nil {
		t.Fatalf("ImportBundle() failed: %v", err)
	}
	if len(names) != 2 || names[0] != "gadget" || names[1] != "widget" {
		t.Errorf("names = %v, want [gadget widget]", names)
	}
	for _, tool := range names {
		if _, err := os.Stat(filepath.Join(dest, tool+".toml")); err != nil {
			t.Errorf("imported recipe %s.toml missing: %v", tool, err)
		}
	}

	// The imported directory round-trips through the normal loader.
	cat, err := LoadDir(dest)
	if err != nil {
		t.Fatalf("LoadDir() failed: %v", err)
	}
	if cat.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cat.Len())
	}
}

func TestImportBundle_NothingWrittenOnFailure(t *testing.T) {
	raw := buildTar(t, map[string]string{
		"good.toml": widgetBundleRecipe,
		"bad.toml": `
[metadata]
name = "bad"
binary = "bad"
`,
	})
	path := writeBundle(t, t.TempDir(), "bundle.tar", raw)
	dest := filepath.Join(t.TempDir(), "catalog")

	_, err := ImportBundle(path, dest)
	if err == nil {
		t.Fatal("expected import to fail")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination should not be created when validation fails")
	}
}
