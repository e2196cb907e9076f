package catalog

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	lzip "github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"

	"github.com/tsukumogami/naosu/internal/config"
)

// A bundle is a tar archive of recipe files, optionally compressed.
// Bundles travel between machines, so they are read fully in memory,
// capped at the configured size limit, and validated like any other
// catalog source before a single recipe is accepted.

// LoadBundle parses and validates a recipe bundle without persisting
// anything.
func LoadBundle(path string) (*Catalog, error) {
	files, err := readBundleFiles(path)
	if err != nil {
		return nil, err
	}
	return catalogFromBundle(path, files)
}

// ImportBundle validates a bundle and writes its recipes into destDir,
// one file per recipe named after the tool. It returns the imported tool
// names. Nothing is written when any recipe is invalid.
func ImportBundle(path, destDir string) ([]string, error) {
	files, err := readBundleFiles(path)
	if err != nil {
		return nil, err
	}
	parsed, byTool, err := parseBundle(path, files)
	if err != nil {
		return nil, err
	}
	if _, err := New(path, parsed); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("creating catalog dir: %w", err)
	}
	names := make([]string, 0, len(byTool))
	for tool, data := range byTool {
		out := filepath.Join(destDir, tool+".toml")
		if err := os.WriteFile(out, data, 0644); err != nil {
			return nil, fmt.Errorf("writing recipe %s: %w", out, err)
		}
		names = append(names, tool)
	}
	sort.Strings(names)
	return names, nil
}

func catalogFromBundle(path string, files map[string][]byte) (*Catalog, error) {
	parsed, _, err := parseBundle(path, files)
	if err != nil {
		return nil, err
	}
	return New(path, parsed)
}

func parseBundle(path string, files map[string][]byte) ([]*Recipe, map[string][]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var recipes []*Recipe
	byTool := make(map[string][]byte, len(files))
	for _, name := range names {
		r, err := Parse(files[name], path+":"+name)
		if err != nil {
			return nil, nil, err
		}
		recipes = append(recipes, r)
		byTool[r.Metadata.Name] = files[name]
	}
	return recipes, byTool, nil
}

// readBundleFiles returns the *.toml entries of a bundle keyed by their
// cleaned archive paths, enforcing the decompressed size limit.
func readBundleFiles(path string) (map[string][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bundle: %w", err)
	}
	defer f.Close()

	limit := config.GetBundleSizeLimit()

	var reader io.Reader
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("reading gzip bundle: %w", err)
		}
		defer gzr.Close()
		reader = gzr
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("reading zstd bundle: %w", err)
		}
		defer zr.Close()
		reader = zr
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("reading xz bundle: %w", err)
		}
		reader = xzr
	case strings.HasSuffix(lower, ".tar.lz"), strings.HasSuffix(lower, ".tlz"):
		lr, err := lzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("reading lzip bundle: %w", err)
		}
		reader = lr
	case strings.HasSuffix(lower, ".tar"):
		reader = f
	default:
		return nil, fmt.Errorf("unsupported bundle format: %s (want .tar, .tar.gz, .tar.zst, .tar.xz, or .tar.lz)", filepath.Base(path))
	}

	files := map[string][]byte{}
	var total int64
	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading bundle entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		name := strings.TrimPrefix(header.Name, "./")
		if !strings.HasSuffix(name, ".toml") {
			continue
		}
		// Entry names never touch the filesystem, but a bundle that
		// plays path games is not one to trust.
		if strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
			return nil, fmt.Errorf("bundle entry has suspicious path: %s", header.Name)
		}
		total += header.Size
		if total > limit {
			return nil, fmt.Errorf("bundle exceeds the %d byte size limit (set %s to raise it)", limit, config.EnvBundleSizeLimit)
		}
		data := make([]byte, header.Size)
		if _, err := io.ReadFull(tr, data); err != nil {
			return nil, fmt.Errorf("reading bundle entry %s: %w", name, err)
		}
		files[name] = data
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("bundle %s contains no recipes", filepath.Base(path))
	}
	return files, nil
}
