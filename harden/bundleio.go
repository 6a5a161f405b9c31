package harden

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Extensions classified as code entries of a bundle; everything else is an
// asset. Code entries are never rewritten.
var codeExtensions = map[string]bool{
	".js":  true,
	".mjs": true,
	".cjs": true,
}

// LoadBundle reads a finished output directory into a Bundle, keyed by the
// slash-separated path relative to root.
func LoadBundle(root string) (Bundle, error) {
	bundle := make(Bundle)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "could not read bundle file %s", path)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		kind := KindAsset
		if codeExtensions[strings.ToLower(filepath.Ext(path))] {
			kind = KindCode
		}
		bundle[filepath.ToSlash(rel)] = &Asset{
			Kind:     kind,
			FileName: d.Name(),
			Source:   string(data),
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not load bundle from %s", root)
	}
	return bundle, nil
}

// WriteBundle writes every bundle entry below outDir, creating directories
// as needed.
func WriteBundle(outDir string, bundle Bundle) error {
	for path, asset := range bundle {
		target := filepath.Join(outDir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.Wrapf(err, "could not create output directory for %s", path)
		}
		if err := os.WriteFile(target, []byte(asset.Source), 0o644); err != nil {
			return errors.Wrapf(err, "could not write bundle file %s", path)
		}
	}
	return nil
}
