package parser

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/msgforge/msgforge/internal/schema"
)

// SourceFile pairs a parsed definition with where it came from.
type SourceFile struct {
	Path   string // path as walked from the tree root
	Data   []byte // raw definition bytes, as read
	Schema schema.Schema
}

// ParseFile reads the definition at path as pkg/name.
func ParseFile(path, pkg, name string) (schema.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("parser: %w", err)
	}
	defer f.Close()
	return Parse(f, path, pkg, name)
}

// ParseTree walks root and parses every .msg definition found. Files lay
// out as <root>/<pkg>/msg/<Name>.msg or <root>/<pkg>/<Name>.msg. The
// definitions come back in walk order, which is lexical and therefore
// stable, together with a registry over all of them.
func ParseTree(root string) ([]SourceFile, *schema.Registry, error) {
	var files []SourceFile
	reg := schema.NewRegistry()
	seen := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".msg") {
			return nil
		}

		pkg, name, err := placeFile(root, path)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("parser: %w", err)
		}

		s, err := Parse(bytes.NewReader(data), path, pkg, name)
		if err != nil {
			return err
		}

		if prev, dup := seen[s.FullName()]; dup {
			return fmt.Errorf("parser: %s: duplicate definition of %s (also declared in %s)",
				path, s.FullName(), prev)
		}
		seen[s.FullName()] = path

		files = append(files, SourceFile{Path: path, Data: data, Schema: s})
		reg.Add(s)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return files, reg, nil
}

// ParseDir is ParseTree without source provenance.
func ParseDir(root string) ([]schema.Schema, *schema.Registry, error) {
	files, reg, err := ParseTree(root)
	if err != nil {
		return nil, nil, err
	}

	schemas := make([]schema.Schema, len(files))
	for i, f := range files {
		schemas[i] = f.Schema
	}
	return schemas, reg, nil
}

// placeFile derives the package and message name from a definition path
// relative to the tree root. A directory literally called msg is the
// conventional holder, not the package itself.
func placeFile(root, path string) (pkg, name string, err error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", "", fmt.Errorf("parser: %w", err)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("parser: %s: definitions live under a package directory", path)
	}

	name = strings.TrimSuffix(parts[len(parts)-1], ".msg")
	pkg = parts[len(parts)-2]
	if pkg == "msg" && len(parts) >= 3 {
		pkg = parts[len(parts)-3]
	}

	if !isPkgName(pkg) {
		return "", "", fmt.Errorf("parser: %s: invalid package name %q", path, pkg)
	}
	if !isIdent(name) {
		return "", "", fmt.Errorf("parser: %s: invalid message name %q", path, name)
	}
	return pkg, name, nil
}
