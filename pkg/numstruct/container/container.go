// Package container reads and writes the zip package that holds a
// document's archive files and assets.
package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

var (
	// ErrEntryNotFound is returned by Read for paths the package lacks.
	ErrEntryNotFound = errors.New("container: entry not found")
	// ErrNotPackage is returned for inputs that are neither a zip nor a bundle.
	ErrNotPackage = errors.New("container: not a document package")
)

// Codec is the byte-level view of a package.
type Codec interface {
	ListEntries() []string
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
}

// Package is an in-memory package. Entry order is kept from the source and
// new entries are appended.
type Package struct {
	entries map[string][]byte
	order   []string
}

// New returns an empty package.
func New() *Package {
	return &Package{entries: make(map[string][]byte)}
}

// Open loads a package from a zip file or from a bundle directory. A nested
// Index.zip, as found in bundles, is expanded in place.
func Open(name string) (*Package, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return openDir(name)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return ReadZip(bytes.NewReader(data), int64(len(data)))
}

// ReadZip loads a package from zip data.
func ReadZip(r io.ReaderAt, size int64) (*Package, error) {
	p := New()
	if err := p.addZip(r, size); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Package) addZip(r io.ReaderAt, size int64) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotPackage, err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return fmt.Errorf("container: %s: %w", f.Name, err)
		}
		if err := p.add(f.Name, data); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (p *Package) add(name string, data []byte) error {
	if path.Base(name) == "Index.zip" {
		return p.addZip(bytes.NewReader(data), int64(len(data)))
	}
	return p.Write(name, data)
}

func openDir(root string) (*Package, error) {
	p := New()
	err := filepath.WalkDir(root, func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, name)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		return p.add(filepath.ToSlash(rel), data)
	})
	if err != nil {
		return nil, err
	}
	if !p.Has("Index/Document.iwa") {
		return nil, fmt.Errorf("%w: %s has no Index/Document.iwa", ErrNotPackage, root)
	}
	return p, nil
}

// ListEntries returns entry paths in package order.
func (p *Package) ListEntries() []string {
	return append([]string(nil), p.order...)
}

// Has reports whether the package holds name.
func (p *Package) Has(name string) bool {
	_, ok := p.entries[name]
	return ok
}

// Read returns a copy of an entry's bytes.
func (p *Package) Read(name string) ([]byte, error) {
	data, ok := p.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return append([]byte(nil), data...), nil
}

// Write stores an entry, replacing any previous content.
func (p *Package) Write(name string, data []byte) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return fmt.Errorf("container: invalid entry name %q", name)
	}
	if _, ok := p.entries[name]; !ok {
		p.order = append(p.order, name)
	}
	p.entries[name] = append([]byte(nil), data...)
	return nil
}

// Remove deletes an entry if present.
func (p *Package) Remove(name string) {
	if _, ok := p.entries[name]; !ok {
		return
	}
	delete(p.entries, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// WriteTo writes the package as a flat zip archive. Archive files are
// stored since their content is already compressed.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, name := range p.order {
		method := zip.Deflate
		if strings.HasSuffix(name, ".iwa") {
			method = zip.Store
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			return cw.n, err
		}
		if _, err := fw.Write(p.entries[name]); err != nil {
			return cw.n, err
		}
	}
	err := zw.Close()
	return cw.n, err
}

// Save writes the package to name, replacing it atomically.
func (p *Package) Save(name string) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".numstruct-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := p.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
