// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"io/fs"
	"path"
	"strings"
	"sync"
)

// FromFile returns a [Source] for the file name in fsys. Files with a
// .json extension are decoded as JSON and everything else as YAML.
func FromFile(fsys fs.FS, name string) Source {
	r := NewFileReader(fsys, name)
	if strings.EqualFold(path.Ext(name), ".json") {
		return FromJson(r)
	}
	return FromYaml(r)
}

// FileReader is an [io.ReadCloser] which defers opening its file until
// the first Read.
type FileReader struct {
	fsys fs.FS
	name string

	once sync.Once
	f    fs.File
	err  error
}

// NewFileReader returns a [FileReader] for the file name in fsys.
func NewFileReader(fsys fs.FS, name string) *FileReader {
	return &FileReader{
		fsys: fsys,
		name: name,
	}
}

// Read implements the [io.Reader] interface.
func (r *FileReader) Read(b []byte) (int, error) {
	r.once.Do(func() {
		r.f, r.err = r.fsys.Open(r.name)
	})
	if r.err != nil {
		return 0, r.err
	}
	if r.f == nil {
		return 0, fs.ErrClosed
	}
	return r.f.Read(b)
}

// Close implements the [io.Closer] interface. Closing a reader which was
// never read is a no-op.
func (r *FileReader) Close() error {
	if r.f == nil {
		return nil
	}

	f := r.f
	r.f = nil
	return f.Close()
}
