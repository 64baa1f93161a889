// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"time"
)

type InMemFileReference struct {
	fs.FileInfo
	MFullName string
	MContent  []byte
}

func (fr *InMemFileReference) FullName() string { return fr.MFullName }
func (fr *InMemFileReference) Name() string     { return path.Base(fr.MFullName) }
func (fr *InMemFileReference) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(fr.MContent)), nil
}

var _ FileReference = (*InMemFileReference)(nil)

// NewInMemFile builds an InMemFileReference with synthetic file
// metadata, for content that never existed on disk.
func NewInMemFile(fullname string, content []byte, mode fs.FileMode, modTime time.Time) *InMemFileReference {
	return &InMemFileReference{
		FileInfo: &memFileInfo{
			name:    path.Base(fullname),
			size:    int64(len(content)),
			mode:    mode,
			modTime: modTime,
		},
		MFullName: fullname,
		MContent:  content,
	}
}

// ReadFS reads the named file out of an fs.FS into an
// InMemFileReference whose FullName is that same slash-path.
func ReadFS(fsys fs.FS, fullname string) (*InMemFileReference, error) {
	info, err := fs.Stat(fsys, fullname)
	if err != nil {
		return nil, err
	}
	content, err := fs.ReadFile(fsys, fullname)
	if err != nil {
		return nil, err
	}
	return &InMemFileReference{
		FileInfo:  info,
		MFullName: fullname,
		MContent:  content,
	}, nil
}

type memFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi *memFileInfo) Name() string       { return fi.name }
func (fi *memFileInfo) Size() int64        { return fi.size }
func (fi *memFileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *memFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *memFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *memFileInfo) Sys() interface{}   { return nil }
