// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"io"
	"os"
	"path/filepath"

	ociv1 "github.com/google/go-containerregistry/pkg/v1"
)

func WriteLayer(layer ociv1.Layer, dst io.Writer) (err error) {
	layerReader, err := layer.Uncompressed()
	if err != nil {
		return err
	}
	defer func() {
		if _err := layerReader.Close(); _err != nil && err == nil {
			err = _err
		}
	}()
	if _, err := io.Copy(dst, layerReader); err != nil {
		return err
	}
	return nil
}

// WriteDir materializes a set of FileReferences under dirname,
// creating parent directories as needed.
func WriteDir(vfs []FileReference, dirname string) error {
	for _, file := range vfs {
		if err := writeDirFile(file, dirname); err != nil {
			return err
		}
	}
	return nil
}

func writeDirFile(file FileReference, dirname string) (err error) {
	maybeSetErr := func(_err error) {
		if _err != nil && err == nil {
			err = _err
		}
	}

	filename := filepath.Join(dirname, filepath.FromSlash(file.FullName()))
	if err := os.MkdirAll(filepath.Dir(filename), 0o777); err != nil {
		return err
	}

	reader, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if reader != nil {
			maybeSetErr(reader.Close())
		}
	}()

	perm := file.Mode().Perm()
	if perm == 0 {
		perm = 0o666
	}
	writer, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if writer != nil {
			maybeSetErr(writer.Close())
		}
	}()

	if _, err := io.Copy(writer, reader); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	writer = nil
	if err := reader.Close(); err != nil {
		return err
	}
	reader = nil

	return os.Chtimes(filename, file.ModTime(), file.ModTime())
}
