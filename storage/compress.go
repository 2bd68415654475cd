// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package storage

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"go.uber.org/multierr"
)

// Compression is a stream compression scheme, named by file extension.
type Compression string

const (
	None Compression = ""
	Gzip Compression = ".gz"
	Zstd Compression = ".zst"
	LZ4  Compression = ".lz4"
)

func compressionOf(name string) Compression {
	switch c := Compression(strings.ToLower(filepath.Ext(name))); c {
	case Gzip, Zstd, LZ4:
		return c
	}
	return None
}

// TrimCompression strips a compression extension from name, so the
// remaining extension describes the content.
func TrimCompression(name string) string {
	if c := compressionOf(name); c != None {
		return name[:len(name)-len(c)]
	}
	return name
}

// readCloser closes a decompressor and then the stream beneath it.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() (err error) {
	for _, c := range r.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func decompress(rc io.ReadCloser, c Compression) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case Zstd:
		zr, err := zstd.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: zr, closers: []io.Closer{closerFunc(func() error { zr.Close(); return nil }), rc}}, nil
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(rc), closers: []io.Closer{rc}}, nil
	}
	return rc, nil
}

// writeCloser flushes and closes a compressor and then the stream beneath
// it.
type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() (err error) {
	for _, c := range w.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

func compress(wc io.WriteCloser, c Compression) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		zw := gzip.NewWriter(wc)
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, wc}}, nil
	case Zstd:
		zw, err := zstd.NewWriter(wc)
		if err != nil {
			return nil, err
		}
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, wc}}, nil
	case LZ4:
		zw := lz4.NewWriter(wc)
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, wc}}, nil
	}
	return wc, nil
}
