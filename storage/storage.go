// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package storage opens graph inputs and creates mapping outputs by name.
//
// A name is a local path, an http(s) URL (read only) or an s3://bucket/key
// URL. Names ending in .gz, .zst or .lz4 are transparently decompressed on
// read and compressed on write.
package storage

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/molecula/triplemap/errors"
	"github.com/molecula/triplemap/logger"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Store opens and creates named objects.
type Store struct {
	Config Config
	Log    logger.Logger

	sess *session.Session
}

// NewStore returns a Store using cfg.
func NewStore(cfg Config, log logger.Logger) *Store {
	if log == nil {
		log = logger.NopLogger
	}
	return &Store{Config: cfg, Log: log}
}

// Open opens name for reading.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	switch {
	case strings.HasPrefix(name, "s3://"):
		bucket, key, err := parseS3URL(name)
		if err != nil {
			return nil, err
		}
		sess, err := s.session()
		if err != nil {
			return nil, err
		}
		result, err := s3.New(sess).GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "fetching S3 object %v", name)
		}
		rc = result.Body
	case strings.HasPrefix(name, "http://"), strings.HasPrefix(name, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, name, nil)
		if err != nil {
			return nil, errors.Wrap(err, "building request")
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "getting via http")
		}
		if resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, errors.Errorf("got status %d via http.Get", resp.StatusCode)
		}
		rc = resp.Body
	default:
		f, err := os.Open(name)
		if err != nil {
			return nil, errors.Wrap(err, "opening file")
		}
		rc = f
	}
	s.Log.Debugf("opened %s", name)

	dec, err := decompress(rc, compressionOf(name))
	if err != nil {
		rc.Close()
		return nil, errors.Wrapf(err, "decompressing %s", name)
	}
	return dec, nil
}

// Create creates or truncates name for writing. For S3 the object is
// streamed up as it is written and completed by Close.
func (s *Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	var wc io.WriteCloser
	switch {
	case strings.HasPrefix(name, "s3://"):
		bucket, key, err := parseS3URL(name)
		if err != nil {
			return nil, err
		}
		sess, err := s.session()
		if err != nil {
			return nil, err
		}
		wc = newS3Writer(ctx, s3manager.NewUploader(sess), bucket, key)
	case strings.HasPrefix(name, "http://"), strings.HasPrefix(name, "https://"):
		return nil, errors.Newf(errors.ErrUsage, "cannot write to %s: http outputs are not supported", name)
	default:
		if dir := filepath.Dir(name); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, errors.Wrapf(err, "mkdir %s", dir)
			}
		}
		f, err := os.Create(name)
		if err != nil {
			return nil, errors.Wrap(err, "creating file")
		}
		wc = f
	}

	enc, err := compress(wc, compressionOf(name))
	if err != nil {
		wc.Close()
		return nil, errors.Wrapf(err, "compressing %s", name)
	}
	return enc, nil
}

func (s *Store) session() (*session.Session, error) {
	if s.sess != nil {
		return s.sess, nil
	}
	config := &aws.Config{}
	if s.Config.S3Region != "" {
		config.Region = aws.String(s.Config.S3Region)
		// else, NewSession will use the default region.
	}
	if s.Config.S3Endpoint != "" {
		config.Endpoint = aws.String(s.Config.S3Endpoint)
		config.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, errors.Wrap(err, "creating S3 session")
	}
	s.sess = sess
	return sess, nil
}

func parseS3URL(name string) (bucket, key string, err error) {
	u, err := url.Parse(name)
	if err != nil {
		return "", "", errors.Wrapf(err, "parsing S3 URL %v", name)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", errors.Newf(errors.ErrUsage, "S3 URL %v needs a bucket and a key", name)
	}
	return u.Host, key, nil
}

// s3Writer streams writes into a multipart upload through a pipe.
type s3Writer struct {
	pw *io.PipeWriter
	g  errgroup.Group
}

func newS3Writer(ctx context.Context, up *s3manager.Uploader, bucket, key string) *s3Writer {
	pr, pw := io.Pipe()
	w := &s3Writer{pw: pw}
	w.g.Go(func() error {
		_, err := up.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		// Unblock any pending Write if the upload gave up early.
		pr.CloseWithError(err)
		return errors.Wrap(err, "uploading to S3")
	})
	return w
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *s3Writer) Close() error {
	err := w.pw.Close()
	return multierr.Append(err, w.g.Wait())
}
