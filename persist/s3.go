/*
 * Copyright 2025 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package persist

import (
	"bytes"
	"context"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Opt func(c *s3Config)

type s3Config struct {
	endpoint  string
	bucket    string
	prefix    string
	accessKey string
	secretKey string
	useSSL    bool
}

func WithS3Endpoint(endpoint string) S3Opt {
	return func(c *s3Config) { c.endpoint = endpoint }
}

func WithS3Bucket(bucket string) S3Opt {
	return func(c *s3Config) { c.bucket = bucket }
}

func WithS3Prefix(prefix string) S3Opt {
	return func(c *s3Config) { c.prefix = prefix }
}

func WithS3Credentials(accessKey, secretKey string) S3Opt {
	return func(c *s3Config) {
		c.accessKey = accessKey
		c.secretKey = secretKey
	}
}

func WithS3SSL(useSSL bool) S3Opt {
	return func(c *s3Config) { c.useSSL = useSSL }
}

// S3 uploads artifacts to an S3-compatible object store.
type S3 struct {
	cfg    *s3Config
	client *minio.Client
}

func NewS3(opts ...S3Opt) (*S3, error) {
	cfg := &s3Config{useSSL: true}
	for _, o := range opts {
		o(cfg)
	}

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &S3{cfg: cfg, client: client}, nil
}

func (s *S3) Name() string { return "s3" }

func (s *S3) Store(ctx context.Context, a Artifact) error {
	key := a.Filename
	if s.cfg.prefix != "" {
		key = path.Join(s.cfg.prefix, a.Filename)
	}
	_, err := s.client.PutObject(ctx, s.cfg.bucket, key,
		bytes.NewReader(a.Bytes), int64(len(a.Bytes)),
		minio.PutObjectOptions{ContentType: a.ContentType})
	return err
}
