/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package shoebox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func init() {
	CallbackRegistry["s3"] = func(raw json.RawMessage) (ArchiveCallback, error) {
		var cfg S3CallbackConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return NewS3UploadCallback(cfg), nil
	}
}

// S3CallbackConfig configures S3UploadCallback. Same shape as
// S3Factory: credentials, endpoint override for S3-compatible stores
// (MinIO, etc.), bucket and key prefix.
type S3CallbackConfig struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
	ForcePathStyle  bool   `json:"force_path_style"`
	DeleteLocal     bool   `json:"delete_local"`
}

// S3UploadCallback uploads a sealed archive to S3 (or an S3-compatible
// endpoint) on close, the same PutObject-after-close shape
// S3Storage.WriteColumn uses for column data.
type S3UploadCallback struct {
	cfg S3CallbackConfig

	mu     sync.Mutex
	client *s3.Client
	opened bool
}

func NewS3UploadCallback(cfg S3CallbackConfig) *S3UploadCallback {
	return &S3UploadCallback{cfg: cfg}
}

func (c *S3UploadCallback) ensureOpen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened {
		return
	}

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if c.cfg.Region != "" {
		opts = append(opts, config.WithRegion(c.cfg.Region))
	}
	if c.cfg.AccessKeyID != "" && c.cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.cfg.AccessKeyID, c.cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		panic(fmt.Sprintf("S3UploadCallback: failed to load AWS config: %v", err))
	}

	var s3Opts []func(*s3.Options)
	if c.cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(c.cfg.Endpoint) })
	}
	if c.cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}

	c.client = s3.NewFromConfig(awsCfg, s3Opts...)
	c.opened = true
}

func (c *S3UploadCallback) key(filename string) string {
	pfx := strings.TrimSuffix(c.cfg.Prefix, "/")
	base := path.Base(filename)
	if pfx == "" {
		return base
	}
	return pfx + "/" + base
}

func (c *S3UploadCallback) OnOpen(path string) {}

func (c *S3UploadCallback) OnClose(filename string) (newPath string) {
	c.ensureOpen()

	f, err := os.Open(filename)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	key := c.key(filename)
	_, err = c.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		panic(fmt.Sprintf("S3UploadCallback: upload failed: %v", err))
	}

	if c.cfg.DeleteLocal {
		os.Remove(filename)
	}

	return "s3://" + c.cfg.Bucket + "/" + key
}
