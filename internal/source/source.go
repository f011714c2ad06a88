// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

// Package source opens upload payloads from local paths or S3 objects.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/portalctl/portalctl/internal/client"
)

// Error is a sentinel source error.
type Error string

const (
	ErrNotFound           = Error("source not found")
	ErrAccessDenied       = Error("access denied")
	ErrExpiredCredentials = Error("AWS credentials have expired")
	ErrNoCredentials      = Error("no AWS credentials found")
	ErrBadURI             = Error("malformed s3 uri, expected s3://bucket/key")
)

func (e Error) Error() string {
	return string(e)
}

const s3Scheme = "s3://"

// ObjectGetter fetches S3 objects.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// AWSConfig selects the shared profile and region used for s3:// sources.
// Blank fields defer to the SDK's default chain.
type AWSConfig struct {
	Profile string
	Region  string
}

// Item is an opened source.
type Item struct {
	Name string
	Body io.ReadCloser
}

// Opener resolves source references.
type Opener struct {
	awsCfg AWSConfig
	s3     ObjectGetter
	mx     sync.Mutex
}

// New returns an opener. The S3 client is built on first use.
func New(cfg AWSConfig) *Opener {
	return &Opener{awsCfg: cfg}
}

// WithS3 installs an explicit S3 client.
func (o *Opener) WithS3(g ObjectGetter) *Opener {
	o.mx.Lock()
	defer o.mx.Unlock()
	o.s3 = g
	return o
}

// IsS3 reports whether ref names an S3 object.
func IsS3(ref string) bool {
	return strings.HasPrefix(ref, s3Scheme)
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(ref string) (bucket, key string, err error) {
	if !IsS3(ref) {
		return "", "", ErrBadURI
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(ref, s3Scheme), "/")
	if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrBadURI, ref)
	}

	return bucket, key, nil
}

// Open opens a single reference.
func (o *Opener) Open(ctx context.Context, ref string) (*Item, error) {
	if IsS3(ref) {
		return o.openS3(ctx, ref)
	}

	f, err := os.Open(ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("open %s: %w", ref, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", ref, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s is a directory", ref)
	}

	return &Item{Name: filepath.Base(ref), Body: f}, nil
}

// OpenAll opens every reference. On failure the already opened items are
// closed.
func (o *Opener) OpenAll(ctx context.Context, refs []string) ([]*Item, error) {
	items := make([]*Item, 0, len(refs))
	for _, ref := range refs {
		it, err := o.Open(ctx, ref)
		if err != nil {
			CloseAll(items)
			return nil, err
		}
		items = append(items, it)
	}

	return items, nil
}

// Files adapts items to upload parts.
func Files(items []*Item) []client.File {
	ff := make([]client.File, 0, len(items))
	for _, it := range items {
		ff = append(ff, client.File{Name: it.Name, Reader: it.Body})
	}

	return ff
}

// CloseAll closes every item.
func CloseAll(items []*Item) {
	for _, it := range items {
		_ = it.Body.Close()
	}
}

func (o *Opener) openS3(ctx context.Context, ref string) (*Item, error) {
	bucket, key, err := ParseS3URI(ref)
	if err != nil {
		return nil, err
	}
	cl, err := o.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := cl.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, wrapAWSError(err, ref)
	}

	return &Item{Name: path.Base(key), Body: out.Body}, nil
}

func (o *Opener) s3Client(ctx context.Context) (ObjectGetter, error) {
	o.mx.Lock()
	defer o.mx.Unlock()
	if o.s3 != nil {
		return o.s3, nil
	}

	var opts []func(*config.LoadOptions) error
	if o.awsCfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(o.awsCfg.Profile))
	}
	if o.awsCfg.Region != "" {
		opts = append(opts, config.WithRegion(o.awsCfg.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, wrapAWSError(err, "load AWS config")
	}
	o.s3 = s3.NewFromConfig(cfg)

	return o.s3, nil
}

func wrapAWSError(err error, what string) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("fetch %s: %w", what, err)
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case "AccessDenied", "AccessDeniedException", "Forbidden":
		return fmt.Errorf("%w: %s", ErrAccessDenied, what)
	case "ExpiredToken", "ExpiredTokenException":
		return fmt.Errorf("%w: %s", ErrExpiredCredentials, what)
	case "InvalidAccessKeyId", "InvalidClientTokenId":
		return fmt.Errorf("%w: %s", ErrNoCredentials, what)
	default:
		return fmt.Errorf("fetch %s failed: %s (%s)", what, apiErr.ErrorMessage(), apiErr.ErrorCode())
	}
}
