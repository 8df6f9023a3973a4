// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"bytes"
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultRetryMaxAttempts bounds SDK retries for a single request.
const DefaultRetryMaxAttempts = 3

// API is the subset of the S3 client used by S3Bucket.
type API interface {
	manager.UploadAPIClient
	s3.HeadObjectAPIClient
	s3.ListObjectsV2APIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// ⚙️ ClientOptions configures the S3 client.
type ClientOptions struct {
	Region      string
	Endpoint    string // S3-compatible endpoint; switches to path-style addressing
	Profile     string
	Credentials aws.CredentialsProvider
	MaxAttempts int
}

// 🔌 NewClient loads the default AWS configuration chain and builds a client.
func NewClient(ctx context.Context, opts ClientOptions) (*s3.Client, error) {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultRetryMaxAttempts
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMaxAttempts(maxAttempts),
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Credentials != nil {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(opts.Credentials))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Errorf("loading aws config: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("region", cfg.Region).
		Str("endpoint", opts.Endpoint).
		Int("max_attempts", maxAttempts).
		Msg("s3 client configured")

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// 🪣 S3Bucket implements Bucket on top of the AWS SDK.
type S3Bucket struct {
	client   API
	uploader *manager.Uploader
	bucket   string
}

var _ Bucket = (*S3Bucket)(nil)

// NewS3Bucket wraps client for a single bucket.
func NewS3Bucket(client API, bucket string, optFns ...func(*manager.Uploader)) *S3Bucket {
	return &S3Bucket{
		client:   client,
		uploader: manager.NewUploader(client, optFns...),
		bucket:   bucket,
	}
}

func (b *S3Bucket) Name() string {
	return b.bucket
}

// Put uploads in.Body. Only the headers that are set are sent.
func (b *S3Bucket) Put(ctx context.Context, in *PutInput) (*PutOutput, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(in.Key),
		Body:   bytes.NewReader(in.Body),
	}
	if in.ContentType != nil {
		input.ContentType = in.ContentType
	}
	if in.ContentEncoding != nil {
		input.ContentEncoding = in.ContentEncoding
	}
	if in.CacheControl != nil {
		input.CacheControl = in.CacheControl
	}
	if in.ACL != nil {
		input.ACL = types.ObjectCannedACL(*in.ACL)
	}

	result, err := b.uploader.Upload(ctx, input)
	if err != nil {
		return nil, errors.Errorf("uploading s3://%s/%s: %w", b.bucket, in.Key, err)
	}

	return &PutOutput{
		Location: result.Location,
		ETag:     NormalizeETag(aws.ToString(result.ETag)),
	}, nil
}

// Head fetches metadata for key.
func (b *S3Bucket) Head(ctx context.Context, key string) (*Object, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Errorf("heading s3://%s/%s: %w", b.bucket, key, ErrNotFound)
		}
		if isForbidden(err) {
			return nil, errors.Errorf("heading s3://%s/%s: %w", b.bucket, key, ErrForbidden)
		}
		return nil, errors.Errorf("heading s3://%s/%s: %w", b.bucket, key, err)
	}

	return &Object{
		Key:  key,
		ETag: NormalizeETag(aws.ToString(out.ETag)),
		Size: aws.ToInt64(out.ContentLength),
	}, nil
}

// List pages through every key under prefix.
func (b *S3Bucket) List(ctx context.Context, prefix string, fn func(Object) error) error {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	paginator := s3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return errors.Errorf("listing s3://%s/%s: %w", b.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			err := fn(Object{
				Key:  aws.ToString(obj.Key),
				ETag: NormalizeETag(aws.ToString(obj.ETag)),
				Size: aws.ToInt64(obj.Size),
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *S3Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Errorf("deleting s3://%s/%s: %w", b.bucket, key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}

func isForbidden(err error) bool {
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusForbidden
}
