// Copyright © 2020 Intel Corporation
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

package fetch

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dgym/pixiepatch/pixiepatch"
)

// S3 reads distribution blobs from an S3 bucket, at key
// "<Prefix>/<version>/<name>". The client connects lazily on first Get and
// is reused afterward.
type S3 struct {
	// BucketURL is an "s3://bucket-name/prefix?region=us-east-1" URL.
	// Region defaults to us-east-1 if not given.
	BucketURL string
	// AccessKeyID and SecretAccessKey, if both set, are used as static
	// credentials instead of the default AWS credential chain.
	AccessKeyID     string
	SecretAccessKey string
	// Progress, if set, is invoked once per chunk read from the object
	// body with the number of bytes read in that chunk.
	Progress func(n int)

	client *s3.Client
	bucket string
	prefix string
	region string
}

func (r *S3) parse() error {
	if r.bucket != "" {
		return nil
	}
	u, err := url.Parse(r.BucketURL)
	if err != nil {
		return pixiepatch.WrapIOError(err, "invalid S3 bucket URL")
	}
	if u.Scheme != "s3" {
		return pixiepatch.NewIOError("invalid S3 bucket URL scheme: " + u.Scheme)
	}
	if u.Host == "" {
		return pixiepatch.NewIOError("missing bucket name in S3 bucket URL")
	}
	r.bucket = u.Host
	r.prefix = strings.TrimPrefix(u.Path, "/")
	r.region = "us-east-1"
	if u.Query().Has("region") {
		r.region = u.Query().Get("region")
	}
	return nil
}

func (r *S3) connect(ctx context.Context) error {
	if err := r.parse(); err != nil {
		return err
	}
	if r.client != nil {
		return nil
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(r.region),
	}
	if r.AccessKeyID != "" && r.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(r.AccessKeyID, r.SecretAccessKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return pixiepatch.WrapIOError(err, "failed to load AWS config")
	}
	r.client = s3.NewFromConfig(cfg)
	return nil
}

// Get implements pixiepatch.Reader.
func (r *S3) Get(version, name string) ([]byte, error) {
	ctx := context.Background()
	if err := r.connect(ctx); err != nil {
		return nil, err
	}

	key := version + "/" + name
	if r.prefix != "" {
		key = r.prefix + "/" + key
	}

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, pixiepatch.WrapIOError(err, "failed to fetch s3://"+r.bucket+"/"+key)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	data, err := io.ReadAll(withProgress(out.Body, r.Progress))
	if err != nil {
		return nil, pixiepatch.WrapIOError(err, "failed to read s3://"+r.bucket+"/"+key)
	}
	return data, nil
}
