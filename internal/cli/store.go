package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/assocmem/blobstore"
	miniostore "github.com/hupe1980/assocmem/blobstore/minio"
	s3store "github.com/hupe1980/assocmem/blobstore/s3"
	"github.com/hupe1980/assocmem/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// openStore resolves an output location:
//
//	runs                   local directory
//	s3://bucket/prefix     AWS S3, credentials from the default chain
//	minio://bucket/prefix  MinIO or any S3-compatible endpoint
func openStore(ctx context.Context, out config.OutputConfig) (blobstore.Store, error) {
	loc := out.Store
	if !strings.Contains(loc, "://") {
		if err := os.MkdirAll(loc, 0o755); err != nil {
			return nil, err
		}
		return blobstore.NewLocalStore(loc), nil
	}

	u, err := url.Parse(loc)
	if err != nil {
		return nil, fmt.Errorf("parse store %q: %w", loc, err)
	}
	bucket := u.Host
	prefix := strings.TrimPrefix(u.Path, "/")
	if bucket == "" {
		return nil, fmt.Errorf("store %q has no bucket", loc)
	}

	switch u.Scheme {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return s3store.NewStore(s3.NewFromConfig(awsCfg), bucket, prefix), nil

	case "minio":
		m := out.MinIO
		if m.Endpoint == "" {
			return nil, fmt.Errorf("store %q needs output.minio.endpoint", loc)
		}
		client, err := minio.New(m.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(m.AccessKey, m.SecretKey, ""),
			Secure: m.Secure,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, bucket, prefix), nil

	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}
