package s3

import (
	"context"
	"errors"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/assocmem/blobstore"
)

// Client is the part of the S3 API the store calls. *s3.Client satisfies it.
type Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// UploadConfig tunes the multipart uploader.
type UploadConfig struct {
	PartSize    int64
	Concurrency int
}

// Store keeps artifacts under a key prefix of one bucket.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	uploader *manager.Uploader
}

var _ blobstore.Store = (*Store)(nil)

// NewStore creates a store writing to bucket below rootPrefix.
func NewStore(client Client, bucket, rootPrefix string, optFns ...func(*UploadConfig)) *Store {
	cfg := UploadConfig{
		PartSize:    manager.DefaultUploadPartSize,
		Concurrency: manager.DefaultUploadConcurrency,
	}
	for _, fn := range optFns {
		fn(&cfg)
	}

	return &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(rootPrefix, "/"),
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = cfg.PartSize
			u.Concurrency = cfg.Concurrency
		}),
	}
}

func (s *Store) key(name string) string { return path.Join(s.prefix, name) }

// Open issues a single GET and streams the body.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Artifact, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &object{ReadCloser: out.Body, size: aws.ToInt64(out.ContentLength)}, nil
}

// Create pipes writes into a background upload that finishes on Commit.
func (s *Store) Create(ctx context.Context, name string) (blobstore.Writer, error) {
	pr, pw := io.Pipe()
	u := &upload{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.key(name)),
			Body:        pr,
			ContentType: aws.String(blobstore.ContentType(name)),
		})
		_ = pr.CloseWithError(err)
		u.done <- err
	}()

	return u, nil
}

// List pages through ListObjectsV2.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(strings.TrimPrefix(aws.ToString(obj.Key), s.prefix), "/")
			if name != "" {
				names = append(names, name)
			}
		}
	}

	slices.Sort(names)
	return names, nil
}

type object struct {
	io.ReadCloser
	size int64
}

func (o *object) Size() int64 { return o.size }

type upload struct {
	pw       *io.PipeWriter
	done     chan error
	finished bool
}

func (u *upload) Write(p []byte) (int, error) {
	if u.finished {
		return 0, io.ErrClosedPipe
	}
	return u.pw.Write(p)
}

func (u *upload) Commit() error {
	if u.finished {
		return io.ErrClosedPipe
	}
	u.finished = true
	_ = u.pw.Close()
	return <-u.done
}

// Discard fails the upload; the uploader aborts any multipart parts.
func (u *upload) Discard() error {
	if u.finished {
		return nil
	}
	u.finished = true
	_ = u.pw.CloseWithError(blobstore.ErrDiscarded)
	<-u.done
	return nil
}
