package minio

import (
	"context"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/hupe1980/assocmem/blobstore"
	"github.com/minio/minio-go/v7"
)

// Store keeps artifacts under a key prefix of one bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ blobstore.Store = (*Store)(nil)

// NewStore creates a store writing to bucket below rootPrefix.
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: strings.Trim(rootPrefix, "/")}
}

func (s *Store) key(name string) string { return path.Join(s.prefix, name) }

func notFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// Open stats the object so that missing keys fail here rather than on the
// first read.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Artifact, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if notFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &object{Object: obj, size: info.Size}, nil
}

// Create streams writes into PutObject; the object appears on Commit.
func (s *Store) Create(ctx context.Context, name string) (blobstore.Writer, error) {
	pr, pw := io.Pipe()
	u := &upload{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, s.key(name), pr, -1, minio.PutObjectOptions{
			ContentType: blobstore.ContentType(name),
		})
		_ = pr.CloseWithError(err)
		u.done <- err
	}()

	return u, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, info.Err
		}
		if name := strings.TrimPrefix(strings.TrimPrefix(info.Key, s.prefix), "/"); name != "" {
			names = append(names, name)
		}
	}

	slices.Sort(names)
	return names, nil
}

type object struct {
	*minio.Object
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

func (u *upload) Discard() error {
	if u.finished {
		return nil
	}
	u.finished = true
	_ = u.pw.CloseWithError(blobstore.ErrDiscarded)
	<-u.done
	return nil
}
