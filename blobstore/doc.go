// Package blobstore abstracts where experiment artifacts live: report
// tables, memory snapshots and run metadata.
//
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads through read-only memory maps
//   - MemoryStore: in-process map, for tests
//   - s3.Store: Amazon S3 with multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
package blobstore
