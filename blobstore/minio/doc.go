// Package minio stores experiment artifacts in MinIO or any other
// S3-compatible service reachable through minio-go.
//
//	client, _ := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	store := minio.NewStore(client, "experiments", "runs/exp-1")
package minio
