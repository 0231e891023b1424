// Package s3 stores experiment artifacts in Amazon S3.
//
// Writes stream through the SDK's multipart upload manager; reads are a
// single streamed GET.
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "runs/exp-1")
package s3
