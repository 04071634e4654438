package remote

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// fetchS3 resolves s3://bucket/key to dest using
// github.com/aws/aws-sdk-go's s3manager downloader, a teacher dependency.
func (r *Resolver) fetchS3(ctx context.Context, uri, dest string) error {
	bucket, key, err := parseBucketURI(uri, "s3://")
	if err != nil {
		return err
	}

	sess, err := session.NewSession()
	if err != nil {
		return fmt.Errorf("remote: s3 session: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("remote: s3 cache write %q: %w", dest, err)
	}
	defer f.Close()

	downloader := s3manager.NewDownloader(sess)
	_, err = downloader.DownloadWithContext(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("remote: s3 download %q: %w", uri, err)
	}
	return nil
}
