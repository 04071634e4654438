package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

// fetchGCS resolves gs://bucket/key to dest using
// cloud.google.com/go/storage, a teacher dependency.
func (r *Resolver) fetchGCS(ctx context.Context, uri, dest string) error {
	bucket, key, err := parseBucketURI(uri, "gs://")
	if err != nil {
		return err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("remote: gcs client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("remote: gcs read %q: %w", uri, err)
	}
	defer rc.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("remote: gcs cache write %q: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("remote: gcs cache write %q: %w", dest, err)
	}
	return nil
}

// parseBucketURI splits "<scheme>bucket/key/with/slashes" into the bucket
// name and object key, shared by the gs://, s3://, and azblob:// resolvers.
func parseBucketURI(uri, scheme string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, scheme)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("remote: malformed uri %q, expected %s<bucket>/<key>", uri, scheme)
	}
	return parts[0], parts[1], nil
}
