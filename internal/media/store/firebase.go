package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const downloadTokenKey = "firebaseStorageDownloadTokens"

// FirebaseStore writes to the Firebase Storage bucket and hands out token
// download URLs, the same ones the Firebase client SDKs produce.
type FirebaseStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
	newToken   func() string
}

func NewFirebaseStore(bucket *gcs.BucketHandle, bucketName string) *FirebaseStore {
	return &FirebaseStore{bucket: bucket, bucketName: bucketName, newToken: uuid.NewString}
}

func (s *FirebaseStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	token := s.newToken()

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{downloadTokenKey: token}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", key, err)
	}

	return DownloadURL(s.bucketName, key, token), nil
}

// DownloadURL builds a Firebase Storage token URL for an object.
func DownloadURL(bucket, key, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(key), url.QueryEscape(token))
}
