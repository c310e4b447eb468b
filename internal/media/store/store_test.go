package store

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadURL(t *testing.T) {
	got := DownloadURL("tes-app.appspot.com", "abc.jpg", "tok-1")
	assert.Equal(t, "https://firebasestorage.googleapis.com/v0/b/tes-app.appspot.com/o/abc.jpg?alt=media&token=tok-1", got)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	api := &fakeS3{}
	s := newS3Store(api, "avatars", "ap-southeast-2", "")

	url, err := s.Put(context.Background(), "k.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://avatars.s3.ap-southeast-2.amazonaws.com/k.jpg", url)
	assert.Equal(t, "avatars", aws.ToString(api.input.Bucket))
	assert.Equal(t, "k.jpg", aws.ToString(api.input.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(api.input.ContentType))
	assert.Equal(t, []byte("jpeg"), api.body)

	s = newS3Store(api, "avatars", "", "https://cdn.example.com/")
	url, err = s.Put(context.Background(), "k.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k.jpg", url)

	api.err = errors.New("access denied")
	_, err = s.Put(context.Background(), "k.jpg", []byte("jpeg"), "image/jpeg")
	assert.ErrorIs(t, err, api.err)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore("http://localhost:8080/")
	url, err := s.Put(context.Background(), "a.jpg", []byte{1, 2}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/a.jpg", url)

	data, ct, ok := s.Get("a.jpg")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2}, data)
	assert.Equal(t, "image/jpeg", ct)
	assert.Equal(t, 1, s.Len())

	_, _, ok = s.Get("b.jpg")
	assert.False(t, ok)
}
