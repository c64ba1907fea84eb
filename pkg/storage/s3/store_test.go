package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/petfood-backend/pkg/config"
)

type fakeAPI struct {
	put     *awss3.PutObjectInput
	body    string
	deleted []string
	err     error
}

func (f *fakeAPI) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &awss3.DeleteObjectOutput{}, nil
}

func TestUploadPutsObject(t *testing.T) {
	api := &fakeAPI{}
	store := newStore(api, config.S3Config{Bucket: "croquetas"})

	obj, err := store.Upload(context.Background(), "products/p1/a.jpg", "image/jpeg", strings.NewReader("jpg"), 3)
	require.NoError(t, err)

	assert.Equal(t, "croquetas", aws.ToString(api.put.Bucket))
	assert.Equal(t, "products/p1/a.jpg", aws.ToString(api.put.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(api.put.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(api.put.ContentLength))
	assert.Equal(t, "jpg", api.body)
	assert.Equal(t, "https://croquetas.s3.amazonaws.com/products/p1/a.jpg", obj.URL)
}

func TestUploadWrapsError(t *testing.T) {
	boom := errors.New("boom")
	store := newStore(&fakeAPI{err: boom}, config.S3Config{Bucket: "b"})

	_, err := store.Upload(context.Background(), "k.png", "image/png", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, boom)

	_, err = store.Upload(context.Background(), "", "image/png", strings.NewReader("x"), 1)
	assert.Error(t, err)
}

func TestDeleteRemovesKey(t *testing.T) {
	api := &fakeAPI{}
	store := newStore(api, config.S3Config{Bucket: "b"})

	require.NoError(t, store.Delete(context.Background(), "/products/p1/a.jpg"))
	assert.Equal(t, []string{"products/p1/a.jpg"}, api.deleted)
}

func TestPublicURLVariants(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.S3Config
		want string
	}{
		{"aws default", config.S3Config{Bucket: "b"}, "https://b.s3.amazonaws.com/k.png"},
		{"custom endpoint", config.S3Config{Bucket: "b", Endpoint: "http://localhost:4566/"}, "http://localhost:4566/b/k.png"},
		{"public base wins", config.S3Config{Bucket: "b", Endpoint: "http://localhost:4566", PublicBase: "https://cdn.example.com"}, "https://cdn.example.com/k.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, newStore(&fakeAPI{}, tc.cfg).PublicURL("k.png"))
		})
	}
}

func TestNewStoreRequiresBucket(t *testing.T) {
	_, err := NewStore(context.Background(), config.S3Config{})
	assert.Error(t, err)
}
