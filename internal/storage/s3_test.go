package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmerch/config"
)

type mockS3 struct {
	putInput    *s3.PutObjectInput
	putBody     []byte
	putErr      error
	deletedKeys []string
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.putInput = in
	m.putBody, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.deletedKeys = append(m.deletedKeys, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestUpload(t *testing.T) {
	client := &mockS3{}
	store := NewS3Store(client, config.StorageConfig{
		Bucket:        "payment-picture",
		PublicBaseURL: "https://cdn.example.com/storage/v1/object/public/",
	})

	url, err := store.Upload(context.Background(), "payment_7_1700000000000", "image/png", []byte("png"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/storage/v1/object/public/payment-picture/payment_7_1700000000000", url)
	assert.Equal(t, "payment-picture", *client.putInput.Bucket)
	assert.Equal(t, "image/png", *client.putInput.ContentType)
	assert.Equal(t, []byte("png"), client.putBody)
}

func TestUpload_Error(t *testing.T) {
	store := NewS3Store(&mockS3{putErr: errors.New("denied")}, config.StorageConfig{Bucket: "payment-picture", Region: "ap-southeast-1"})

	_, err := store.Upload(context.Background(), "k", "image/png", nil)
	assert.ErrorContains(t, err, "denied")
}

func TestPublicURL_DefaultsToRegionalEndpoint(t *testing.T) {
	store := NewS3Store(&mockS3{}, config.StorageConfig{Bucket: "payment-picture", Region: "ap-southeast-1"})
	assert.Equal(t, "https://s3.ap-southeast-1.amazonaws.com/payment-picture/k", store.PublicURL("k"))
}

func TestDelete(t *testing.T) {
	client := &mockS3{}
	store := NewS3Store(client, config.StorageConfig{Bucket: "payment-picture"})

	require.NoError(t, store.Delete(context.Background(), "k"))
	assert.Equal(t, []string{"k"}, client.deletedKeys)
}
