package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) UploadPart(ctx context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.UploadPartOutput)
	return out, args.Error(1)
}

func (m *mockClient) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CreateMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockClient) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CompleteMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockClient) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.AbortMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *mockClient) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.HeadObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func keyIs(key string) any {
	return mock.MatchedBy(func(in any) bool {
		switch v := in.(type) {
		case *s3.GetObjectInput:
			return aws.ToString(v.Bucket) == "bucket" && aws.ToString(v.Key) == key
		case *s3.HeadObjectInput:
			return aws.ToString(v.Bucket) == "bucket" && aws.ToString(v.Key) == key
		case *s3.DeleteObjectInput:
			return aws.ToString(v.Bucket) == "bucket" && aws.ToString(v.Key) == key
		case *s3.PutObjectInput:
			return aws.ToString(v.Bucket) == "bucket" && aws.ToString(v.Key) == key
		}
		return false
	})
}

func TestStore_Put_UploadsUnderPrefix(t *testing.T) {
	client := new(mockClient)
	s := NewStore(client, "bucket", "runs")
	client.On("PutObject", mock.Anything, keyIs("runs/models/m.model")).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, s.Put(context.Background(), "models/m.model", []byte("weights")))
	client.AssertExpectations(t)
}

func TestStore_Get(t *testing.T) {
	client := new(mockClient)
	s := NewStore(client, "bucket", "runs")

	t.Run("found", func(t *testing.T) {
		client.On("GetObject", mock.Anything, keyIs("runs/a.json")).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader(`{"a":1}`)),
		}, nil).Once()

		data, err := s.Get(context.Background(), "a.json")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(data))
	})

	t.Run("missing", func(t *testing.T) {
		client.On("GetObject", mock.Anything, keyIs("runs/b.json")).Return(nil, &types.NoSuchKey{}).Once()

		_, err := s.Get(context.Background(), "b.json")
		assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	})
}

func TestStore_Exists(t *testing.T) {
	client := new(mockClient)
	s := NewStore(client, "bucket", "runs")
	client.On("HeadObject", mock.Anything, keyIs("runs/here")).Return(&s3.HeadObjectOutput{}, nil).Once()
	client.On("HeadObject", mock.Anything, keyIs("runs/gone")).Return(nil, &types.NotFound{}).Once()
	client.On("HeadObject", mock.Anything, keyIs("runs/denied")).Return(nil, errors.New("access denied")).Once()

	ok, err := s.Exists(context.Background(), "here")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Exists(context.Background(), "denied")
	assert.Error(t, err)
}

func TestStore_List_PaginatesAndStripsPrefix(t *testing.T) {
	client := new(mockClient)
	s := NewStore(client, "bucket", "runs/")

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Prefix) == "runs/properties" && in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents:              []types.Object{{Key: aws.String("runs/properties/z.json")}},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page2"),
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "page2"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: aws.String("runs/properties/a.json")}},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	keys, err := s.List(context.Background(), "properties/")
	require.NoError(t, err)
	assert.Equal(t, []string{"properties/a.json", "properties/z.json"}, keys)
	client.AssertExpectations(t)
}

func TestStore_Delete(t *testing.T) {
	client := new(mockClient)
	s := NewStore(client, "bucket", "runs")
	client.On("DeleteObject", mock.Anything, keyIs("runs/old")).Return(&s3.DeleteObjectOutput{}, nil).Once()

	require.NoError(t, s.Delete(context.Background(), "old"))
	client.AssertExpectations(t)
}

func TestRegister_WiresS3Backend(t *testing.T) {
	assert.NotNil(t, store.NewS3Func)
}
