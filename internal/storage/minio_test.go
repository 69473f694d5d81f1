package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockObjectAPI struct {
	mock.Mock
}

func (m *mockObjectAPI) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucket, object, reader, size, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockObjectAPI) GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (*minio.Object, error) {
	args := m.Called(ctx, bucket, object, opts)
	obj, _ := args.Get(0).(*minio.Object)
	return obj, args.Error(1)
}

func (m *mockObjectAPI) StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucket, object, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *mockObjectAPI) RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucket, object, opts)
	return args.Error(0)
}

func (m *mockObjectAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucket, opts)
	return args.Error(0)
}

type MinioStoreTestSuite struct {
	suite.Suite
	api   *mockObjectAPI
	store *MinioStore
	ctx   context.Context
}

func (s *MinioStoreTestSuite) SetupTest() {
	s.api = &mockObjectAPI{}
	s.store = &MinioStore{client: s.api, bucket: "emptytohome"}
	s.ctx = context.Background()
}

func (s *MinioStoreTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func TestMinioStoreTestSuite(t *testing.T) {
	suite.Run(t, new(MinioStoreTestSuite))
}

func (s *MinioStoreTestSuite) TestPutUploadsWithContentType() {
	data := []byte("%PDF")
	r := bytes.NewReader(data)
	key := "contracts/abc-lease.pdf"

	s.api.On("PutObject", s.ctx, "emptytohome", key, r, int64(len(data)), minio.PutObjectOptions{ContentType: "application/pdf"}).
		Return(minio.UploadInfo{Key: key}, nil).Once()

	assert.NoError(s.T(), s.store.Put(s.ctx, key, r, int64(len(data)), "application/pdf"))
}

func (s *MinioStoreTestSuite) TestPutDefaultsContentType() {
	r := bytes.NewReader([]byte("x"))
	key := "property_images/abc.bin"

	s.api.On("PutObject", s.ctx, "emptytohome", key, r, int64(1), minio.PutObjectOptions{ContentType: "application/octet-stream"}).
		Return(minio.UploadInfo{}, nil).Once()

	assert.NoError(s.T(), s.store.Put(s.ctx, key, r, 1, ""))
}

func (s *MinioStoreTestSuite) TestPutRejectsInvalidKey() {
	err := s.store.Put(s.ctx, "../x", bytes.NewReader(nil), 0, "")
	assert.ErrorIs(s.T(), err, ErrInvalidKey)
}

func (s *MinioStoreTestSuite) TestPutWrapsUploadError() {
	r := bytes.NewReader([]byte("x"))
	s.api.On("PutObject", s.ctx, "emptytohome", "contracts/a.pdf", r, int64(1), mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection refused")).Once()

	err := s.store.Put(s.ctx, "contracts/a.pdf", r, 1, "application/pdf")
	assert.ErrorContains(s.T(), err, "connection refused")
}

func (s *MinioStoreTestSuite) TestOpenMissingObject() {
	s.api.On("StatObject", s.ctx, "emptytohome", "contracts/gone.pdf", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}).Once()

	_, err := s.store.Open(s.ctx, "contracts/gone.pdf")
	assert.ErrorIs(s.T(), err, ErrNotExist)
}

func (s *MinioStoreTestSuite) TestOpenStatFailure() {
	s.api.On("StatObject", s.ctx, "emptytohome", "contracts/a.pdf", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, errors.New("timeout")).Once()

	_, err := s.store.Open(s.ctx, "contracts/a.pdf")
	assert.Error(s.T(), err)
	assert.NotErrorIs(s.T(), err, ErrNotExist)
}

func (s *MinioStoreTestSuite) TestDelete() {
	s.api.On("RemoveObject", s.ctx, "emptytohome", "contracts/a.pdf", minio.RemoveObjectOptions{}).
		Return(nil).Once()

	assert.NoError(s.T(), s.store.Delete(s.ctx, "contracts/a.pdf"))
}

func (s *MinioStoreTestSuite) TestEnsureBucketCreatesMissing() {
	s.api.On("BucketExists", s.ctx, "emptytohome").Return(false, nil).Once()
	s.api.On("MakeBucket", s.ctx, "emptytohome", minio.MakeBucketOptions{}).Return(nil).Once()

	assert.NoError(s.T(), s.store.EnsureBucket(s.ctx))
}

func (s *MinioStoreTestSuite) TestEnsureBucketExisting() {
	s.api.On("BucketExists", s.ctx, "emptytohome").Return(true, nil).Once()

	assert.NoError(s.T(), s.store.EnsureBucket(s.ctx))
}
