package objectstore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// fakeS3 is an in-memory bucket honouring If-None-Match: *.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

var _ s3API = (*fakeS3)(nil)

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if in.IfNoneMatch != nil && *in.IfNoneMatch == "*" {
		if _, ok := f.objects[*in.Key]; ok {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
		}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3_PutDedupsViaConditionalWrite(t *testing.T) {
	t.Parallel()
	fake := newFakeS3()
	s := newS3WithClient(fake, "evidence", "vault")
	ctx := context.Background()

	first, err := s.Put(ctx, []byte("payload"))
	require.NoError(t, err)
	second, err := s.Put(ctx, []byte("payload"))
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Len(t, fake.objects, 1)
	assert.Contains(t, fake.objects, "vault/"+first.RelPath)
}

func TestS3_GetAndVerify(t *testing.T) {
	t.Parallel()
	fake := newFakeS3()
	s := newS3WithClient(fake, "evidence", "")
	ctx := context.Background()

	res, err := s.Put(ctx, []byte("payload"))
	require.NoError(t, err)

	got, err := s.Get(ctx, res.RelPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	ok, _, err := s.Verify(ctx, res.RelPath, res.Digest)
	require.NoError(t, err)
	assert.True(t, ok)

	fake.objects[res.RelPath] = []byte("changed")
	ok, actual, err := s.Verify(ctx, res.RelPath, res.Digest)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Digest([]byte("changed")), actual)
}

func TestS3_MissingObject(t *testing.T) {
	t.Parallel()
	s := newS3WithClient(newFakeS3(), "evidence", "")
	rel := RelPath(Digest([]byte("x")))

	_, err := s.Get(context.Background(), rel)
	require.ErrorIs(t, err, domain.ErrStorage)
	require.ErrorIs(t, err, ErrObjectMissing)

	exists, err := s.Exists(context.Background(), rel)
	require.NoError(t, err)
	assert.False(t, exists)
}
