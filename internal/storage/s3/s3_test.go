package s3store

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-tams/deltapurge/internal/storage/prunable"
)

type fakeS3 struct {
	mu        sync.Mutex
	deletes   []*s3.DeleteObjectsInput
	deleteOut *s3.DeleteObjectsOutput
	deleteErr error
	pages     [][]types.Object
	objects   map[string]string
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := 0
	if in.ContinuationToken != nil {
		page = len(aws.ToString(in.ContinuationToken))
	}
	out := &s3.ListObjectsV2Output{Contents: f.pages[page], IsTruncated: aws.Bool(page+1 < len(f.pages))}
	if page+1 < len(f.pages) {
		out.NextContinuationToken = aws.String(strings.Repeat("x", page+1))
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, in)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	if f.deleteOut != nil {
		return f.deleteOut, nil
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func TestDeleteObjectsSendsOneQuietRequest(t *testing.T) {
	fake := &fakeS3{}
	st := NewWithClient("s3", "bucket", fake)

	err := st.DeleteObjects(context.Background(), []string{"table/a/1.parquet", "table/a/2.parquet"})
	require.NoError(t, err)

	require.Len(t, fake.deletes, 1)
	in := fake.deletes[0]
	assert.Equal(t, "bucket", aws.ToString(in.Bucket))
	require.NotNil(t, in.Delete)
	assert.True(t, aws.ToBool(in.Delete.Quiet))
	require.Len(t, in.Delete.Objects, 2)
	assert.Equal(t, "table/a/1.parquet", aws.ToString(in.Delete.Objects[0].Key))
	assert.Equal(t, "table/a/2.parquet", aws.ToString(in.Delete.Objects[1].Key))
}

func TestDeleteObjectsEmptyIsNoop(t *testing.T) {
	fake := &fakeS3{}
	st := NewWithClient("s3", "bucket", fake)

	require.NoError(t, st.DeleteObjects(context.Background(), nil))
	assert.Empty(t, fake.deletes)
}

func TestDeleteObjectsRejectsOversizedRequest(t *testing.T) {
	fake := &fakeS3{}
	st := NewWithClient("s3", "bucket", fake)

	keys := make([]string, MaxDeleteKeys+1)
	for i := range keys {
		keys[i] = "k"
	}
	require.Error(t, st.DeleteObjects(context.Background(), keys))
	assert.Empty(t, fake.deletes)
}

func TestDeleteObjectsPerKeyErrorsFailTheRequest(t *testing.T) {
	fake := &fakeS3{deleteOut: &s3.DeleteObjectsOutput{
		Errors: []types.Error{{Key: aws.String("table/b"), Code: aws.String("AccessDenied"), Message: aws.String("denied")}},
	}}
	st := NewWithClient("s3", "bucket", fake)

	err := st.DeleteObjects(context.Background(), []string{"table/a", "table/b"})
	var partial *PartialDeleteError
	require.ErrorAs(t, err, &partial)
	require.Len(t, partial.Failed, 1)
	assert.Equal(t, "table/b", partial.Failed[0].Key)
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestDeleteObjectsWrapsAPIError(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "SlowDown", Message: "reduce your request rate"}
	fake := &fakeS3{deleteErr: apiErr}
	st := NewWithClient("s3", "bucket", fake)

	err := st.DeleteObjects(context.Background(), []string{"table/a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apiErr))
	assert.Contains(t, err.Error(), "SlowDown")
}

func TestListFollowsPagination(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fake := &fakeS3{pages: [][]types.Object{
		{{Key: aws.String("table/a"), Size: aws.Int64(10), LastModified: aws.Time(now)}},
		{{Key: aws.String("table/b"), Size: aws.Int64(20), LastModified: aws.Time(now)}},
	}}
	st := NewWithClient("s3", "bucket", fake)

	objs, err := st.List(context.Background(), "table/")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, prunable.ObjectInfo{Key: "table/a", Size: 10, ModTime: now}, objs[0])
	assert.Equal(t, "table/b", objs[1].Key)
}

func TestReadObjectNotFound(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"table/_delta_log/00000000000000000000.json": "{}"}}
	st := NewWithClient("s3", "bucket", fake)

	data, err := st.ReadObject(context.Background(), "table/_delta_log/00000000000000000000.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	_, err = st.ReadObject(context.Background(), "table/_delta_log/_last_checkpoint")
	assert.ErrorIs(t, err, prunable.ErrNotFound)
}
