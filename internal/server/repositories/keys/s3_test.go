package keys

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket. pageSize forces pagination in List.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	pageSize int
	putErr   error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}, pageSize: 2} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var names []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	start := 0
	if in.ContinuationToken != nil {
		start = sort.SearchStrings(names, *in.ContinuationToken)
	}
	end := min(start+f.pageSize, len(names))

	out := &s3.ListObjectsV2Output{}
	for _, n := range names[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(n)})
	}
	if end < len(names) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(names[end])
	}
	return out, nil
}

func TestS3Repository_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	r := NewS3Repository(fake, "bucket", "keychain/")
	ctx := context.Background()

	for _, id := range []string{"SECRET_KEY", "a/b", "c d", "e"} {
		require.NoError(t, r.Save(ctx, id, []byte("sealed-"+id)))
	}
	_, ok := fake.objects["keychain/a%2Fb"]
	assert.True(t, ok, "ids are escaped into a single path segment")

	got, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, []byte("sealed-a/b"), got["a/b"])
	assert.Equal(t, []byte("sealed-c d"), got["c d"])

	require.NoError(t, r.Delete(ctx, "a/b"))
	got, err = r.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, got, "a/b")
}

func TestS3Repository_IgnoresForeignObjects(t *testing.T) {
	fake := newFakeS3()
	fake.objects["keychain/nested/object"] = []byte("x")
	fake.objects["other/SECRET_KEY"] = []byte("x")
	r := NewS3Repository(fake, "bucket", "keychain/")

	got, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestS3Repository_SaveAllReplaces(t *testing.T) {
	fake := newFakeS3()
	r := NewS3Repository(fake, "bucket", "k/")
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "stale", []byte("x")))
	require.NoError(t, r.SaveAll(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}))

	got, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)
}

func TestS3Repository_SaveError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	r := NewS3Repository(fake, "bucket", "")

	err := r.Save(context.Background(), "k", []byte("v"))
	assert.ErrorContains(t, err, "access denied")
}

func TestNewS3Client_AppliesOptions(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minioadmin", creds.AccessKeyID)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	_, err := NewS3Client(context.Background(), S3Options{
		Region: "us-east-1", User: "minioadmin", Password: "minioadmin", Endpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Client_LoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("boom")
	}
	_, err := NewS3Client(context.Background(), S3Options{Region: "r"})
	assert.ErrorContains(t, err, "boom")
}
