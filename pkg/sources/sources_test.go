package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/hazardkit/pkg/types"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    int
	lists   int
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++

	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	n := int64(len(data))
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(n),
		ContentRange:  aws.String(fmt.Sprintf("bytes 0-%d/%d", n-1, n)),
	}, nil
}

func (f *fakeS3) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists, f.gets
}

func TestLocalSource(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"hazard_uhs-mean_3.csv", "Mag_Dist-0_3.csv", "job.ini"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "hazard_curve-mean-PGA_3.csv"), 0755))

	src, err := NewLocalSource(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, src.Location())

	names, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Mag_Dist-0_3.csv", "hazard_uhs-mean_3.csv", "job.ini"}, names)

	data, err := ReadAll(context.Background(), src, "job.ini")
	require.NoError(t, err)
	assert.Equal(t, "job.ini", string(data))

	_, err = src.Open(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Open(context.Background(), "../etc/passwd")
	assert.Error(t, err)
}

func TestLocalSource_Errors(t *testing.T) {
	_, err := NewLocalSource(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = NewLocalSource(file)
	assert.Error(t, err)

	src, err := NewLocalSource(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	src, err := New(context.Background(), types.SourceConfig{Kind: types.SourceLocal, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalSource{}, src)

	_, err = New(context.Background(), types.SourceConfig{Kind: "ftp"})
	assert.True(t, types.IsConfigurationError(err))

	_, err = New(context.Background(), types.SourceConfig{Kind: types.SourceS3})
	assert.True(t, types.IsConfigurationError(err))
}

func TestS3Source_List(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{
		"runs/14/hazard_uhs-mean_14.csv":        []byte("uhs"),
		"runs/14/Mag_Dist-0_14.csv":             []byte("disagg"),
		"runs/14/plots/hazard_uhs_475_plot.png": []byte("png"),
		"runs/15/hazard_uhs-mean_15.csv":        []byte("other"),
	}}
	src := newS3Source(fake, types.S3Config{Bucket: "outputs", Prefix: "runs/14", CacheTTL: time.Minute})
	assert.Equal(t, "s3://outputs/runs/14/", src.Location())

	names, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Mag_Dist-0_14.csv", "hazard_uhs-mean_14.csv"}, names)

	_, err = src.List(context.Background())
	require.NoError(t, err)
	lists, _ := fake.counts()
	assert.Equal(t, 1, lists)

	src.Refresh()
	_, err = src.List(context.Background())
	require.NoError(t, err)
	lists, _ = fake.counts()
	assert.Equal(t, 2, lists)
}

func TestS3Source_EmptyListing(t *testing.T) {
	src := newS3Source(&fakeS3{objects: map[string][]byte{}}, types.S3Config{Bucket: "outputs"})
	names, err := src.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestS3Source_Open(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{
		"runs/hazard_uhs-mean_14.csv": []byte("lon,lat,0.1~PGA\n6.0,45.2,0.1\n"),
	}}
	src := newS3Source(fake, types.S3Config{Bucket: "outputs", Prefix: "runs/"})

	data, err := ReadAll(context.Background(), src, "hazard_uhs-mean_14.csv")
	require.NoError(t, err)
	assert.Equal(t, "lon,lat,0.1~PGA\n6.0,45.2,0.1\n", string(data))

	again, err := ReadAll(context.Background(), src, "hazard_uhs-mean_14.csv")
	require.NoError(t, err)
	assert.Equal(t, data, again)

	_, gets := fake.counts()
	assert.Equal(t, 1, gets)

	_, err = src.Open(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Open(context.Background(), "a/b.csv")
	assert.Error(t, err)
}

func TestObjectCache_Coalesces(t *testing.T) {
	c := newObjectCache(0, 0)

	var (
		mu    sync.Mutex
		loads int
		wg    sync.WaitGroup
	)
	release := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := c.fetch("key", func() ([]byte, error) {
				mu.Lock()
				loads++
				mu.Unlock()
				<-release
				return []byte("value"), nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "value", string(data))
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, c.len())

	_, err := c.fetch("bad", func() ([]byte, error) { return nil, ErrNotFound })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, c.len())
}
