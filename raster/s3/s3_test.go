package s3

import (
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"testing"

	"github.com/MasterOfBinary/geobatch"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
	gets    int
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *awss3.GetObjectInput, _ ...request.Option) (*awss3.GetObjectOutput, error) {
	f.gets++
	data, ok := f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &awss3.GetObjectOutput{Body: ioutil.NopCloser(bytes.NewReader(data))}, nil
}

func TestFetcher_Fetch(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{
		"bucket/a/dem.tif": []byte("first"),
		"bucket/b/dem.tif": []byte("second"),
	}}
	fs := afero.NewMemMapFs()
	f, err := NewFetcher(client, fs, "/cache", 1)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := f.Fetch(ctx, "bucket", "a/dem.tif")
	require.NoError(t, err)
	data, err := afero.ReadFile(fs, first)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	assert.Contains(t, first, "dem.tif")

	again, err := f.Fetch(ctx, "bucket", "a/dem.tif")
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, client.gets, "cached object is not fetched twice")

	second, err := f.Fetch(ctx, "bucket", "b/dem.tif")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, f.Len())

	exists, err := afero.Exists(fs, first)
	require.NoError(t, err)
	assert.False(t, exists, "evicted download is removed")

	_, err = f.Fetch(ctx, "bucket", "missing.tif")
	assert.True(t, errors.Is(err, geobatch.ErrSourceUnavailable))

	_, err = NewFetcher(client, fs, "/cache", 0)
	assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
}

func TestParseURI(t *testing.T) {
	bucket, key, err := ParseURI("s3://imagery/tiles/dem.tif")
	require.NoError(t, err)
	assert.Equal(t, "imagery", bucket)
	assert.Equal(t, "tiles/dem.tif", key)

	for _, uri := range []string{"s3://bucket", "s3:///key.tif", "https://bucket/key.tif"} {
		_, _, err := ParseURI(uri)
		assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter), uri)
	}
}
