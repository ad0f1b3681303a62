// Package s3 opens rasters stored in S3. Objects are downloaded into a local
// cache directory and read with the GDAL backend; the least recently used
// downloads are removed once the cache is full.
package s3

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/raster"
	"github.com/MasterOfBinary/geobatch/raster/gdal"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultCacheSize is the number of downloaded objects kept on disk.
const DefaultCacheSize = 16

func init() {
	raster.Register("s3", Open)
}

// Fetcher downloads S3 objects into a cache directory.
type Fetcher struct {
	client s3iface.S3API
	fs     afero.Fs
	dir    string

	mu    sync.Mutex
	cache *lru.Cache
}

// NewFetcher returns a Fetcher storing at most size objects under dir.
func NewFetcher(client s3iface.S3API, fs afero.Fs, dir string, size int) (*Fetcher, error) {
	if size <= 0 {
		return nil, geobatch.InvalidParameter("cache size %d must be positive", size)
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating cache dir %s", dir)
	}

	f := &Fetcher{client: client, fs: fs, dir: dir}
	cache, err := lru.NewWithEvict(size, func(_, value interface{}) {
		f.fs.Remove(value.(string))
	})
	if err != nil {
		return nil, err
	}
	f.cache = cache
	return f, nil
}

// Fetch downloads s3://bucket/key unless it is already cached and returns
// the local path.
func (f *Fetcher) Fetch(ctx context.Context, bucket, key string) (string, error) {
	id := bucket + "/" + key

	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.cache.Get(id); ok {
		return p.(string), nil
	}

	out, err := f.client.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", errors.Wrapf(geobatch.ErrSourceUnavailable, "fetching s3://%s: %v", id, err)
	}
	defer out.Body.Close()

	local := filepath.Join(f.dir, cacheName(bucket, key))
	file, err := f.fs.Create(local)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", local)
	}
	if _, err := io.Copy(file, out.Body); err != nil {
		file.Close()
		f.fs.Remove(local)
		return "", errors.Wrapf(geobatch.ErrSourceUnavailable, "downloading s3://%s: %v", id, err)
	}
	if err := file.Close(); err != nil {
		f.fs.Remove(local)
		return "", errors.Wrapf(err, "writing %s", local)
	}

	f.cache.Add(id, local)
	return local, nil
}

// Len returns the number of cached objects.
func (f *Fetcher) Len() int {
	return f.cache.Len()
}

// cacheName keeps the object's base name so GDAL can still guess the format
// from the extension.
func cacheName(bucket, key string) string {
	h := fnv.New64a()
	h.Write([]byte(bucket + "/" + key))
	return fmt.Sprintf("%016x-%s", h.Sum64(), path.Base(key))
}

// Open fetches and opens the raster at uri.
func (f *Fetcher) Open(ctx context.Context, uri string) (raster.Source, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	local, err := f.Fetch(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return gdal.OpenFile(local)
}

// ParseURI splits s3://bucket/key.
func ParseURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", errors.Wrap(geobatch.ErrInvalidParameter, err.Error())
	}
	if !strings.EqualFold(u.Scheme, "s3") || u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return "", "", geobatch.InvalidParameter("%q is not an s3://bucket/key uri", uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

var (
	defaultMu      sync.Mutex
	defaultFetcher *Fetcher
)

// SetDefault replaces the Fetcher used for "s3" URIs opened through
// raster.Open.
func SetDefault(f *Fetcher) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultFetcher = f
}

// Open opens uri with the default Fetcher, creating one from the
// environment's AWS session on first use.
func Open(ctx context.Context, uri string) (raster.Source, error) {
	defaultMu.Lock()
	if defaultFetcher == nil {
		sess, err := session.NewSession()
		if err != nil {
			defaultMu.Unlock()
			return nil, errors.Wrapf(geobatch.ErrSourceUnavailable, "aws session: %v", err)
		}
		fs := afero.NewOsFs()
		dir := filepath.Join(afero.GetTempDir(fs, ""), "geobatch-s3")
		f, err := NewFetcher(awss3.New(sess), fs, dir, DefaultCacheSize)
		if err != nil {
			defaultMu.Unlock()
			return nil, err
		}
		defaultFetcher = f
	}
	f := defaultFetcher
	defaultMu.Unlock()

	return f.Open(ctx, uri)
}
