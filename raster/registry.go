package raster

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/MasterOfBinary/geobatch"
	"github.com/pkg/errors"
)

// OpenFunc opens the raster at uri.
type OpenFunc func(ctx context.Context, uri string) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]OpenFunc)
)

// Register makes a backend available for a URI scheme. Plain paths use the
// "file" scheme. Registering a scheme twice replaces the earlier backend.
func Register(scheme string, open OpenFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(scheme)] = open
}

// Schemes returns the registered schemes in sorted order.
func Schemes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	schemes := make([]string, 0, len(registry))
	for s := range registry {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// Scheme returns the scheme Open would use for uri.
func Scheme(uri string) string {
	u, err := url.Parse(uri)
	// single letter schemes are windows drive letters
	if err != nil || len(u.Scheme) <= 1 {
		return "file"
	}
	return strings.ToLower(u.Scheme)
}

// Open opens uri with the backend registered for its scheme. Failures are
// reported as ErrSourceUnavailable.
func Open(ctx context.Context, uri string) (Source, error) {
	if uri == "" {
		return nil, errors.Wrap(geobatch.ErrInvalidParameter, "empty raster uri")
	}
	scheme := Scheme(uri)

	registryMu.RLock()
	open, ok := registry[scheme]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(geobatch.ErrSourceUnavailable, "no raster backend for scheme %q", scheme)
	}

	src, err := open(ctx, uri)
	if err != nil {
		if errors.Is(err, geobatch.ErrSourceUnavailable) {
			return nil, err
		}
		return nil, errors.Wrapf(geobatch.ErrSourceUnavailable, "opening %s: %v", uri, err)
	}
	return src, nil
}

func invalidf(format string, args ...interface{}) error {
	return geobatch.InvalidParameter(format, args...)
}
