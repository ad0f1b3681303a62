package batch

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/MasterOfBinary/geobatch/grid"
	"github.com/MasterOfBinary/geobatch/preprocess"
	"github.com/MasterOfBinary/geobatch/raster"
	"github.com/pkg/errors"
)

// Batcher reads batches of samples from a raster source.
//
// Create one with New. A Batcher is safe for concurrent use; changing the
// source does not affect iterators that are already running, since each
// owns its own view.
type Batcher struct {
	config     Config
	logger     Logger
	stats      StatsCollector
	preprocess *preprocess.Pipeline
	limits     ResourceLimits

	mu      sync.Mutex
	src     raster.Source
	uri     string
	profile raster.Profile
}

// New returns a Batcher with no source.
func New(config Config) *Batcher {
	return &Batcher{
		config:     config,
		logger:     &NoOpLogger{},
		stats:      &NoOpStatsCollector{},
		preprocess: preprocess.New(),
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func (b *Batcher) WithLogger(logger Logger) *Batcher {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	b.logger = logger
	return b
}

// WithStats sets the stats collector. A nil collector disables stats.
func (b *Batcher) WithStats(stats StatsCollector) *Batcher {
	if stats == nil {
		stats = &NoOpStatsCollector{}
	}
	b.stats = stats
	return b
}

// WithPreprocess replaces the preprocessing pipeline.
func (b *Batcher) WithPreprocess(p *preprocess.Pipeline) *Batcher {
	if p == nil {
		p = preprocess.New()
	}
	b.preprocess = p
	return b
}

// WithResourceLimits bounds the memory used by each flow.
func (b *Batcher) WithResourceLimits(limits ResourceLimits) *Batcher {
	b.limits = limits
	return b
}

// Config returns the Batcher's configuration.
func (b *Batcher) Config() Config {
	return b.config
}

// Preprocess returns the pipeline applied to every sample. Changes made to
// it affect flows started afterwards.
func (b *Batcher) Preprocess() *preprocess.Pipeline {
	return b.preprocess
}

// Stats returns a snapshot of the stats collector.
func (b *Batcher) Stats() Stats {
	return b.stats.GetStats()
}

// SetSource closes the current source, if any, and opens uri with the
// backend registered for its scheme.
func (b *Batcher) SetSource(ctx context.Context, uri string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.closeLocked(); err != nil {
		b.logger.Warn("closing raster %s: %v", b.uri, err)
	}

	src, err := raster.Open(ctx, uri)
	if err != nil {
		b.stats.RecordSourceError()
		return err
	}
	b.setLocked(src, uri)
	return nil
}

// SetRaster closes the current source, if any, and uses src instead. The
// Batcher takes ownership of src and closes it on replacement or Close.
func (b *Batcher) SetRaster(src raster.Source) error {
	if src == nil {
		return geobatch.InvalidParameter("nil raster source")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.closeLocked(); err != nil {
		b.logger.Warn("closing raster %s: %v", b.uri, err)
	}
	b.setLocked(src, "")
	return nil
}

func (b *Batcher) setLocked(src raster.Source, uri string) {
	b.src = src
	b.uri = uri
	b.profile = src.Profile()
	b.logger.Info("raster %s: %dx%d, %d bands, crs %q, resolution %gx%g",
		uri, b.profile.Width, b.profile.Height, b.profile.BandCount, b.profile.CRS, b.profile.XRes, b.profile.YRes)
}

func (b *Batcher) closeLocked() error {
	if b.src == nil {
		return nil
	}
	err := b.src.Close()
	b.src = nil
	b.uri = ""
	b.profile = raster.Profile{}
	return err
}

// Close closes the source. The Batcher can be reused after SetSource.
func (b *Batcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked()
}

// Profile returns the cached profile of the source.
func (b *Batcher) Profile() (raster.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.src == nil {
		return raster.Profile{}, errors.Wrap(geobatch.ErrNotConfigured, "no raster source")
	}
	return b.profile, nil
}

// RegularGrid covers the source's bounds with width x height tiles in the
// source's CRS. opts are passed to grid.RegularGrid.
func (b *Batcher) RegularGrid(width, height float64, opts ...grid.Option) (*grid.Table, error) {
	p, err := b.Profile()
	if err != nil {
		return nil, err
	}
	return grid.RegularGrid(p.Bounds(), width, height, append([]grid.Option{grid.WithCRS(p.CRS)}, opts...)...)
}

// RandomGrid places count width x height tiles at random inside the
// source's bounds.
func (b *Batcher) RandomGrid(width, height float64, count int, opts ...grid.Option) (*grid.Table, error) {
	p, err := b.Profile()
	if err != nil {
		return nil, err
	}
	return grid.RandomGrid(p.Bounds(), width, height, count, append([]grid.Option{grid.WithCRS(p.CRS)}, opts...)...)
}

// Flow returns an iterator over batches of samples for the rows of table.
// Each sample covers one row's bounding box resampled to width x height
// pixels, and each batch holds batchSize samples except possibly the last.
//
// The preprocessing pipeline is captured when Flow is called.
func (b *Batcher) Flow(ctx context.Context, table *grid.Table, width, height, batchSize int, opts ...FlowOption) (*Iterator, error) {
	if width <= 0 || height <= 0 {
		return nil, geobatch.InvalidParameter("sample size %dx%d must be positive", width, height)
	}
	if batchSize <= 0 {
		return nil, geobatch.InvalidParameter("batch size %d must be positive", batchSize)
	}
	if table == nil {
		return nil, geobatch.InvalidParameter("nil sample table")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if err := b.limits.Validate(); err != nil {
		return nil, err
	}

	fo := flowOptions{shuffle: b.config.Shuffle, seed: b.config.Seed}
	for _, opt := range opts {
		opt(&fo)
	}

	b.mu.Lock()
	src, profile := b.src, b.profile
	b.mu.Unlock()
	if src == nil {
		return nil, errors.Wrap(geobatch.ErrNotConfigured, "no raster source")
	}

	bands, err := raster.ResolveBands(b.config.Bands.Indices(), profile.BandCount)
	if err != nil {
		return nil, err
	}
	if err := b.limits.checkBatch(min(batchSize, table.Len()), len(bands), width, height); err != nil {
		return nil, err
	}

	it := &Iterator{
		ctx:       ctx,
		width:     width,
		height:    height,
		batchSize: batchSize,
		bands:     bands,
		scalar:    b.config.Bands.IsScalar(),
		pixel:     b.config.Interleave == PixelInterleave,
		nodata:    profile.NoData,
		pipeline:  b.preprocess.Clone(),
		logger:    b.logger,
		stats:     b.stats,
	}
	if table.Len() == 0 {
		it.table = table
		it.closed = true
		return it, nil
	}

	viewCRS, err := resolveCRS(table.CRS(), profile.CRS)
	if err != nil {
		return nil, err
	}

	if fo.shuffle {
		seed := fo.seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		table = table.Shuffle(rand.New(rand.NewSource(seed)))
	}
	it.table = table

	var sumW, sumH float64
	for i := 0; i < table.Len(); i++ {
		bound := table.Bound(i)
		sumW += bound.Max[0] - bound.Min[0]
		sumH += bound.Max[1] - bound.Min[1]
	}
	n := float64(table.Len())
	xres, yres := sumW/n/float64(width), sumH/n/float64(height)
	if !(xres > 0) || !(yres > 0) || math.IsInf(xres, 0) || math.IsInf(yres, 0) {
		return nil, geobatch.InvalidParameter("samples have degenerate mean size %gx%g", sumW/n, sumH/n)
	}

	ext, err := table.TotalBounds()
	if err != nil {
		return nil, err
	}
	viewOpts := raster.ViewOptions{
		CRS:        viewCRS,
		Transform:  raster.FromOrigin(ext.XMin, ext.YMax, xres, yres),
		Width:      max(int(math.Ceil(ext.Width()/xres-1e-9)), 1),
		Height:     max(int(math.Ceil(ext.Height()/yres-1e-9)), 1),
		Resampling: b.config.Resampling,
	}
	view, err := src.OpenView(viewOpts)
	if err != nil {
		b.stats.RecordSourceError()
		return nil, err
	}
	it.view = view
	it.transform = view.Profile().Transform

	b.logger.Info("flow: %d samples of %dx%d in batches of %d, view %dx%d at %gx%g",
		table.Len(), width, height, batchSize, viewOpts.Width, viewOpts.Height, xres, yres)
	return it, nil
}

// resolveCRS picks the CRS the view is built in. The table's CRS wins; a
// table and raster must either both declare a CRS or both leave it unset.
func resolveCRS(table, source crs.CRS) (crs.CRS, error) {
	switch {
	case table.IsZero() && source.IsZero():
		return "", nil
	case table.IsZero():
		return "", geobatch.InvalidParameter("sample table has no crs but the raster is in %s", source)
	case source.IsZero():
		return "", geobatch.InvalidParameter("raster has no crs but the sample table is in %s", table)
	default:
		return table, nil
	}
}
