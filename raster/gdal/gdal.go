// Package gdal implements the raster backend on top of GDAL through godal.
//
// Importing the package registers every GDAL driver and the "file", "http"
// and "https" schemes. Remote rasters are read through /vsicurl/. Views are
// warped VRT datasets kept in /vsimem/.
package gdal

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/array"
	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/MasterOfBinary/geobatch/grid"
	"github.com/MasterOfBinary/geobatch/raster"
	"github.com/airbusgeo/godal"
	"github.com/pkg/errors"
)

func init() {
	godal.RegisterAll()
	raster.Register("file", Open)
	raster.Register("http", Open)
	raster.Register("https", Open)
}

// Dataset is a raster.Source backed by a GDAL dataset.
type Dataset struct {
	mu      sync.Mutex
	ds      *godal.Dataset
	name    string
	profile raster.Profile
	closed  bool
}

var _ raster.Source = (*Dataset)(nil)

// Open opens a local path or an http(s) URL.
func Open(_ context.Context, uri string) (raster.Source, error) {
	return OpenFile(datasetName(uri))
}

func datasetName(uri string) string {
	switch raster.Scheme(uri) {
	case "http", "https":
		return "/vsicurl/" + uri
	default:
		return strings.TrimPrefix(uri, "file://")
	}
}

// OpenFile opens a dataset by its GDAL name.
func OpenFile(name string) (*Dataset, error) {
	ds, err := godal.Open(name, godal.RasterOnly())
	if err != nil {
		return nil, errors.Wrapf(geobatch.ErrSourceUnavailable, "opening %s: %v", name, err)
	}
	profile, err := readProfile(ds)
	if err != nil {
		ds.Close()
		return nil, errors.Wrapf(geobatch.ErrSourceUnavailable, "reading %s: %v", name, err)
	}
	return &Dataset{ds: ds, name: name, profile: profile}, nil
}

func readProfile(ds *godal.Dataset) (raster.Profile, error) {
	st := ds.Structure()
	if st.NBands == 0 {
		return raster.Profile{}, errors.New("dataset has no bands")
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		return raster.Profile{}, errors.Wrap(err, "geotransform")
	}
	transform := raster.GeoTransform(gt)
	xres, yres := transform.Resolution()

	nodata := math.NaN()
	if nd, ok := ds.Bands()[0].NoData(); ok {
		nodata = nd
	}

	return raster.Profile{
		CRS:       datasetCRS(ds),
		XRes:      xres,
		YRes:      yres,
		Width:     st.SizeX,
		Height:    st.SizeY,
		BandCount: st.NBands,
		NoData:    nodata,
		Transform: transform,
	}, nil
}

func datasetCRS(ds *godal.Dataset) crs.CRS {
	sr := ds.SpatialRef()
	if sr == nil {
		return ""
	}
	defer sr.Close()

	if name, code := sr.AuthorityName(""), sr.AuthorityCode(""); name != "" && code != "" {
		return crs.CRS(strings.ToUpper(name) + ":" + code)
	}
	wkt, err := sr.WKT()
	if err != nil {
		return ""
	}
	return crs.CRS(wkt)
}

// Profile implements the raster.Reader interface.
func (d *Dataset) Profile() raster.Profile {
	return d.profile
}

// Bounds implements the raster.Source interface.
func (d *Dataset) Bounds() grid.Extent {
	return d.profile.Bounds()
}

// Resolution implements the raster.Source interface.
func (d *Dataset) Resolution() (xres, yres float64) {
	return d.profile.XRes, d.profile.YRes
}

// CRS implements the raster.Source interface.
func (d *Dataset) CRS() crs.CRS {
	return d.profile.CRS
}

// BandCount implements the raster.Source interface.
func (d *Dataset) BandCount() int {
	return d.profile.BandCount
}

// NoData implements the raster.Source interface.
func (d *Dataset) NoData() float64 {
	return d.profile.NoData
}

// Index implements the raster.Reader interface.
func (d *Dataset) Index(x, y float64) (col, row int) {
	return d.profile.Transform.Index(x, y)
}

// Read returns the pixels of w as float64. Pixels outside the dataset are
// nodata.
func (d *Dataset) Read(bands []int, w raster.Window) (*array.Array, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.Errorf("read from closed dataset %s", d.name)
	}
	return readWindow(d.ds, d.profile, bands, w)
}

func readWindow(ds *godal.Dataset, profile raster.Profile, bands []int, w raster.Window) (*array.Array, error) {
	if w.Width < 0 || w.Height < 0 {
		return nil, geobatch.InvalidParameter("negative %v", w)
	}
	bands, err := raster.ResolveBands(bands, profile.BandCount)
	if err != nil {
		return nil, err
	}

	out := array.Full(profile.NoData, len(bands), w.Height, w.Width)
	clip, ok := w.Intersect(profile.Width, profile.Height)
	if !ok {
		return out, nil
	}

	dsBands := ds.Bands()
	buf := make([]float64, clip.Width*clip.Height)
	data := out.Data()
	for i, b := range bands {
		if err := dsBands[b-1].Read(clip.ColOff, clip.RowOff, buf, clip.Width, clip.Height); err != nil {
			return nil, geobatch.SourceError{Err: errors.Wrapf(err, "reading band %d %v", b, clip)}
		}
		for row := 0; row < clip.Height; row++ {
			dst := data[(i*w.Height+row+clip.RowOff-w.RowOff)*w.Width+clip.ColOff-w.ColOff:]
			copy(dst[:clip.Width], buf[row*clip.Width:(row+1)*clip.Width])
		}
	}
	return out, nil
}

// Close closes the dataset. Calling Close again is a no-op.
func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.ds.Close()
}

var viewSeq uint64

// OpenView warps the dataset into an in-memory VRT with the requested grid.
func (d *Dataset) OpenView(opts raster.ViewOptions) (raster.View, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, geobatch.InvalidParameter("view size %dx%d must be positive", opts.Width, opts.Height)
	}
	viewCRS := opts.CRS
	if viewCRS.IsZero() {
		viewCRS = d.profile.CRS
	}

	ext := raster.Profile{Width: opts.Width, Height: opts.Height, Transform: opts.Transform}.Bounds()
	switches := []string{
		"-of", "VRT",
		"-te", ff(ext.XMin), ff(ext.YMin), ff(ext.XMax), ff(ext.YMax),
		"-ts", strconv.Itoa(opts.Width), strconv.Itoa(opts.Height),
		"-r", warpResampling(opts.Resampling),
		"-dstnodata", ff(d.profile.NoData),
	}
	if !viewCRS.IsZero() {
		switches = append(switches, "-t_srs", viewCRS.String())
	}

	name := fmt.Sprintf("/vsimem/geobatch-view-%d.vrt", atomic.AddUint64(&viewSeq, 1))

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.Errorf("view of closed dataset %s", d.name)
	}
	vrt, err := d.ds.Warp(name, switches)
	if err != nil {
		return nil, geobatch.SourceError{Err: errors.Wrapf(err, "warping %s", d.name)}
	}

	xres, yres := opts.Transform.Resolution()
	return &view{
		src:  d,
		ds:   vrt,
		name: name,
		profile: raster.Profile{
			CRS:       viewCRS,
			XRes:      xres,
			YRes:      yres,
			Width:     opts.Width,
			Height:    opts.Height,
			BandCount: d.profile.BandCount,
			NoData:    d.profile.NoData,
			Transform: opts.Transform,
		},
	}, nil
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func warpResampling(r raster.Resampling) string {
	if r == raster.Nearest {
		return "near"
	}
	return r.String()
}

type view struct {
	src     *Dataset
	ds      *godal.Dataset
	name    string
	profile raster.Profile

	mu     sync.Mutex
	closed bool
}

func (v *view) Profile() raster.Profile {
	return v.profile
}

func (v *view) Index(x, y float64) (col, row int) {
	return v.profile.Transform.Index(x, y)
}

func (v *view) Read(bands []int, w raster.Window) (*array.Array, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, errors.New("read from closed view")
	}

	// the VRT reads through the source dataset handle
	v.src.mu.Lock()
	defer v.src.mu.Unlock()
	return readWindow(v.ds, v.profile, bands, w)
}

// Close closes the VRT and removes it from /vsimem/. It is safe to call more
// than once.
func (v *view) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	err := v.ds.Close()
	if uerr := godal.VSIUnlink(v.name); uerr != nil && err == nil {
		err = uerr
	}
	return err
}
