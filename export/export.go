// Package export writes batches to a compressed stream and reads them back.
//
// A stream is a snappy framed stream of msgpack encoded arrays, one per
// batch, with no header. Streams written by several Writers can be
// concatenated.
package export

import (
	"io"

	"github.com/MasterOfBinary/geobatch/array"
	"github.com/MasterOfBinary/geobatch/batch"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/tinylib/msgp/msgp"
)

// Writer encodes arrays to an underlying io.Writer.
type Writer struct {
	sw *snappy.Writer
	mw *msgp.Writer

	count  int
	closed bool
}

// NewWriter returns a Writer writing to w. Close must be called to flush
// the stream; it does not close w.
func NewWriter(w io.Writer) *Writer {
	sw := snappy.NewBufferedWriter(w)
	return &Writer{
		sw: sw,
		mw: msgp.NewWriter(sw),
	}
}

// Write appends one array to the stream.
func (w *Writer) Write(a *array.Array) error {
	if w.closed {
		return errors.New("write to closed export writer")
	}
	if a == nil {
		return errors.New("cannot export a nil array")
	}
	if err := a.EncodeMsg(w.mw); err != nil {
		return errors.Wrapf(err, "encoding array %d", w.count)
	}
	w.count++
	return nil
}

// WriteAll writes every batch of it and returns the number written. It stops
// at the first error and always closes it.
func (w *Writer) WriteAll(it *batch.Iterator) (int, error) {
	n := 0
	for a, err := range it.All() {
		if err != nil {
			return n, err
		}
		if err := w.Write(a); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Count returns the number of arrays written.
func (w *Writer) Count() int {
	return w.count
}

// Close flushes the stream. It is safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.mw.Flush(); err != nil {
		return err
	}
	return w.sw.Close()
}

// Reader decodes arrays written by Writer.
type Reader struct {
	mr    *msgp.Reader
	count int
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{mr: msgp.NewReader(snappy.NewReader(r))}
}

// Next returns the next array, or io.EOF at the end of the stream.
func (r *Reader) Next() (*array.Array, error) {
	if _, err := r.mr.R.Peek(1); err == io.EOF {
		return nil, io.EOF
	} else if err != nil {
		return nil, errors.Wrapf(err, "reading array %d", r.count)
	}

	a := new(array.Array)
	if err := a.DecodeMsg(r.mr); err != nil {
		return nil, errors.Wrapf(err, "decoding array %d", r.count)
	}
	r.count++
	return a, nil
}
