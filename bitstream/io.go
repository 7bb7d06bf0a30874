// Package bitstream provides single-bit readers and writers over byte streams.
// Bits are packed most significant bit first.
package bitstream

import (
	"io"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// Bit is a single binary digit, 0 or 1.
type Bit uint8

const (
	Zero Bit = 0
	One  Bit = 1
)

// Writer buffers bits into bytes. The final partial byte is padded with zero
// bits on Close.
type Writer struct {
	bw     *bitio.Writer
	closer io.Closer // owned sink, closed after the last byte is flushed
	nbBits uint64
	closed bool
}

// NewWriter returns a Writer on w. Closing the Writer flushes pending bits but
// leaves w open.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bitio.NewWriter(w)}
}

// NewWriteCloser returns a Writer that owns w: Close flushes pending bits and
// then closes w.
func NewWriteCloser(w io.WriteCloser) *Writer {
	return &Writer{bw: bitio.NewWriter(w), closer: w}
}

// WriteBit appends one bit. Any non-zero value is written as 1.
func (w *Writer) WriteBit(b Bit) error {
	if w.closed {
		return errors.New("bitstream: write to closed writer")
	}
	if err := w.bw.WriteBool(b != 0); err != nil {
		return errors.Wrap(err, "bitstream: write bit")
	}
	w.nbBits++
	return nil
}

// WriteCode appends a sequence of bits in order.
func (w *Writer) WriteCode(code []Bit) error {
	for _, b := range code {
		if err := w.WriteBit(b); err != nil {
			return err
		}
	}
	return nil
}

// BitsWritten is the number of bits written so far, padding excluded.
func (w *Writer) BitsWritten() uint64 {
	return w.nbBits
}

// Close pads the last byte with zeros, flushes it, and releases the owned
// sink if there is one. The sink is released even if flushing fails.
// Calling Close more than once is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.bw.Close()
	if err != nil {
		err = errors.Wrap(err, "bitstream: flush")
	}
	if w.closer != nil {
		if cerr := w.closer.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "bitstream: close")
		}
	}
	return err
}

// Reader reads single bits from a byte stream.
type Reader struct {
	br     *bitio.Reader
	closer io.Closer
	nbBits uint64
}

// NewReader returns a Reader on r. Closing the Reader leaves r open.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bitio.NewReader(r)}
}

// NewReadCloser returns a Reader that closes r on Close.
func NewReadCloser(r io.ReadCloser) *Reader {
	return &Reader{br: bitio.NewReader(r), closer: r}
}

// ReadBit returns the next bit. Once the underlying stream is exhausted it
// returns io.EOF, unwrapped, on every call. It is the caller's job to know how
// many of the bits read are meaningful.
func (r *Reader) ReadBit() (Bit, error) {
	b, err := r.br.ReadBool()
	if err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, errors.Wrap(err, "bitstream: read bit")
	}
	r.nbBits++
	if b {
		return One, nil
	}
	return Zero, nil
}

// Skip discards nbBits bits. It returns io.EOF if the stream ends first.
func (r *Reader) Skip(nbBits uint64) error {
	for nbBits >= 64 {
		if _, err := r.br.ReadBits(64); err != nil {
			return r.skipError(err)
		}
		r.nbBits += 64
		nbBits -= 64
	}
	if nbBits == 0 {
		return nil
	}
	if _, err := r.br.ReadBits(uint8(nbBits)); err != nil {
		return r.skipError(err)
	}
	r.nbBits += nbBits
	return nil
}

func (r *Reader) skipError(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return io.EOF
	}
	return errors.Wrap(err, "bitstream: skip")
}

// BitsRead is the number of bits consumed so far, skipped bits included.
func (r *Reader) BitsRead() uint64 {
	return r.nbBits
}

// Close releases the owned source, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	return c.Close()
}
