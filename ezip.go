// Package ezip compresses and decompresses files with a static, two-pass
// Huffman code over bytes.
//
// A compressed stream is a header listing each distinct input byte with its
// count, in the order the bytes were first seen, followed immediately by the
// packed codes of the input, most significant bit first, zero padded to a
// whole byte. The decoder rebuilds the code from the header alone.
package ezip

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/huffzip/ezip/header"
)

// Extension is the file name suffix of compressed files.
const Extension = ".ezip"

// Options configure a Compressor or Decompressor. The zero value writes and
// reads the legacy header layout and logs nothing.
type Options struct {
	// Format is the header layout. header.FormatAuto is only valid when
	// decompressing.
	Format header.Format
	// Log receives per-pass debug entries. Nil disables logging.
	Log logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Log != nil {
		return o.Log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Stats describes one compression or decompression run.
type Stats struct {
	// InputBytes is the size of the uncompressed data.
	InputBytes int64
	// HeaderBytes is the size of the header.
	HeaderBytes int64
	// PayloadBits is the number of code bits, padding excluded.
	PayloadBits uint64
	// OutputBytes is the size of the compressed stream.
	OutputBytes int64
	// Symbols is the number of distinct bytes in the data.
	Symbols int
}

// Compress is shorthand for NewCompressor(opts) followed by Compress.
func Compress(in io.ReadSeeker, out io.Writer, opts Options) (Stats, error) {
	c, err := NewCompressor(opts)
	if err != nil {
		return Stats{}, err
	}
	return c.Compress(in, out)
}

// Decompress is shorthand for NewDecompressor(opts) followed by Decompress.
func Decompress(in io.ReadSeeker, out io.Writer, opts Options) (Stats, error) {
	return NewDecompressor(opts).Decompress(in, out)
}
