package ezip

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/huffzip/ezip/bitstream"
	"github.com/huffzip/ezip/header"
	"github.com/huffzip/ezip/huffman"
)

// Decompressor rebuilds the Huffman tree from a stream's header and decodes
// the payload that follows it.
type Decompressor struct {
	format header.Format
	log    logrus.FieldLogger
}

// NewDecompressor returns a decompressor expecting headers in opts.Format.
func NewDecompressor(opts Options) *Decompressor {
	return &Decompressor{format: opts.Format, log: opts.logger()}
}

// Decompress parses the header at the current position of in, then seeks
// back and reads the payload bits that follow it, writing the decoded bytes
// to out. A stream that does not parse yields an error matching ErrFormat.
func (d *Decompressor) Decompress(in io.ReadSeeker, out io.Writer) (stats Stats, err error) {
	start, err := in.Seek(0, io.SeekCurrent)
	if err != nil {
		return stats, classify(PassHeader, err)
	}

	hdr := header.Header{Format: d.format}
	if stats.HeaderBytes, err = hdr.ReadFrom(in); err != nil {
		return stats, classify(PassHeader, err)
	}
	stats.Symbols = len(hdr.Records)
	stats.OutputBytes = stats.HeaderBytes
	d.log.WithFields(logrus.Fields{
		"pass":         PassHeader,
		"format":       hdr.Format,
		"header_bytes": stats.HeaderBytes,
		"symbols":      len(hdr.Records),
	}).Debug("read header")

	if len(hdr.Records) == 0 {
		return stats, nil
	}
	tree, err := huffman.NewTree(hdr.Records)
	if err != nil {
		return stats, classify(PassHeader, err)
	}
	if tree.Total > math.MaxInt64 {
		return stats, &Error{Kind: KindFormat, Pass: PassHeader, Err: fmt.Errorf("total count %d out of range", tree.Total)}
	}

	// the header and the payload share one bit-addressable stream
	if _, err = in.Seek(start, io.SeekStart); err != nil {
		return stats, classify(PassPayload, err)
	}
	br := bitstream.NewReader(in)
	if err = br.Skip(uint64(stats.HeaderBytes) * 8); err != nil {
		return stats, classify(PassPayload, err)
	}

	dec := huffman.NewDecoder(tree, br)
	stats.InputBytes, err = io.Copy(out, dec)
	if err != nil {
		return stats, classify(PassPayload, err)
	}
	stats.PayloadBits = br.BitsRead() - uint64(stats.HeaderBytes)*8
	stats.OutputBytes = stats.HeaderBytes + int64((stats.PayloadBits+7)/8)
	d.log.WithFields(logrus.Fields{
		"pass":  PassPayload,
		"bytes": stats.InputBytes,
		"bits":  stats.PayloadBits,
	}).Debug("decoded payload")
	return stats, nil
}
