package ezip

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/huffzip/ezip/bitstream"
	"github.com/huffzip/ezip/header"
	"github.com/huffzip/ezip/huffman"
)

// Compressor encodes data in two passes: one to count bytes, one to emit codes.
// It holds no per-run state and may be used from several goroutines.
type Compressor struct {
	format header.Format
	log    logrus.FieldLogger
}

// NewCompressor returns a compressor writing headers in opts.Format.
func NewCompressor(opts Options) (*Compressor, error) {
	switch opts.Format {
	case header.FormatLegacy, header.FormatFramed:
	default:
		return nil, fmt.Errorf("ezip: cannot compress with header format %s", opts.Format)
	}
	return &Compressor{format: opts.Format, log: opts.logger()}, nil
}

// Compress reads in from its current position to the end, seeks back and
// reads it again, writing the compressed stream to out. in must not change
// between the two passes.
func (c *Compressor) Compress(in io.ReadSeeker, out io.Writer) (stats Stats, err error) {
	start, err := in.Seek(0, io.SeekCurrent)
	if err != nil {
		return stats, classify(PassAnalysis, err)
	}

	// first pass: frequencies
	records, n, err := huffman.Analyze(in)
	if err != nil {
		return stats, classify(PassAnalysis, err)
	}
	stats.InputBytes = n
	stats.Symbols = len(records)
	c.log.WithFields(logrus.Fields{
		"pass":    PassAnalysis,
		"bytes":   n,
		"symbols": len(records),
	}).Debug("counted input bytes")

	var (
		tree  *huffman.Tree
		table huffman.Table
	)
	if len(records) > 0 {
		if tree, err = huffman.NewTree(records); err != nil {
			return stats, &Error{Kind: KindInternal, Pass: PassAnalysis, Err: err}
		}
		table = huffman.NewTable(tree)
		stats.PayloadBits = table.BitLen(records)
	}

	hdr := header.Header{Format: c.format, Records: records}
	if stats.HeaderBytes, err = hdr.WriteTo(out); err != nil {
		return stats, classify(PassHeader, err)
	}
	stats.OutputBytes = stats.HeaderBytes + int64((stats.PayloadBits+7)/8)
	c.log.WithFields(logrus.Fields{
		"pass":         PassHeader,
		"format":       c.format,
		"header_bytes": stats.HeaderBytes,
	}).Debug("wrote header")

	if tree == nil {
		return stats, nil
	}
	if tree.Degenerate() {
		c.log.WithField("pass", PassPayload).Debug("single symbol input, no payload bits")
		return stats, nil
	}

	// second pass: codes
	if _, err = in.Seek(start, io.SeekStart); err != nil {
		return stats, classify(PassPayload, err)
	}
	bw := bitstream.NewWriter(out)
	defer func() {
		if cerr := bw.Close(); cerr != nil && err == nil {
			err = classify(PassPayload, cerr)
		}
	}()

	m, err := io.Copy(huffman.NewEncoder(table, bw), in)
	if err != nil {
		return stats, classify(PassPayload, err)
	}
	if m != n {
		return stats, &Error{
			Kind: KindInternal,
			Pass: PassPayload,
			Err:  fmt.Errorf("input changed between passes: read %d bytes, then %d", n, m),
		}
	}
	c.log.WithFields(logrus.Fields{
		"pass": PassPayload,
		"bits": bw.BitsWritten(),
	}).Debug("wrote payload")
	return stats, nil
}
