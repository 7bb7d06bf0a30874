// Package header reads and writes the frequency table that precedes a
// compressed payload.
//
// Two layouts exist. The legacy layout is a delimiter-based text grammar,
// wire compatible with streams produced by the original ezip tool:
//
//	Header := "%%" Entry* "--"
//	Entry  := Symbol "!!" Digit+ "%%"
//
// Its fields are framed only by the literal bytes '%', '!' and '-', with no
// escaping, length prefix or checksum. Symbols that are themselves delimiter
// bytes survive only because entries are parsed by position; a reader that
// scans for delimiters instead will mis-frame them. A damaged stream that
// still fits the grammar is accepted as is. The framed layout exists for
// callers that can give up compatibility:
//
//	Header := "EZH" Version Uvarint(n) (Symbol Uvarint(count)){n} CRC32
//
// where the big-endian IEEE CRC-32 covers every header byte before it.
package header

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"strconv"

	"github.com/huffzip/ezip/huffman"
)

// Version is the current version of the framed layout.
const Version = 1

// MaxRecords is the largest number of entries a header can hold, one per byte value.
const MaxRecords = 256

var framedMagic = [3]byte{'E', 'Z', 'H'}

// Format selects the header layout.
type Format uint8

const (
	// FormatLegacy is the delimiter-based layout. It is the default.
	FormatLegacy Format = iota
	// FormatFramed is the length-prefixed, checksummed layout.
	FormatFramed
	// FormatAuto detects the layout from the first byte. Only valid for reading.
	FormatAuto
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatFramed:
		return "framed"
	case FormatAuto:
		return "auto"
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// ParseFormat is the inverse of Format.String.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "legacy":
		return FormatLegacy, nil
	case "framed":
		return FormatFramed, nil
	case "auto":
		return FormatAuto, nil
	}
	return 0, fmt.Errorf("unknown header format %q", s)
}

// Header is the ordered frequency table of a compressed stream.
// Records keep the order in which symbols were first seen; the decoder
// rebuilds the same tree only if that order is preserved.
type Header struct {
	Format  Format
	Records []huffman.Record
}

// WriteTo writes the header and returns the number of bytes written.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	var bb bytes.Buffer
	switch h.Format {
	case FormatLegacy:
		h.appendLegacy(&bb)
	case FormatFramed:
		if len(h.Records) > MaxRecords {
			return 0, fmt.Errorf("header: %d records, at most %d allowed", len(h.Records), MaxRecords)
		}
		h.appendFramed(&bb)
	default:
		return 0, fmt.Errorf("header: cannot write format %s", h.Format)
	}
	n, err := w.Write(bb.Bytes())
	return int64(n), err
}

func (h *Header) appendLegacy(bb *bytes.Buffer) {
	var digits [20]byte
	bb.WriteString("%%")
	for _, r := range h.Records {
		bb.WriteByte(r.Symbol)
		bb.WriteString("!!")
		bb.Write(strconv.AppendUint(digits[:0], r.Count, 10))
		bb.WriteString("%%")
	}
	bb.WriteString("--")
}

func (h *Header) appendFramed(bb *bytes.Buffer) {
	var varint [binary.MaxVarintLen64]byte
	bb.Write(framedMagic[:])
	bb.WriteByte(Version)
	bb.Write(varint[:binary.PutUvarint(varint[:], uint64(len(h.Records)))])
	for _, r := range h.Records {
		bb.WriteByte(r.Symbol)
		bb.Write(varint[:binary.PutUvarint(varint[:], r.Count)])
	}
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc32.ChecksumIEEE(bb.Bytes()))
	bb.Write(sum[:])
}

// ReadFrom parses a header and returns the exact number of header bytes
// consumed. With FormatAuto the detected layout is stored in h.Format.
// Grammar violations are reported as *FormatError; other errors come from r.
//
// If r is not an io.ByteReader it is buffered, and bytes after the header may
// be consumed from r without being counted.
func (h *Header) ReadFrom(r io.Reader) (int64, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	c := &counter{r: br}

	first, err := c.readByte()
	if err != nil {
		return c.n, err
	}

	format := h.Format
	if format == FormatAuto {
		switch first {
		case '%':
			format = FormatLegacy
		case framedMagic[0]:
			format = FormatFramed
		default:
			return c.n, c.formatError("not a compressed stream", ErrUnknownFormat)
		}
	}

	var records []huffman.Record
	switch format {
	case FormatLegacy:
		records, err = readLegacy(c, first)
	case FormatFramed:
		records, err = readFramed(c, first)
	default:
		return c.n, fmt.Errorf("header: cannot read format %s", format)
	}
	if err != nil {
		return c.n, err
	}

	h.Format = format
	h.Records = records
	return c.n, nil
}

func readLegacy(c *counter, first byte) ([]huffman.Record, error) {
	if first != '%' {
		return nil, c.formatError("missing %% prefix", ErrUnknownFormat)
	}
	if err := c.expect('%'); err != nil {
		return nil, err
	}

	var seen [256]bool
	records := make([]huffman.Record, 0, 16)
	for {
		symbol, err := c.readByte()
		if err != nil {
			return nil, err
		}
		next, err := c.readByte()
		if err != nil {
			return nil, err
		}
		if symbol == '-' && next == '-' {
			return records, nil
		}
		if next != '!' {
			return nil, c.formatError(fmt.Sprintf("expected '!' after symbol, found %q", next), nil)
		}
		if err = c.expect('!'); err != nil {
			return nil, err
		}

		var digits []byte
		b, err := c.readByte()
		for err == nil && b >= '0' && b <= '9' {
			digits = append(digits, b)
			b, err = c.readByte()
		}
		if err != nil {
			return nil, err
		}
		if len(digits) == 0 {
			return nil, c.formatError(fmt.Sprintf("expected a digit, found %q", b), nil)
		}
		count, perr := strconv.ParseUint(string(digits), 10, 64)
		if perr != nil {
			return nil, c.formatError("bad count "+string(digits), perr)
		}
		if b != '%' {
			return nil, c.formatError(fmt.Sprintf("expected '%%' after count, found %q", b), nil)
		}
		if err = c.expect('%'); err != nil {
			return nil, err
		}

		if seen[symbol] {
			return nil, c.formatError(fmt.Sprintf("symbol %#02x listed twice", symbol), nil)
		}
		seen[symbol] = true
		records = append(records, huffman.Record{Symbol: symbol, Count: count})
	}
}

func readFramed(c *counter, first byte) ([]huffman.Record, error) {
	c.sum = crc32.NewIEEE()
	c.sum.Write([]byte{first})

	if first != framedMagic[0] {
		return nil, c.formatError("bad magic", ErrUnknownFormat)
	}
	for _, m := range framedMagic[1:] {
		if err := c.expect(m); err != nil {
			return nil, err
		}
	}
	version, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, c.formatError(fmt.Sprintf("unsupported header version %d", version), nil)
	}

	n, err := c.readUvarint()
	if err != nil {
		return nil, err
	}
	if n > MaxRecords {
		return nil, c.formatError(fmt.Sprintf("%d records, at most %d allowed", n, MaxRecords), nil)
	}

	var seen [256]bool
	records := make([]huffman.Record, n)
	for i := range records {
		if records[i].Symbol, err = c.readByte(); err != nil {
			return nil, err
		}
		if records[i].Count, err = c.readUvarint(); err != nil {
			return nil, err
		}
		if seen[records[i].Symbol] {
			return nil, c.formatError(fmt.Sprintf("symbol %#02x listed twice", records[i].Symbol), nil)
		}
		seen[records[i].Symbol] = true
	}

	want := c.sum.Sum32()
	c.sum = nil
	var got [4]byte
	for i := range got {
		if got[i], err = c.readByte(); err != nil {
			return nil, err
		}
	}
	if binary.BigEndian.Uint32(got[:]) != want {
		return nil, c.formatError("checksum mismatch", ErrChecksum)
	}
	return records, nil
}

// counter reads bytes one at a time, counting them and optionally hashing them.
type counter struct {
	r   io.ByteReader
	n   int64
	sum hash.Hash32
	err error // last error returned by readByte
}

// readByte returns the next header byte. Running out of input inside a
// header is a format error; any other read failure is returned unchanged.
func (c *counter) readByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.err = c.formatError("unexpected end of header", io.ErrUnexpectedEOF)
		} else {
			c.err = err
		}
		return 0, c.err
	}
	c.n++
	if c.sum != nil {
		c.sum.Write([]byte{b})
	}
	return b, nil
}

// ReadByte lets binary.ReadUvarint consume from the counter.
func (c *counter) ReadByte() (byte, error) {
	return c.readByte()
}

func (c *counter) expect(want byte) error {
	b, err := c.readByte()
	if err != nil {
		return err
	}
	if b != want {
		return c.formatError(fmt.Sprintf("expected %q, found %q", want, b), nil)
	}
	return nil
}

func (c *counter) readUvarint() (uint64, error) {
	c.err = nil
	v, err := binary.ReadUvarint(c)
	if err != nil {
		if c.err != nil {
			return 0, c.err
		}
		return 0, c.formatError("varint overflows 64 bits", err)
	}
	return v, nil
}

func (c *counter) formatError(reason string, err error) *FormatError {
	return &FormatError{Offset: c.n, Reason: reason, Err: err}
}
