package ezip

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huffzip/ezip/header"
)

func testRoundTrip(t *testing.T, d []byte, format header.Format) []byte {
	var c bytes.Buffer
	cStats, err := Compress(bytes.NewReader(d), &c, Options{Format: format})
	require.NoError(t, err)
	require.Equal(t, int64(len(d)), cStats.InputBytes)
	require.Equal(t, int64(c.Len()), cStats.OutputBytes)

	var dBack bytes.Buffer
	dStats, err := Decompress(bytes.NewReader(c.Bytes()), &dBack, Options{Format: header.FormatAuto})
	require.NoError(t, err)

	if !bytes.Equal(d, dBack.Bytes()) {
		t.Fatal("round trip failed")
	}
	assert.Equal(t, cStats, dStats)
	return c.Bytes()
}

func TestExampleAAAB(t *testing.T) {
	c := testRoundTrip(t, []byte("aaab"), header.FormatLegacy)
	assert.Equal(t, []byte("%%a!!3%%b!!1%%--\xe0"), c)
}

func TestEmptyInput(t *testing.T) {
	for _, format := range []header.Format{header.FormatLegacy, header.FormatFramed} {
		c := testRoundTrip(t, nil, format)
		if format == header.FormatLegacy {
			assert.Equal(t, "%%--", string(c))
		}
	}
}

func TestSingleRepeatedByte(t *testing.T) {
	for _, n := range []int{1, 2, 9, 300} {
		d := bytes.Repeat([]byte{'x'}, n)
		c := testRoundTrip(t, d, header.FormatLegacy)
		assert.Equal(t, "%%x!!"+strconv.Itoa(n)+"%%--", string(c), "single symbol input has no payload")
		testRoundTrip(t, d, header.FormatFramed)
	}
}

func TestDelimiterBytesRoundTrip(t *testing.T) {
	d := []byte("%%--!!%%12%!-3--%%!!0%-\x00\xff%%")
	testRoundTrip(t, d, header.FormatLegacy)
	testRoundTrip(t, d, header.FormatFramed)
}

func TestRandomRoundTrip(t *testing.T) {
	for _, size := range []int{1, 2, 100, 4096, 70000} {
		for _, bound := range []int{2, 3, 26, 256} {
			d := randomBytes(size, bound)
			testRoundTrip(t, d, header.FormatLegacy)
			testRoundTrip(t, d, header.FormatFramed)
		}
	}
}

func TestSkewedRoundTrip(t *testing.T) {
	// fibonacci counts give the deepest tree
	var d []byte
	a, b := 1, 1
	for s := 0; s < 20; s++ {
		d = append(d, bytes.Repeat([]byte{byte('A' + s)}, a)...)
		a, b = b, a+b
	}
	rand.Shuffle(len(d), func(i, j int) { d[i], d[j] = d[j], d[i] })
	testRoundTrip(t, d, header.FormatLegacy)
}

func TestCompressFromCurrentOffset(t *testing.T) {
	in := bytes.NewReader([]byte("skip me|hello"))
	_, err := in.Seek(8, io.SeekStart)
	require.NoError(t, err)

	var c bytes.Buffer
	_, err = Compress(in, &c, Options{})
	require.NoError(t, err)

	prefixed := append([]byte("junk"), c.Bytes()...)
	src := bytes.NewReader(prefixed)
	_, err = src.Seek(4, io.SeekStart)
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = Decompress(src, &out, Options{})
	require.NoError(t, err)
	assert.Equal(t, "hello", out.String())
}

func TestMalformedHeader(t *testing.T) {
	for name, in := range map[string]string{
		"not compressed":   "hello, world",
		"empty":            "",
		"non-digit count":  "%%a!!3%%b!!x%%--\xe0",
		"missing end":      "%%a!!3%%b!!1%%",
		"framed bad magic": "EZQ\x01\x00\x00\x00\x00\x00",
	} {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := Decompress(strings.NewReader(in), &out, Options{Format: header.FormatAuto})
			require.ErrorIs(t, err, ErrFormat)
			assert.False(t, errors.Is(err, ErrIO))
			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, PassHeader, e.Pass)
			assert.Zero(t, out.Len())
		})
	}
}

func TestTruncatedPayload(t *testing.T) {
	d := randomBytes(1000, 20)
	var c bytes.Buffer
	_, err := Compress(bytes.NewReader(d), &c, Options{})
	require.NoError(t, err)

	cut := c.Bytes()[:c.Len()-10]
	var out bytes.Buffer
	_, err = Decompress(bytes.NewReader(cut), &out, Options{})
	require.ErrorIs(t, err, ErrFormat)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, PassPayload, e.Pass)
}

// changingSeeker serves a different content after each seek to the start.
type changingSeeker struct {
	versions [][]byte
	*bytes.Reader
}

func (c *changingSeeker) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekStart && offset == 0 && len(c.versions) > 0 {
		c.Reader = bytes.NewReader(c.versions[0])
		c.versions = c.versions[1:]
	}
	return c.Reader.Seek(offset, whence)
}

func TestInputChangedBetweenPasses(t *testing.T) {
	in := &changingSeeker{Reader: bytes.NewReader([]byte("abab")), versions: [][]byte{[]byte("abc")}}
	_, err := Compress(in, io.Discard, Options{})
	require.ErrorIs(t, err, ErrInternal)

	in = &changingSeeker{Reader: bytes.NewReader([]byte("abab")), versions: [][]byte{[]byte("ab")}}
	_, err = Compress(in, io.Discard, Options{})
	require.ErrorIs(t, err, ErrInternal)
}

type failingReadSeeker struct{ err error }

func (f failingReadSeeker) Read([]byte) (int, error)       { return 0, f.err }
func (f failingReadSeeker) Seek(int64, int) (int64, error) { return 0, nil }

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestIOErrors(t *testing.T) {
	boom := errors.New("device unplugged")

	_, err := Compress(failingReadSeeker{boom}, io.Discard, Options{})
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, boom)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, PassAnalysis, e.Pass)

	_, err = Compress(strings.NewReader("abc"), failingWriter{boom}, Options{})
	require.ErrorIs(t, err, ErrIO)
	require.ErrorAs(t, err, &e)
	assert.Equal(t, PassHeader, e.Pass)
	assert.False(t, errors.Is(err, ErrFormat))

	_, err = Decompress(failingReadSeeker{boom}, io.Discard, Options{})
	require.ErrorIs(t, err, ErrIO)
}

func TestNewCompressorRejectsAuto(t *testing.T) {
	_, err := NewCompressor(Options{Format: header.FormatAuto})
	require.Error(t, err)
}

func TestFormatsAreDistinct(t *testing.T) {
	d := []byte("mississippi")
	var legacy, framed bytes.Buffer
	_, err := Compress(bytes.NewReader(d), &legacy, Options{Format: header.FormatLegacy})
	require.NoError(t, err)
	_, err = Compress(bytes.NewReader(d), &framed, Options{Format: header.FormatFramed})
	require.NoError(t, err)

	_, err = Decompress(bytes.NewReader(legacy.Bytes()), io.Discard, Options{Format: header.FormatFramed})
	require.ErrorIs(t, err, ErrFormat)
	_, err = Decompress(bytes.NewReader(framed.Bytes()), io.Discard, Options{Format: header.FormatLegacy})
	require.ErrorIs(t, err, ErrFormat)
}

func TestLogsEachPass(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	var c bytes.Buffer
	_, err := Compress(strings.NewReader("abracadabra"), &c, Options{Log: logger})
	require.NoError(t, err)

	var passes []Pass
	for _, entry := range hook.AllEntries() {
		passes = append(passes, entry.Data["pass"].(Pass))
	}
	assert.Equal(t, []Pass{PassAnalysis, PassHeader, PassPayload}, passes)
}

// Fuzz test the compression / decompression
func FuzzCompress(f *testing.F) {
	f.Add([]byte("aaab"), false)
	f.Add([]byte{}, true)
	f.Add([]byte("%%!!--"), false)

	f.Fuzz(func(t *testing.T, input []byte, framed bool) {
		format := header.FormatLegacy
		if framed {
			format = header.FormatFramed
		}
		testRoundTrip(t, input, format)
	})
}

func randomBytes(length, bound int) []byte {
	res := make([]byte, length)
	for i := range res {
		res[i] = byte(rand.Intn(bound)) //nolint:gosec
	}
	return res
}

