package ezip

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// CompressFile compresses the file at inPath into outPath.
func CompressFile(inPath, outPath string, opts Options) (Stats, error) {
	c, err := NewCompressor(opts)
	if err != nil {
		return Stats{}, err
	}
	in, err := os.Open(inPath)
	if err != nil {
		return Stats{}, classify(PassOpen, err)
	}
	defer in.Close()

	return writeFile(outPath, func(out io.Writer) (Stats, error) {
		return c.Compress(in, out)
	})
}

// DecompressFile decompresses the file at inPath into outPath. outPath is
// only created once the whole input has decoded successfully.
func DecompressFile(inPath, outPath string, opts Options) (Stats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return Stats{}, classify(PassOpen, err)
	}
	defer in.Close()

	d := NewDecompressor(opts)
	return writeFile(outPath, func(out io.Writer) (Stats, error) {
		return d.Decompress(in, out)
	})
}

// writeFile runs fn against a temporary file next to path and renames it into
// place if fn succeeds. On failure the temporary file is removed.
func writeFile(path string, fn func(io.Writer) (Stats, error)) (stats Stats, err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return stats, classify(PassOpen, err)
	}
	tmp := f.Name()
	closed := false
	defer func() {
		if !closed {
			f.Close()
		}
		if err != nil {
			os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(f)
	if stats, err = fn(w); err != nil {
		return
	}
	if err = w.Flush(); err != nil {
		return stats, classify(PassPayload, err)
	}
	closed = true
	if err = f.Close(); err != nil {
		return stats, classify(PassPayload, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return stats, classify(PassOpen, err)
	}
	return stats, nil
}
