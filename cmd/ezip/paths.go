package main

import (
	"path/filepath"
	"strings"

	"github.com/huffzip/ezip"
)

const textExtension = ".txt"

func isCompressedName(path string) bool {
	return strings.HasSuffix(path, ezip.Extension)
}

// compressedName replaces a .txt extension with .ezip and appends .ezip to
// anything else.
func compressedName(path string) string {
	if strings.HasSuffix(path, textExtension) {
		return strings.TrimSuffix(path, textExtension) + ezip.Extension
	}
	return path + ezip.Extension
}

// decompressedName strips .ezip and marks the result as decompressed so the
// original file is never overwritten: a.ezip gives a_decompressed.txt and
// a.bin.ezip gives a_decompressed.bin.
func decompressedName(path string) string {
	base := strings.TrimSuffix(path, ezip.Extension)
	ext := filepath.Ext(base)
	if ext == "" || ext == filepath.Base(base) {
		ext = textExtension
	}
	return strings.TrimSuffix(base, ext) + "_decompressed" + ext
}
