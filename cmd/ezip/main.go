package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/huffzip/ezip"
	"github.com/huffzip/ezip/header"
)

var (
	flagCompress   = flag.Bool("c", false, "compress (default unless the input ends in "+ezip.Extension+")")
	flagDecompress = flag.Bool("d", false, "decompress")
	flagIn         = flag.String("i", "", "input file (or first argument)")
	flagOut        = flag.String("o", "", "output file")
	flagNoOut      = flag.Bool("no_out", false, "no output")
	flagFormat     = flag.String("format", "", "header format: legacy, framed or auto (default legacy to compress, auto to decompress)")
	flagReport     = flag.Bool("r", false, "report compression ratio")
	flagVerbose    = flag.Bool("v", false, "debug logging")
	flagVersion    = flag.Bool("version", false, "report executable version")
)

const version = "1.0.0"

// exit codes
const (
	exitFailure   = 1
	exitBadFormat = 2
)

var log = logrus.New()

func quitF(code int, format string, args ...interface{}) {
	log.Errorf(format, args...)
	os.Exit(code)
}

func assertNoError(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, ezip.ErrFormat) {
		log.WithError(err).Error("that file was not compressed with this program, or it is corrupt")
		os.Exit(exitBadFormat)
	}
	quitF(exitFailure, "%v", err)
}

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if *flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *flagVersion {
		fmt.Println("ezip v" + version)
		os.Exit(0)
	}

	if *flagIn == "" && flag.NArg() > 0 {
		*flagIn = flag.Arg(0)
	}
	if *flagIn == "" {
		quitF(exitFailure, "no input file specified")
	}
	if *flagCompress && *flagDecompress {
		quitF(exitFailure, "options -c and -d are mutually exclusive")
	}
	if *flagOut != "" && *flagNoOut {
		quitF(exitFailure, "options -no_out and -o are mutually exclusive")
	}

	decompress := *flagDecompress || (!*flagCompress && isCompressedName(*flagIn))

	opts := ezip.Options{Log: log}
	switch {
	case *flagFormat != "":
		f, err := header.ParseFormat(*flagFormat)
		assertNoError(err)
		opts.Format = f
	case decompress:
		opts.Format = header.FormatAuto
	}

	if *flagOut == "" { // construct a file name from the input name
		if decompress {
			*flagOut = decompressedName(*flagIn)
		} else {
			*flagOut = compressedName(*flagIn)
		}
	}

	entry := log.WithFields(logrus.Fields{"in": *flagIn, "format": opts.Format})
	var (
		stats ezip.Stats
		err   error
	)
	switch {
	case *flagNoOut:
		stats, err = discard(*flagIn, decompress, opts)
	case decompress:
		entry.WithField("out", *flagOut).Debug("decompressing")
		stats, err = ezip.DecompressFile(*flagIn, *flagOut, opts)
	default:
		entry.WithField("out", *flagOut).Debug("compressing")
		stats, err = ezip.CompressFile(*flagIn, *flagOut, opts)
	}
	assertNoError(err)

	if *flagReport {
		lenC, lenD := stats.OutputBytes, stats.InputBytes
		if lenD == 0 {
			fmt.Printf("%dB -> %dB\n", lenD, lenC)
			return
		}
		ratioPct := lenC * 100 / lenD
		fmt.Printf("%dB -> %dB compression ratio %d.%02d\n", lenD, lenC, ratioPct/100, ratioPct%100)
	}
}

// discard runs the codec without writing an output file.
func discard(path string, decompress bool, opts ezip.Options) (ezip.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ezip.Stats{}, err
	}
	defer f.Close()
	if decompress {
		return ezip.Decompress(f, io.Discard, opts)
	}
	return ezip.Compress(f, io.Discard, opts)
}
