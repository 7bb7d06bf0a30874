package huffman

import "io"

// Record is the number of occurrences of one byte value.
type Record struct {
	Symbol byte
	Count  uint64
}

// FrequencyTable counts byte occurrences, remembering the order in which
// distinct bytes were first seen. The zero value is ready to use.
type FrequencyTable struct {
	index   [256]int // 1 + position in records, 0 if not seen yet
	records []Record
	total   uint64
}

// Write implements [io.Writer]; it never fails.
func (f *FrequencyTable) Write(p []byte) (int, error) {
	for _, c := range p {
		f.add(c)
	}
	return len(p), nil
}

// WriteByte implements [io.ByteWriter].
func (f *FrequencyTable) WriteByte(c byte) error {
	f.add(c)
	return nil
}

func (f *FrequencyTable) add(c byte) {
	f.total++
	if i := f.index[c]; i != 0 {
		f.records[i-1].Count++
		return
	}
	f.records = append(f.records, Record{Symbol: c, Count: 1})
	f.index[c] = len(f.records)
}

// Records returns a copy of the counts in first-seen order.
func (f *FrequencyTable) Records() []Record {
	res := make([]Record, len(f.records))
	copy(res, f.records)
	return res
}

// Total is the number of bytes counted.
func (f *FrequencyTable) Total() uint64 {
	return f.total
}

// Len is the number of distinct bytes seen.
func (f *FrequencyTable) Len() int {
	return len(f.records)
}

// Reset clears the table for reuse.
func (f *FrequencyTable) Reset() {
	*f = FrequencyTable{records: f.records[:0]}
}

// Analyze reads r to the end and returns its byte counts in first-seen order,
// along with the number of bytes read.
func Analyze(r io.Reader) ([]Record, int64, error) {
	var f FrequencyTable
	n, err := io.Copy(&f, r)
	if err != nil {
		return nil, n, err
	}
	return f.Records(), n, nil
}
