package dicom

import (
	"encoding/binary"
	"fmt"
	"io"
)

// dcmReader is a wrapper around io.Reader providing convenience methods for
// parsing tags, numbers and strings. Byte order is passed per call and is
// selected by the active transfer syntax, not by the host byte order.
type dcmReader struct {
	cr *countReader
}

func newDcmReader(r io.Reader) *dcmReader {
	return &dcmReader{&countReader{r, 0}}
}

func (dr *dcmReader) Tag(order binary.ByteOrder) (DataElementTag, error) {
	group, err := dr.UInt16(order)
	if err != nil {
		return 0, err
	}
	element, err := dr.UInt16(order)
	if err != nil {
		return 0, err
	}

	return NewTag(group, element), nil
}

// Limit returns a dcmReader that shares the same underlying io.Reader and
// returns EOF after reading n bytes. Used for defined-length sequences and
// items.
func (dr *dcmReader) Limit(n int64) *dcmReader {
	return &dcmReader{limitCountReader(dr.cr, n)}
}

// Skip advances the input stream by n bytes
func (dr *dcmReader) Skip(n int64) error {
	_, err := io.CopyN(io.Discard, dr.cr, n)
	return err
}

// Position returns the number of bytes consumed from the input stream
func (dr *dcmReader) Position() int64 {
	return dr.cr.bytesRead
}

// String returns a string of length n from the input stream
func (dr *dcmReader) String(n int64) (string, error) {
	b, err := dr.Bytes(n)
	return string(b), err
}

// Bytes returns a byte array of size n from the input stream
func (dr *dcmReader) Bytes(n int64) ([]byte, error) {
	b := make([]byte, n)
	gotN, err := io.ReadAtLeast(dr.cr, b, int(n))
	if err != nil && gotN != int(n) {
		return nil, fmt.Errorf("expected to read %d bytes but got %d: %v", n, gotN, err)
	}
	return b, nil
}

// UInt32 returns a uint32 from the input stream
func (dr *dcmReader) UInt32(order binary.ByteOrder) (uint32, error) {
	var b uint32
	err := binary.Read(dr.cr, order, &b)
	return b, err
}

// UInt16 returns a uint16 from the input stream
func (dr *dcmReader) UInt16(order binary.ByteOrder) (uint16, error) {
	var b uint16
	err := binary.Read(dr.cr, order, &b)
	return b, err
}

// countReader is an io.Reader that counts how many bytes were read
type countReader struct {
	r         io.Reader
	bytesRead int64
}

func (cr *countReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.bytesRead += int64(n)
	return n, err
}

// limitCountReader returns a *countReader that reads from cr and stops with
// EOF after reading n bytes (or when cr reaches EOF). The returned reader
// starts with the current bytesRead of cr; since it reads through cr, cr's
// count advances as the limited reader is consumed.
func limitCountReader(cr *countReader, n int64) *countReader {
	return &countReader{io.LimitReader(cr, n), cr.bytesRead}
}
