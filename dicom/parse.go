package dicom

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Parse decodes a DICOM Part 10 stream into a DataSet.
//
// The 128-byte preamble and "DICM" magic are expected unless disabled with
// WithPreamble(false). The meta group (0002,xxxx) is parsed as explicit VR
// little endian; the remainder of the stream in the transfer syntax named by
// (0002,0010). An absent transfer syntax element means implicit VR little
// endian; an unrecognised UID falls back to explicit VR little endian.
//
// Parse takes ownership of r for the duration of the call but does not close
// it. Closing the underlying source mid-parse surfaces as a decode error at
// the next read.
func Parse(r io.Reader, opts ...ParseOption) (*DataSet, error) {
	popts := parseOptions{preamble: true}
	for _, opt := range opts {
		opt.apply(&popts)
	}

	br := bufio.NewReaderSize(r, GetConfig().ReadBufferSize)
	dr := newDcmReader(br)

	if popts.preamble {
		if err := readDicomSignature(dr); err != nil {
			return nil, err
		}
	}

	ds := NewDataSet()
	if popts.recordVRs {
		ds.VRs = map[DataElementTag]*VR{}
	}
	ctx := &parseContext{opts: popts}

	// the meta group prelude is explicit VR little endian; the body syntax is
	// chosen once the first tag with group > 0002 is seen
	syntax := explicitVRLittleEndian
	inMeta := true

	for {
		if inMeta {
			peeked, err := br.Peek(2)
			if err != nil {
				// end of stream on an element boundary terminates gracefully
				break
			}
			if binary.LittleEndian.Uint16(peeked) > 0x0002 {
				inMeta = false
				syntax = bodySyntax(ds)
				ds.LittleEndian = !syntax.bigEndian()
				ds.ExplicitVR = !syntax.Implicit
			}
		}

		element, err := readDataElement(dr, syntax, ds, ctx)
		if err == io.EOF || errors.Is(err, errGroupLimit) {
			break
		}
		if err != nil {
			return nil, err
		}

		ds.Put(element)
		if popts.recordVRs {
			ds.VRs[element.Tag] = element.VR
		}
		if element.Tag == SpecificCharacterSetTag {
			updateCharset(ctx, element)
		}
	}

	return ds, nil
}

// ParseFile decodes the DICOM file at path. The file handle is scoped to the
// call.
func ParseFile(path string, opts ...ParseOption) (*DataSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := Parse(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", filepath.Base(path), err)
	}
	return ds, nil
}

// ParseDirectory decodes every regular file in dir and returns the data sets
// ordered by Instance Number (0020,0013).
func ParseDirectory(dir string, opts ...ParseOption) ([]*DataSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	dataSets := make([]*DataSet, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ds, err := ParseFile(filepath.Join(dir, entry.Name()), opts...)
		if err != nil {
			return nil, err
		}
		dataSets = append(dataSets, ds)
	}

	sort.SliceStable(dataSets, func(i, j int) bool {
		return dataSets[i].intValueDefault(InstanceNumberTag, 0) <
			dataSets[j].intValueDefault(InstanceNumberTag, 0)
	})
	return dataSets, nil
}

func readDicomSignature(dr *dcmReader) error {
	if err := dr.Skip(128); err != nil {
		return fmt.Errorf("skipping preamble: %w", ErrInvalidPreamble)
	}

	magic, err := dr.String(4)
	if err != nil {
		return fmt.Errorf("reading DICOM signature: %w", ErrInvalidPreamble)
	}
	if magic != "DICM" {
		return fmt.Errorf("got signature %q: %w", magic, ErrInvalidPreamble)
	}

	return nil
}

// bodySyntax chooses the transfer syntax of the main data set from the parsed
// meta group.
func bodySyntax(meta *DataSet) transferSyntax {
	uid, found := meta.TransferSyntaxUID()
	if !found {
		return implicitVRLittleEndian
	}
	syntax, known := lookupTransferSyntax(uid)
	if !known {
		logger.Warnf("unknown transfer syntax %q, assuming explicit VR little endian", uid)
	}
	return syntax
}

func updateCharset(ctx *parseContext, element *DataElement) {
	term := ""
	switch v := element.ValueField.(type) {
	case string:
		term = v
	case []string:
		if len(v) > 0 {
			term = v[0]
		}
	}
	if term == "" {
		return
	}

	coding, err := lookupEncoding(term)
	if err != nil {
		logger.Warnf("character set %q unknown, keeping text bytes as-is: %v", term, err)
		return
	}
	ctx.charset = coding
}
