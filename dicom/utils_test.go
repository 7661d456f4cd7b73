package dicom

import (
	"bytes"
	"encoding/binary"
)

func dcmReaderFromBytes(b []byte) *dcmReader {
	return newDcmReader(bytes.NewBuffer(b))
}

func defaultParseContext() *parseContext {
	return &parseContext{opts: parseOptions{preamble: true}}
}

func contextWithOverrides(overrides VROverrides) *parseContext {
	return &parseContext{opts: parseOptions{preamble: true, overrides: overrides}}
}

// metaGroupBytes builds the file meta group for the given transfer syntax
// UID: the group length element followed by (0002,0010), both explicit VR
// little endian.
func metaGroupBytes(tsUID string) []byte {
	padded := []byte(tsUID)
	if len(padded)%2 != 0 {
		padded = append(padded, 0x00)
	}

	buf := &bytes.Buffer{}
	// (0002,0010) TransferSyntaxUID
	tsElem := &bytes.Buffer{}
	tsElem.Write([]byte{0x02, 0x00, 0x10, 0x00, 'U', 'I'})
	binary.Write(tsElem, binary.LittleEndian, uint16(len(padded)))
	tsElem.Write(padded)

	// (0002,0000) FileMetaInformationGroupLength
	buf.Write([]byte{0x02, 0x00, 0x00, 0x00, 'U', 'L', 0x04, 0x00})
	binary.Write(buf, binary.LittleEndian, uint32(tsElem.Len()))
	buf.Write(tsElem.Bytes())

	return buf.Bytes()
}

// fileBytes assembles a complete Part 10 stream: preamble, magic, meta group
// and body.
func fileBytes(tsUID string, body []byte) []byte {
	buf := &bytes.Buffer{}
	buf.Write(make([]byte, 128))
	buf.WriteString("DICM")
	buf.Write(metaGroupBytes(tsUID))
	buf.Write(body)
	return buf.Bytes()
}

// explicitLE builds one explicit VR little endian element with a short length
// field.
func explicitLE(group, element uint16, vr string, value []byte) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, group)
	binary.Write(buf, binary.LittleEndian, element)
	buf.WriteString(vr)
	binary.Write(buf, binary.LittleEndian, uint16(len(value)))
	buf.Write(value)
	return buf.Bytes()
}

// explicitLELong builds one explicit VR little endian element with the long
// header form (reserved bytes and a 32-bit length).
func explicitLELong(group, element uint16, vr string, length uint32, value []byte) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, group)
	binary.Write(buf, binary.LittleEndian, element)
	buf.WriteString(vr)
	buf.Write([]byte{0x00, 0x00})
	binary.Write(buf, binary.LittleEndian, length)
	buf.Write(value)
	return buf.Bytes()
}

// implicitLE builds one implicit VR little endian element.
func implicitLE(group, element uint16, length uint32, value []byte) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, group)
	binary.Write(buf, binary.LittleEndian, element)
	binary.Write(buf, binary.LittleEndian, length)
	buf.Write(value)
	return buf.Bytes()
}

func uint16LE(values ...uint16) []byte {
	buf := &bytes.Buffer{}
	for _, v := range values {
		binary.Write(buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func uint16BE(values ...uint16) []byte {
	buf := &bytes.Buffer{}
	for _, v := range values {
		binary.Write(buf, binary.BigEndian, v)
	}
	return buf.Bytes()
}

func concat(chunks ...[]byte) []byte {
	buf := &bytes.Buffer{}
	for _, c := range chunks {
		buf.Write(c)
	}
	return buf.Bytes()
}
