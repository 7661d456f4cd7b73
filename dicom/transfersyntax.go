package dicom

import (
	"encoding/binary"
)

// Transfer syntax UIDs recognised by this package, obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html#chapter_A
const (
	// ImplicitVRLittleEndianUID is the Implicit VR Little Endian UID, the
	// default transfer syntax for DICOM
	ImplicitVRLittleEndianUID = "1.2.840.10008.1.2"
	// ExplicitVRLittleEndianUID is the Explicit VR Little Endian UID
	ExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1"
	// DeflatedExplicitVRLittleEndianUID is the Deflated Explicit VR Little
	// Endian UID. The element encoding is the same as Explicit VR Little
	// Endian; inflating the stream is up to the caller.
	DeflatedExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1.99"
	// ExplicitVRBigEndianUID is the Explicit VR Big Endian UID (retired)
	ExplicitVRBigEndianUID = "1.2.840.10008.1.2.2"
)

// transferSyntax describes how data elements are laid out on the wire: the
// byte order of multi-byte values and whether VRs are written explicitly.
type transferSyntax struct {
	ByteOrder binary.ByteOrder
	Implicit  bool
}

var (
	implicitVRLittleEndian = transferSyntax{binary.LittleEndian, true}
	explicitVRLittleEndian = transferSyntax{binary.LittleEndian, false}
	explicitVRBigEndian    = transferSyntax{binary.BigEndian, false}
)

var transferSyntaxMap = map[string]transferSyntax{
	ImplicitVRLittleEndianUID:         implicitVRLittleEndian,
	ExplicitVRLittleEndianUID:         explicitVRLittleEndian,
	DeflatedExplicitVRLittleEndianUID: explicitVRLittleEndian,
	ExplicitVRBigEndianUID:            explicitVRBigEndian,
}

// lookupTransferSyntax maps a transfer syntax UID onto its encoding. Unknown
// UIDs default to Explicit VR Little Endian as specified in PS3.5 A.4; this
// is a recoverable condition, not an error.
func lookupTransferSyntax(uid string) (transferSyntax, bool) {
	if syntax, found := transferSyntaxMap[uid]; found {
		return syntax, true
	}
	return explicitVRLittleEndian, false
}

// uidForSyntax returns the transfer syntax UID matching an encoding. Inserted
// into the meta group on write when (0002,0010) is absent.
func uidForSyntax(syntax transferSyntax) string {
	switch {
	case syntax.Implicit:
		return ImplicitVRLittleEndianUID
	case syntax.ByteOrder == binary.BigEndian:
		return ExplicitVRBigEndianUID
	default:
		return ExplicitVRLittleEndianUID
	}
}

// syntaxForEncoding maps the DataSet encoding attributes onto a
// transferSyntax value.
func syntaxForEncoding(littleEndian, explicitVR bool) transferSyntax {
	if !explicitVR {
		return implicitVRLittleEndian
	}
	if !littleEndian {
		return explicitVRBigEndian
	}
	return explicitVRLittleEndian
}

func (s transferSyntax) bigEndian() bool {
	return s.ByteOrder == binary.BigEndian
}

const (
	vrSize  = 2
	tagSize = 4
)

// elementSize returns the on-wire size of an element with the given VR and
// value length in the given syntax. Used to recompute group lengths.
func (s transferSyntax) elementSize(vr *VR, valueLength uint32) uint32 {
	if valueLength == UndefinedLength {
		return UndefinedLength
	}
	if s.Implicit {
		return tagSize + 4 /*32-bit length*/ + valueLength
	}
	if has32BitLength(vr) {
		return tagSize + vrSize + 2 /*reserved*/ + 4 /*32-bit length*/ + valueLength
	}
	return tagSize + vrSize + 2 /*16-bit length*/ + valueLength
}
