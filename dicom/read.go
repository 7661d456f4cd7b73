package dicom

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
)

// parseContext carries the per-parse state consulted while decoding
// elements: the caller's options and the character set declared by
// (0008,0005).
type parseContext struct {
	opts    parseOptions
	charset encoding.Encoding
}

// readDataElement decodes one data element from dr.
//
// io.EOF at the very start of an element is the graceful terminator (end of
// data set or item); end of stream anywhere else is a decode error. A nil
// element with nil error is never returned: skipped elements recurse to the
// next one.
func readDataElement(dr *dcmReader, syntax transferSyntax, ds *DataSet, ctx *parseContext) (*DataElement, error) {
	group, err := dr.UInt16(syntax.ByteOrder)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading group number: %v", err)
	}

	// the meta group is self-describing: always explicit VR little endian
	// regardless of the transfer syntax of the rest of the file
	sx := syntax
	if group <= 0x0002 {
		sx = explicitVRLittleEndian
	}

	element, err := dr.UInt16(sx.ByteOrder)
	if err != nil {
		return nil, fmt.Errorf("reading element number: %v", err)
	}
	tag := NewTag(group, element)

	if ctx.opts.hasMaxGroup && group > ctx.opts.maxGroup {
		return nil, errGroupLimit
	}

	if tag == ItemDelimitationItemTag {
		// terminates a nested data set of undefined length. Delimiters are
		// implicitly encoded regardless of the transfer syntax.
		length, err := dr.UInt32(sx.ByteOrder)
		if err != nil {
			return nil, fmt.Errorf("reading length of item delimitation: %v", err)
		}
		if length != 0 {
			return nil, fmt.Errorf("wrong length for item delimiter: got %v, want 0", length)
		}
		return nil, io.EOF
	}

	var wireVR *VR
	if !sx.Implicit {
		vrName, err := dr.String(vrSize)
		if err != nil {
			return nil, fmt.Errorf("reading VR of %v: %v", tag, err)
		}
		wireVR, err = lookupVRByName(vrName)
		if err != nil {
			return nil, fmt.Errorf("reading VR of %v: %v", tag, err)
		}
	}

	length, err := readValueLength(dr, wireVR, sx)
	if err != nil {
		return nil, fmt.Errorf("reading length of %v: %v", tag, err)
	}

	override, hasOverride := ctx.opts.overrides[tag]
	if hasOverride && override == nil {
		// the override map maps this tag to "skip": advance past the value
		// (padded to an even byte count) and decode the next element instead
		if length == UndefinedLength {
			return nil, fmt.Errorf("cannot skip %v: undefined length", tag)
		}
		if err := dr.Skip(int64(length + length%2)); err != nil {
			return nil, fmt.Errorf("skipping %v: %v", tag, err)
		}
		return readDataElement(dr, syntax, ds, ctx)
	}

	vr := wireVR
	if hasOverride {
		// a user-supplied VR wins over both the explicit header and the
		// dictionary
		vr = override
	} else if vr == nil {
		vr, err = implicitVRForTag(tag, ctx)
		if err != nil {
			return nil, err
		}
	}

	value, err := readValue(dr, tag, vr, length, sx, ds, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing value of %v: %w", tag, err)
	}

	// declared sizes are even in well-formed files; an odd size is followed
	// by one pad byte
	if length != UndefinedLength && length%2 == 1 {
		if err := dr.Skip(1); err != nil {
			return nil, fmt.Errorf("consuming pad byte of %v: %v", tag, err)
		}
	}

	return &DataElement{tag, vr, collapseSingleton(vr, value), length}, nil
}

// readValueLength decodes the length field. The width of the field depends on
// the syntax and, in explicit VR mode, on the VR read from the stream.
func readValueLength(dr *dcmReader, wireVR *VR, syntax transferSyntax) (uint32, error) {
	if syntax.Implicit {
		return dr.UInt32(syntax.ByteOrder)
	}

	if has32BitLength(wireVR) {
		if _, err := dr.UInt16(syntax.ByteOrder); err != nil {
			return 0, fmt.Errorf("reading reserved field: %v", err)
		}
		return dr.UInt32(syntax.ByteOrder)
	}

	length, err := dr.UInt16(syntax.ByteOrder)
	return uint32(length), err
}

// implicitVRForTag resolves the VR of a tag in the implicit VR syntax:
// group length elements are UL, then the data dictionary (with the repeating
// group rule), then the private group heuristics, then the override map's
// wildcard entry.
func implicitVRForTag(tag DataElementTag, ctx *parseContext) (*VR, error) {
	if tag.IsGroupLength() {
		return ULVR, nil
	}
	if vr, found := VRForTag(tag); found {
		return vr, nil
	}
	if tag.IsPrivateCreator() {
		return LOVR, nil
	}
	if tag.IsPrivate() {
		return UNVR, nil
	}
	if wildcard, ok := ctx.opts.overrides[WildcardTag]; ok && wildcard != nil {
		return wildcard, nil
	}
	return nil, fmt.Errorf("resolving VR of %v: %w", tag, ErrUnknownTag)
}

func readValue(dr *dcmReader, tag DataElementTag, vr *VR, length uint32, syntax transferSyntax, ds *DataSet, ctx *parseContext) (interface{}, error) {
	if tag == PixelDataTag {
		// pixel data decoding is tag-driven, not VR-driven
		return readPixelData(dr, vr, length, syntax, ds)
	}
	if length == UndefinedLength && vr != SQVR {
		return nil, fmt.Errorf("undefined length outside sequences and pixel data is not supported")
	}

	switch vr.kind {
	case textVR:
		return readText(dr, vr, length, ctx)
	case numberTextVR:
		return readNumberText(dr, vr, length)
	case numberBinaryVR:
		return readNumberBinary(dr, vr, length, syntax.ByteOrder)
	case bulkDataVR:
		return readBulkData(dr, vr, length, syntax.ByteOrder)
	case uniqueIdentifierVR:
		return readUID(dr, length)
	case sequenceVR:
		return readSequence(dr, length, syntax, ctx)
	case tagVR:
		return readTagValue(dr, length, syntax.ByteOrder)
	default:
		return nil, fmt.Errorf("unknown vr kind: %v", vr.kind)
	}
}

func isTextPadding(r rune) bool {
	return r == ' ' || r == 0x00
}

// readText decodes the string VRs. Multi-valued VRs are split on backslashes;
// the unbounded text VRs (ST, LT, UT) never split and keep leading
// whitespace, and PN keeps everything but the trailing pad.
func readText(dr *dcmReader, vr *VR, length uint32, ctx *parseContext) (interface{}, error) {
	if length == 0 {
		return "", nil
	}

	raw, err := dr.Bytes(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading text value: %v", err)
	}

	var text string
	if isCharacterDataVR(vr) {
		text = decodeCharacterData(raw, ctx.charset)
	} else {
		text = string(raw)
	}

	switch vr {
	case STVR, LTVR, UTVR:
		return strings.TrimRightFunc(text, isTextPadding), nil
	case PNVR:
		parts := strings.Split(text, "\\")
		for i, s := range parts {
			parts[i] = strings.TrimRightFunc(s, isTextPadding)
		}
		return parts, nil
	default:
		parts := strings.Split(text, "\\")
		for i, s := range parts {
			parts[i] = strings.TrimFunc(s, isTextPadding)
		}
		return parts, nil
	}
}

// readUID decodes the UI VR, which is null-padded rather than space-padded
func readUID(dr *dcmReader, length uint32) (interface{}, error) {
	if length == 0 {
		return "", nil
	}
	text, err := dr.String(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading UID value: %v", err)
	}
	parts := strings.Split(text, "\\")
	for i, s := range parts {
		parts[i] = strings.TrimFunc(s, isTextPadding)
	}
	return parts, nil
}

// readNumberText decodes the DS and IS VRs: backslash-separated decimal and
// integer strings. Empty tokens decode to zero; anything else unparsable is
// ErrMalformedNumericText.
func readNumberText(dr *dcmReader, vr *VR, length uint32) (interface{}, error) {
	var tokens []string
	if length > 0 {
		text, err := dr.String(int64(length))
		if err != nil {
			return nil, fmt.Errorf("reading numeric string: %v", err)
		}
		tokens = strings.Split(text, "\\")
		for i, s := range tokens {
			tokens[i] = strings.TrimFunc(s, isTextPadding)
		}
	}

	if vr == ISVR {
		values := make([]int, len(tokens))
		for i, token := range tokens {
			if token == "" {
				continue
			}
			n, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("integer string %q: %w", token, ErrMalformedNumericText)
			}
			values[i] = n
		}
		return values, nil
	}

	values := make([]float64, len(tokens))
	for i, token := range tokens {
		if token == "" {
			continue
		}
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, fmt.Errorf("decimal string %q: %w", token, ErrMalformedNumericText)
		}
		values[i] = f
	}
	return values, nil
}

func readNumberBinary(dr *dcmReader, vr *VR, length uint32, order binary.ByteOrder) (interface{}, error) {
	var data interface{}

	switch vr {
	case SSVR:
		data = make([]int16, length/2)
	case USVR:
		data = make([]uint16, length/2)
	case SLVR:
		data = make([]int32, length/4)
	case ULVR:
		data = make([]uint32, length/4)
	case FLVR:
		data = make([]float32, length/4)
	case FDVR:
		data = make([]float64, length/8)
	default:
		return nil, fmt.Errorf("unknown vr: %v", vr)
	}

	if err := binary.Read(dr.cr, order, data); err != nil {
		return nil, fmt.Errorf("reading binary numbers: %v", err)
	}

	return data, nil
}

// readBulkData decodes the "other" runs. OW and OF are endian-adjusted;
// OB and UN are raw bytes.
func readBulkData(dr *dcmReader, vr *VR, length uint32, order binary.ByteOrder) (interface{}, error) {
	switch vr {
	case OWVR:
		data := make([]uint16, length/2)
		if err := binary.Read(dr.cr, order, data); err != nil {
			return nil, fmt.Errorf("reading word run: %v", err)
		}
		return data, nil
	case OFVR:
		data := make([]float32, length/4)
		if err := binary.Read(dr.cr, order, data); err != nil {
			return nil, fmt.Errorf("reading float run: %v", err)
		}
		return data, nil
	default:
		return dr.Bytes(int64(length))
	}
}

func readTagValue(dr *dcmReader, length uint32, order binary.ByteOrder) (interface{}, error) {
	tags := make([]DataElementTag, length/4)
	for i := range tags {
		t, err := dr.Tag(order)
		if err != nil {
			return nil, fmt.Errorf("reading attribute tag: %v", err)
		}
		tags[i] = t
	}
	return tags, nil
}

// collapseSingleton unwraps a one-element value container to its scalar for
// every VR except SQ. Byte, word and float runs (OB, OW, OF, UN) are atomic
// runs rather than containers and are kept as slices; so are the pixel data
// value types.
func collapseSingleton(vr *VR, value interface{}) interface{} {
	if vr == SQVR || vr.kind == bulkDataVR {
		return value
	}
	switch v := value.(type) {
	case []string:
		if len(v) == 1 {
			return v[0]
		}
	case []int:
		if len(v) == 1 {
			return v[0]
		}
	case []float64:
		if len(v) == 1 {
			return v[0]
		}
	case []float32:
		if len(v) == 1 {
			return v[0]
		}
	case []int16:
		if len(v) == 1 {
			return v[0]
		}
	case []uint16:
		if len(v) == 1 {
			return v[0]
		}
	case []int32:
		if len(v) == 1 {
			return v[0]
		}
	case []uint32:
		if len(v) == 1 {
			return v[0]
		}
	case []DataElementTag:
		if len(v) == 1 {
			return v[0]
		}
	}
	return value
}
