package dicom

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
)

// Write encodes the data set as a DICOM Part 10 stream. Meta group elements
// are written in explicit VR little endian; body elements in the transfer
// syntax named by (0002,0010). When (0002,0010) is absent, a transfer syntax
// UID matching the data set's encoding attributes is inserted. The File Meta
// Information Group Length is recomputed.
//
// Elements are written in ascending tag order. A write failure leaves the
// sink in an undefined state.
func Write(w io.Writer, ds *DataSet, opts ...WriteOption) error {
	wopts := writeOptions{preamble: true}
	for _, opt := range opts {
		opt.apply(&wopts)
	}
	ctx := &writeContext{opts: wopts, charset: charsetForWrite(ds)}

	dw := &dcmWriter{w}
	if wopts.preamble {
		if err := dw.Bytes(make([]byte, 128)); err != nil {
			return fmt.Errorf("writing preamble: %v", err)
		}
		if err := dw.String("DICM"); err != nil {
			return fmt.Errorf("writing DICOM signature: %v", err)
		}
	}

	syntax := writeSyntax(ds)

	if err := refreshMetaGroupLength(ds, ctx); err != nil {
		return fmt.Errorf("refreshing meta group length: %w", err)
	}

	for _, tag := range ds.SortedTags() {
		sx := syntax
		if tag.IsMetaElement() {
			// file meta elements are always explicit VR little endian
			sx = explicitVRLittleEndian
		}
		if err := writeDataElement(dw, sx, ds, ds.Elements[tag], ctx); err != nil {
			return fmt.Errorf("writing data element %v: %w", tag, err)
		}
	}

	return nil
}

// WriteFile encodes the data set to a file at path, creating or truncating it
func WriteFile(path string, ds *DataSet, opts ...WriteOption) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, ds, opts...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeContext carries per-write state: the caller's options and the
// character set the file declares via (0008,0005).
type writeContext struct {
	opts    writeOptions
	charset encoding.Encoding
}

func charsetForWrite(ds *DataSet) encoding.Encoding {
	v, found := ds.GetValue(SpecificCharacterSetTag)
	if !found {
		return nil
	}
	term := ""
	switch t := v.(type) {
	case string:
		term = t
	case []string:
		if len(t) > 0 {
			term = t[0]
		}
	}
	if term == "" {
		return nil
	}
	coding, err := lookupEncoding(term)
	if err != nil {
		logger.Warnf("character set %q unknown, writing text as-is: %v", term, err)
		return nil
	}
	return coding
}

// writeSyntax determines the body transfer syntax from (0002,0010), inserting
// a UID matching the data set's encoding attributes when the element is
// absent.
func writeSyntax(ds *DataSet) transferSyntax {
	if uid, found := ds.TransferSyntaxUID(); found {
		syntax, known := lookupTransferSyntax(uid)
		if !known {
			logger.Warnf("unknown transfer syntax %q, writing as explicit VR little endian", uid)
		}
		return syntax
	}

	syntax := syntaxForEncoding(ds.LittleEndian, ds.ExplicitVR)
	ds.Elements[TransferSyntaxUIDTag] = &DataElement{
		Tag:         TransferSyntaxUIDTag,
		VR:          UIVR,
		ValueField:  uidForSyntax(syntax),
		ValueLength: uint32(len(uidForSyntax(syntax)) + len(uidForSyntax(syntax))%2),
	}
	return syntax
}

// refreshMetaGroupLength recomputes the File Meta Information Group Length
// (0002,0000) from the meta elements actually present. Required for
// byte-exact round trips after any element changed size.
func refreshMetaGroupLength(ds *DataSet, ctx *writeContext) error {
	size := uint32(0)
	hasMeta := false
	for _, tag := range ds.SortedTags() {
		if !tag.IsMetaElement() {
			if tag.GroupNumber() > 0x0002 {
				break
			}
			continue
		}
		hasMeta = true
		if tag == FileMetaInformationGroupLengthTag {
			// excludes itself from the byte count
			continue
		}
		element := ds.Elements[tag]
		vr, err := resolveWriteVR(ds, element, ctx)
		if err != nil {
			return err
		}
		_, length, err := wireForm(vr, element.ValueField, ds, ctx)
		if err != nil {
			return fmt.Errorf("sizing %v: %w", tag, err)
		}
		size += explicitVRLittleEndian.elementSize(vr, length)
	}
	if !hasMeta {
		return nil
	}

	ds.Elements[FileMetaInformationGroupLengthTag] = &DataElement{
		Tag:         FileMetaInformationGroupLengthTag,
		VR:          ULVR,
		ValueField:  size,
		ValueLength: 4,
	}
	return nil
}

func writeDataElement(dw *dcmWriter, syntax transferSyntax, ds *DataSet, element *DataElement, ctx *writeContext) error {
	vr, err := resolveWriteVR(ds, element, ctx)
	if err != nil {
		return err
	}

	value, length, err := wireForm(vr, element.ValueField, ds, ctx)
	if err != nil {
		return err
	}

	if err := dw.Tag(syntax.ByteOrder, element.Tag); err != nil {
		return fmt.Errorf("writing tag: %v", err)
	}
	if !syntax.Implicit {
		if err := dw.String(vr.Name); err != nil {
			return fmt.Errorf("writing VR: %v", err)
		}
	}
	if err := writeValueLength(dw, syntax, vr, length); err != nil {
		return fmt.Errorf("writing length: %v", err)
	}
	if err := writeValue(dw, syntax, vr, value, ds, ctx); err != nil {
		return fmt.Errorf("writing value: %w", err)
	}

	return nil
}

// resolveWriteVR picks the VR an element is serialised with: the caller's
// override map, then the VR recorded on the element, then the VR map observed
// at parse time, then the data dictionary, then the private group fallback,
// then the override map's wildcard entry.
func resolveWriteVR(ds *DataSet, element *DataElement, ctx *writeContext) (*VR, error) {
	if override, ok := ctx.opts.overrides[element.Tag]; ok && override != nil {
		return override, nil
	}
	if element.VR != nil {
		return element.VR, nil
	}
	if vr, ok := ds.VRs[element.Tag]; ok && vr != nil {
		return vr, nil
	}
	if element.Tag.IsGroupLength() {
		return ULVR, nil
	}
	if vr, found := VRForTag(element.Tag); found {
		return vr, nil
	}
	if element.Tag.IsPrivateCreator() {
		return LOVR, nil
	}
	if element.Tag.IsPrivate() {
		return UNVR, nil
	}
	if wildcard, ok := ctx.opts.overrides[WildcardTag]; ok && wildcard != nil {
		return wildcard, nil
	}
	return nil, fmt.Errorf("resolving VR of %v: %w", element.Tag, ErrUnknownTag)
}

// wireForm normalises a value into the form writeValue serialises and
// computes its on-wire length. Scalars that were collapsed when parsing are
// re-wrapped; text values are joined, character-set encoded and returned as
// raw bytes; the length includes the trailing pad byte for odd payloads.
func wireForm(vr *VR, value interface{}, ds *DataSet, ctx *writeContext) (interface{}, uint32, error) {
	switch vr.kind {
	case textVR, numberTextVR, uniqueIdentifierVR:
		payload, err := textPayload(vr, value, ctx)
		if err != nil {
			return nil, 0, err
		}
		return payload, evenLength(len(payload)), nil
	}

	value = wrapScalar(value)

	switch v := value.(type) {
	case nil:
		return nil, 0, nil
	case []byte:
		return v, evenLength(len(v)), nil
	case []int16:
		return v, uint32(2 * len(v)), nil
	case []uint16:
		return v, uint32(2 * len(v)), nil
	case []int32:
		return v, uint32(4 * len(v)), nil
	case []uint32:
		return v, uint32(4 * len(v)), nil
	case []float32:
		return v, uint32(4 * len(v)), nil
	case []float64:
		return v, uint32(8 * len(v)), nil
	case []int:
		n, err := intSliceByteSize(vr, len(v))
		return v, n, err
	case []DataElementTag:
		return v, uint32(4 * len(v)), nil
	case *Sequence:
		return v, UndefinedLength, nil
	case *EncapsulatedPixelData:
		return v, UndefinedLength, nil
	case *NativePixelData:
		n, err := nativePixelByteLength(v)
		return v, n, err
	default:
		return nil, 0, fmt.Errorf("unexpected value type %T", value)
	}
}

func evenLength(n int) uint32 {
	if n%2 != 0 {
		n++
	}
	return uint32(n)
}

func wrapScalar(value interface{}) interface{} {
	switch v := value.(type) {
	case int16:
		return []int16{v}
	case uint16:
		return []uint16{v}
	case int32:
		return []int32{v}
	case uint32:
		return []uint32{v}
	case float32:
		return []float32{v}
	case float64:
		return []float64{v}
	case int:
		return []int{v}
	case DataElementTag:
		return []DataElementTag{v}
	}
	return value
}

func intSliceByteSize(vr *VR, n int) (uint32, error) {
	switch vr {
	case SSVR, USVR:
		return uint32(2 * n), nil
	case SLVR, ULVR:
		return uint32(4 * n), nil
	default:
		return 0, fmt.Errorf("cannot write []int as %v", vr)
	}
}

// textPayload joins a text value with backslashes, serialising DS and IS
// numbers back to strings and re-encoding character data into the declared
// character set. The result excludes the trailing pad byte.
func textPayload(vr *VR, value interface{}, ctx *writeContext) ([]byte, error) {
	var parts []string
	switch v := value.(type) {
	case nil:
		parts = nil
	case string:
		parts = []string{v}
	case []string:
		parts = v
	case float64:
		parts = []string{formatDecimalString(v)}
	case []float64:
		parts = make([]string, len(v))
		for i, f := range v {
			parts[i] = formatDecimalString(f)
		}
	case int:
		parts = []string{strconv.Itoa(v)}
	case []int:
		parts = make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.Itoa(n)
		}
	default:
		return nil, fmt.Errorf("unexpected text value type %T", value)
	}

	joined := strings.Join(parts, "\\")
	if isCharacterDataVR(vr) && ctx.charset != nil {
		encoder := encoding.ReplaceUnsupported(ctx.charset.NewEncoder())
		encoded, err := encoder.Bytes([]byte(joined))
		if err == nil {
			return encoded, nil
		}
		logger.Warnf("encoding text to declared character set failed, writing UTF-8: %v", err)
	}
	return []byte(joined), nil
}

func formatDecimalString(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func writeValueLength(dw *dcmWriter, syntax transferSyntax, vr *VR, length uint32) error {
	if syntax.Implicit {
		return dw.UInt32(syntax.ByteOrder, length)
	}

	if has32BitLength(vr) {
		if err := dw.UInt16(syntax.ByteOrder, 0); err != nil {
			return fmt.Errorf("writing reserved field: %v", err)
		}
		return dw.UInt32(syntax.ByteOrder, length)
	}

	if length > math.MaxUint16 {
		return fmt.Errorf("value length %d exceeds the 16-bit length field of %v", length, vr)
	}
	return dw.UInt16(syntax.ByteOrder, uint16(length))
}

func writeValue(dw *dcmWriter, syntax transferSyntax, vr *VR, value interface{}, ds *DataSet, ctx *writeContext) error {
	switch v := value.(type) {
	case nil:
		return nil
	case *Sequence:
		return writeSequence(dw, syntax, v, ctx)
	case *NativePixelData:
		return writeNativePixelData(dw, syntax, ds, v)
	case *EncapsulatedPixelData:
		return writeEncapsulatedPixelData(dw, v)
	}

	switch vr.kind {
	case textVR, numberTextVR:
		return writePaddedBytes(dw, value.([]byte), ' ')
	case uniqueIdentifierVR:
		return writePaddedBytes(dw, value.([]byte), 0x00)
	case tagVR:
		return writeTagValue(dw, syntax.ByteOrder, value)
	default:
		return writeBinaryValue(dw, syntax, vr, value)
	}
}

func writePaddedBytes(dw *dcmWriter, payload []byte, pad byte) error {
	if err := dw.Bytes(payload); err != nil {
		return err
	}
	if len(payload)%2 != 0 {
		return dw.Bytes([]byte{pad})
	}
	return nil
}

func writeBinaryValue(dw *dcmWriter, syntax transferSyntax, vr *VR, value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return writePaddedBytes(dw, v, 0x00)
	case []int16, []uint16, []int32, []uint32, []float32, []float64:
		return binary.Write(dw, syntax.ByteOrder, v)
	case []int:
		return writeIntSlice(dw, syntax, vr, v)
	default:
		return fmt.Errorf("unsupported binary value type: %T", value)
	}
}

func writeIntSlice(dw *dcmWriter, syntax transferSyntax, vr *VR, v []int) error {
	switch vr {
	case SSVR:
		out := make([]int16, len(v))
		for i, n := range v {
			out[i] = int16(n)
		}
		return binary.Write(dw, syntax.ByteOrder, out)
	case USVR:
		out := make([]uint16, len(v))
		for i, n := range v {
			out[i] = uint16(n)
		}
		return binary.Write(dw, syntax.ByteOrder, out)
	case SLVR:
		out := make([]int32, len(v))
		for i, n := range v {
			out[i] = int32(n)
		}
		return binary.Write(dw, syntax.ByteOrder, out)
	case ULVR:
		out := make([]uint32, len(v))
		for i, n := range v {
			out[i] = uint32(n)
		}
		return binary.Write(dw, syntax.ByteOrder, out)
	default:
		return fmt.Errorf("cannot write []int as %v", vr)
	}
}

func writeTagValue(dw *dcmWriter, order binary.ByteOrder, value interface{}) error {
	tags, ok := value.([]DataElementTag)
	if !ok {
		return fmt.Errorf("unexpected type for tag VR: %T (expected []DataElementTag)", value)
	}
	for _, tag := range tags {
		if err := dw.Tag(order, tag); err != nil {
			return fmt.Errorf("writing attribute tag: %v", err)
		}
	}
	return nil
}

// writeSequence emits the sequence in the undefined length form: each item as
// (FFFE,E000) with undefined length, its elements in ascending tag order, an
// item delimitation item, and finally the sequence delimitation item.
func writeSequence(dw *dcmWriter, syntax transferSyntax, seq *Sequence, ctx *writeContext) error {
	for _, item := range seq.Items {
		if err := dw.Tag(syntax.ByteOrder, ItemTag); err != nil {
			return fmt.Errorf("writing item tag: %v", err)
		}
		if err := dw.UInt32(syntax.ByteOrder, UndefinedLength); err != nil {
			return fmt.Errorf("writing item length: %v", err)
		}

		for _, tag := range item.SortedTags() {
			if err := writeDataElement(dw, syntax, item, item.Elements[tag], ctx); err != nil {
				return fmt.Errorf("writing sequence item element %v: %w", tag, err)
			}
		}

		if err := dw.Delimiter(syntax.ByteOrder, ItemDelimitationItemTag); err != nil {
			return fmt.Errorf("writing item delimitation item: %v", err)
		}
	}

	if err := dw.Delimiter(syntax.ByteOrder, SequenceDelimitationItemTag); err != nil {
		return fmt.Errorf("writing sequence delimitation item: %v", err)
	}
	return nil
}

func nativePixelByteLength(px *NativePixelData) (uint32, error) {
	switch data := px.Data.(type) {
	case []uint8:
		return evenLength(len(data)), nil
	case []int8:
		return evenLength(len(data)), nil
	case []uint16:
		return uint32(2 * len(data)), nil
	case []int16:
		return uint32(2 * len(data)), nil
	case []float32:
		return uint32(4 * len(data)), nil
	default:
		return 0, fmt.Errorf("sizing %T: %w", px.Data, ErrUnsupportedPixelFormat)
	}
}

// writeNativePixelData applies the inverse of the parse-time axis permutation
// and serialises the raster in the syntax byte order. Single-byte samples
// cannot be represented in the implicit VR syntax, whose pixel data is OW.
func writeNativePixelData(dw *dcmWriter, syntax transferSyntax, ds *DataSet, px *NativePixelData) error {
	layout := pixelLayoutFromDataSet(ds, nil)

	switch data := px.Data.(type) {
	case []uint8:
		if syntax.Implicit {
			return fmt.Errorf("writing %T: %w", data, ErrImplicitVRPixelSizeMismatch)
		}
		return writePaddedBytes(dw, reorderPixels(data, layout, true), 0x00)
	case []int8:
		if syntax.Implicit {
			return fmt.Errorf("writing %T: %w", data, ErrImplicitVRPixelSizeMismatch)
		}
		raster := reorderPixels(data, layout, true)
		raw := make([]byte, len(raster))
		for i, s := range raster {
			raw[i] = byte(s)
		}
		return writePaddedBytes(dw, raw, 0x00)
	case []uint16:
		return binary.Write(dw, syntax.ByteOrder, reorderPixels(data, layout, true))
	case []int16:
		return binary.Write(dw, syntax.ByteOrder, reorderPixels(data, layout, true))
	case []float32:
		return binary.Write(dw, syntax.ByteOrder, reorderPixels(data, layout, true))
	default:
		return fmt.Errorf("writing %T: %w", px.Data, ErrUnsupportedPixelFormat)
	}
}

// writeEncapsulatedPixelData emits the offset table and fragments as an item
// sequence. Encapsulated items are always little endian.
func writeEncapsulatedPixelData(dw *dcmWriter, encapsulated *EncapsulatedPixelData) error {
	order := binary.LittleEndian

	if err := dw.Tag(order, ItemTag); err != nil {
		return fmt.Errorf("writing offset table tag: %v", err)
	}
	if err := dw.UInt32(order, evenLength(len(encapsulated.OffsetTable))); err != nil {
		return fmt.Errorf("writing offset table length: %v", err)
	}
	if err := writePaddedBytes(dw, encapsulated.OffsetTable, 0x00); err != nil {
		return fmt.Errorf("writing offset table: %v", err)
	}

	for _, fragment := range encapsulated.Fragments {
		if err := dw.Tag(order, ItemTag); err != nil {
			return fmt.Errorf("writing fragment tag: %v", err)
		}
		if err := dw.UInt32(order, evenLength(len(fragment))); err != nil {
			return fmt.Errorf("writing fragment length: %v", err)
		}
		if err := writePaddedBytes(dw, fragment, 0x00); err != nil {
			return fmt.Errorf("writing fragment: %v", err)
		}
	}

	return dw.Delimiter(order, SequenceDelimitationItemTag)
}
