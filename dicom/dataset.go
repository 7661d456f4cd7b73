package dicom

import (
	"fmt"
	"sort"
	"strings"
)

// DataElementTag is a unique identifier for a Data Element composed of an
// ordered pair of numbers called the group number and the element number as
// specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
//
// The most significant 16 bits is the group number, the least significant 16
// bits the element number.
type DataElementTag uint32

// NewTag composes a DataElementTag from its group and element numbers.
func NewTag(group, element uint16) DataElementTag {
	return DataElementTag(uint32(group)<<16 | uint32(element))
}

// GroupNumber returns the group number component of the DataElementTag
func (t DataElementTag) GroupNumber() uint16 {
	return uint16(t >> 16)
}

// ElementNumber returns the element number component of the DataElementTag
func (t DataElementTag) ElementNumber() uint16 {
	return uint16(t & 0xFFFF)
}

// IsMetaElement is true if and only if the tag belongs to the file meta
// information group (0002,xxxx)
func (t DataElementTag) IsMetaElement() bool {
	return t.GroupNumber() == 0x0002
}

// IsPrivate reports whether the tag belongs to a private (odd) group. Groups
// at or below 0x0008 are never treated as private.
func (t DataElementTag) IsPrivate() bool {
	g := t.GroupNumber()
	return g%2 == 1 && g > 0x0008
}

// IsPrivateCreator reports whether the tag reserves a private block, i.e. a
// private tag with element number in 0x0010 through 0x00FF inclusive.
func (t DataElementTag) IsPrivateCreator() bool {
	e := t.ElementNumber()
	return t.IsPrivate() && e >= 0x0010 && e <= 0x00FF
}

// IsGroupLength reports whether the tag is a group length element (gggg,0000)
func (t DataElementTag) IsGroupLength() bool {
	return t.ElementNumber() == 0x0000
}

func (t DataElementTag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.GroupNumber(), t.ElementNumber())
}

// Keyword returns the data dictionary keyword of the tag, or "" when the tag
// is not in the dictionary.
func (t DataElementTag) Keyword() string {
	if entry, found := LookupTag(t); found {
		return entry.Keyword
	}
	return ""
}

// DataElement models a DICOM Data Element as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
type DataElement struct {
	Tag DataElementTag

	// Value Representation. May be nil on user-constructed elements, in which
	// case the writer fills it in from the data dictionary.
	VR *VR

	// ValueField holds the decoded value. Values of multiplicity 1 are stored
	// unwrapped; multi-valued elements are stored as slices. Can be any of:
	// string, []string
	// float64, []float64 (DS, FD)
	// int, []int (IS)
	// int16, []int16, uint16, []uint16, int32, []int32, uint32, []uint32
	// float32, []float32
	// []byte (OB, UN)
	// DataElementTag, []DataElementTag (AT)
	// *Sequence (SQ)
	// *NativePixelData, *EncapsulatedPixelData (pixel data)
	ValueField interface{}

	// ValueLength is the value length in bytes as read from the stream. Equal
	// to 0xFFFFFFFF for undefined length. The writer computes lengths from
	// the value and does not consult this field.
	ValueLength uint32
}

// DataSet models a DICOM Data Set as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
// Iteration order is ascending tag order via SortedTags/SortedElements.
type DataSet struct {
	// Elements maps tags to their data elements
	Elements map[DataElementTag]*DataElement

	// LittleEndian and ExplicitVR record the encoding of the data set: the
	// transfer syntax observed by the parser, or the desired output encoding
	// for user-constructed sets.
	LittleEndian bool
	ExplicitVR   bool

	// VRs is the per-tag VR map observed during parsing. Populated when the
	// RecordVRs parse option is given; consulted by the writer ahead of the
	// data dictionary.
	VRs map[DataElementTag]*VR
}

// NewDataSet returns an empty DataSet in the explicit VR little endian
// encoding.
func NewDataSet() *DataSet {
	return &DataSet{
		Elements:     map[DataElementTag]*DataElement{},
		LittleEndian: true,
		ExplicitVR:   true,
	}
}

// SortedTags returns the tags of the DataSet in ascending order
func (ds *DataSet) SortedTags() []DataElementTag {
	tags := make([]DataElementTag, 0, len(ds.Elements))
	for tag := range ds.Elements {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// SortedElements returns the elements of the DataSet in ascending tag order
func (ds *DataSet) SortedElements() []*DataElement {
	elements := make([]*DataElement, 0, len(ds.Elements))
	for _, tag := range ds.SortedTags() {
		elements = append(elements, ds.Elements[tag])
	}
	return elements
}

// Keys returns the tags present in the DataSet in ascending order
func (ds *DataSet) Keys() []DataElementTag {
	return ds.SortedTags()
}

// Keywords returns the dictionary keywords of all present tags that are known
// to the data dictionary, in ascending tag order.
func (ds *DataSet) Keywords() []string {
	keywords := make([]string, 0, len(ds.Elements))
	for _, tag := range ds.SortedTags() {
		if kw := tag.Keyword(); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// Get returns the element stored under tag
func (ds *DataSet) Get(tag DataElementTag) (*DataElement, bool) {
	element, found := ds.Elements[tag]
	return element, found
}

// GetValue returns the value stored under tag
func (ds *DataSet) GetValue(tag DataElementTag) (interface{}, bool) {
	if element, found := ds.Elements[tag]; found {
		return element.ValueField, true
	}
	return nil, false
}

// GetValueDefault returns the value stored under tag, or def when absent
func (ds *DataSet) GetValueDefault(tag DataElementTag, def interface{}) interface{} {
	if v, found := ds.GetValue(tag); found {
		return v
	}
	return def
}

// Contains reports whether the DataSet holds an element for tag
func (ds *DataSet) Contains(tag DataElementTag) bool {
	_, found := ds.Elements[tag]
	return found
}

// Lookup returns the value stored under the tag named by the data dictionary
// keyword. Keyword matching is whitespace-insensitive.
func (ds *DataSet) Lookup(keyword string) (interface{}, bool) {
	tag, found := TagForKeyword(keyword)
	if !found {
		return nil, false
	}
	return ds.GetValue(tag)
}

// Put stores the element, replacing any existing element with the same tag
func (ds *DataSet) Put(element *DataElement) {
	ds.Elements[element.Tag] = element
}

// PutValue stores value under tag with the VR from the data dictionary (or
// the private-group fallback). Returns ErrUnknownTag when no VR can be
// determined.
func (ds *DataSet) PutValue(tag DataElementTag, value interface{}) error {
	vr, found := VRForTag(tag)
	if !found {
		if tag.IsPrivateCreator() {
			vr = LOVR
		} else if tag.IsPrivate() {
			vr = UNVR
		} else if tag.IsGroupLength() {
			vr = ULVR
		} else {
			return fmt.Errorf("putting %v: %w", tag, ErrUnknownTag)
		}
	}
	ds.Elements[tag] = &DataElement{Tag: tag, VR: vr, ValueField: value}
	return nil
}

// PutKeyword stores value under the tag named by the data dictionary keyword
func (ds *DataSet) PutKeyword(keyword string, value interface{}) error {
	tag, found := TagForKeyword(keyword)
	if !found {
		return fmt.Errorf("putting keyword %q: %w", keyword, ErrUnknownTag)
	}
	return ds.PutValue(tag, value)
}

// MetaElements returns a DataSet containing only the file meta information
// (0002,xxxx) elements of ds
func (ds *DataSet) MetaElements() *DataSet {
	meta := NewDataSet()
	meta.LittleEndian, meta.ExplicitVR = ds.LittleEndian, ds.ExplicitVR
	for tag, element := range ds.Elements {
		if tag.IsMetaElement() {
			meta.Elements[tag] = element
		}
	}
	return meta
}

// TransferSyntaxUID returns the (0002,0010) UID when present
func (ds *DataSet) TransferSyntaxUID() (string, bool) {
	if v, found := ds.GetValue(TransferSyntaxUIDTag); found {
		if uid, ok := v.(string); ok {
			return uid, true
		}
	}
	return "", false
}

func (ds *DataSet) String() string {
	return ds.describe(0)
}

func (ds *DataSet) describe(indentLvl int) string {
	indent := strings.Repeat("  ", indentLvl)
	lines := make([]string, 0, len(ds.Elements))
	for _, element := range ds.SortedElements() {
		vrName := "??"
		if element.VR != nil {
			vrName = element.VR.Name
		}
		heading := fmt.Sprintf("%s%s %s %s", indent, element.Tag, vrName, element.Tag.Keyword())
		switch v := element.ValueField.(type) {
		case *Sequence:
			lines = append(lines, heading+":")
			for _, item := range v.Items {
				lines = append(lines, item.describe(indentLvl+1))
			}
		case *NativePixelData:
			lines = append(lines, fmt.Sprintf("%s: native pixel data, shape %v", heading, v.Shape))
		case *EncapsulatedPixelData:
			lines = append(lines, fmt.Sprintf("%s: encapsulated pixel data, %d fragments", heading, len(v.Fragments)))
		case []byte:
			lines = append(lines, fmt.Sprintf("%s: (%d bytes)", heading, len(v)))
		default:
			lines = append(lines, fmt.Sprintf("%s: %v", heading, v))
		}
	}
	return strings.Join(lines, "\n")
}

// intValue returns the value under tag coerced to int. Used for the image
// pixel module attributes consulted by the pixel data engine.
func (ds *DataSet) intValue(tag DataElementTag) (int, bool) {
	v, found := ds.GetValue(tag)
	if !found {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case uint16:
		return int(n), true
	case int16:
		return int(n), true
	case uint32:
		return int(n), true
	case int32:
		return int(n), true
	case []int:
		if len(n) > 0 {
			return n[0], true
		}
	case []uint16:
		if len(n) > 0 {
			return int(n[0]), true
		}
	}
	return 0, false
}

// intValueDefault returns the value under tag coerced to int, or def
func (ds *DataSet) intValueDefault(tag DataElementTag, def int) int {
	if n, found := ds.intValue(tag); found {
		return n
	}
	return def
}

// floatValue returns the value under tag coerced to float64
func (ds *DataSet) floatValue(tag DataElementTag) (float64, bool) {
	v, found := ds.GetValue(tag)
	if !found {
		return 0, false
	}
	switch f := v.(type) {
	case float64:
		return f, true
	case []float64:
		if len(f) > 0 {
			return f[0], true
		}
	case int:
		return float64(f), true
	}
	return 0, false
}
