package dicom

// VROverrides is a per-tag VR override map. During parsing an entry replaces
// the VR that would otherwise be chosen from the explicit header or the data
// dictionary; during writing it takes precedence over the element's recorded
// VR and the dictionary.
//
// A nil VR means "skip this element": the parser advances past its value
// without decoding it. An entry under WildcardTag supplies the fallback VR
// for tags that are otherwise unknown.
type VROverrides map[DataElementTag]*VR

type parseOptions struct {
	preamble    bool
	maxGroup    uint16
	hasMaxGroup bool
	overrides   VROverrides
	recordVRs   bool
}

// ParseOption configures the behavior of the Parse function
type ParseOption struct {
	apply func(*parseOptions)
}

// WithPreamble configures whether Parse expects the 128-byte preamble and
// "DICM" magic. When disabled, parsing starts at byte 0 of the stream.
// The default is enabled.
func WithPreamble(enabled bool) ParseOption {
	return ParseOption{func(o *parseOptions) { o.preamble = enabled }}
}

// WithMaxGroup stops parsing as soon as a tag's group number exceeds group.
// Useful for reading header attributes without paying for pixel data.
func WithMaxGroup(group uint16) ParseOption {
	return ParseOption{func(o *parseOptions) { o.maxGroup = group; o.hasMaxGroup = true }}
}

// WithVROverrides supplies a per-tag VR override map applied while parsing
func WithVROverrides(overrides VROverrides) ParseOption {
	return ParseOption{func(o *parseOptions) { o.overrides = overrides }}
}

// RecordVRs populates DataSet.VRs with the VR observed for every top-level
// element. The recorded map is consulted by Write, so a data set parsed with
// RecordVRs round-trips elements whose on-wire VR differs from the
// dictionary.
func RecordVRs() ParseOption {
	return ParseOption{func(o *parseOptions) { o.recordVRs = true }}
}

type writeOptions struct {
	preamble  bool
	overrides VROverrides
}

// WriteOption configures the behavior of the Write function
type WriteOption struct {
	apply func(*writeOptions)
}

// WritePreamble configures whether Write emits the 128-byte preamble and
// "DICM" magic. The default is enabled.
func WritePreamble(enabled bool) WriteOption {
	return WriteOption{func(o *writeOptions) { o.preamble = enabled }}
}

// WriteVROverrides supplies a per-tag VR override map consulted ahead of the
// element VRs and the data dictionary when serialising. Nil entries are
// ignored on write.
func WriteVROverrides(overrides VROverrides) WriteOption {
	return WriteOption{func(o *writeOptions) { o.overrides = overrides }}
}
