package dicom

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDataElement(t *testing.T) {
	// see http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
	// for the byte structure of each header form
	testCases := []struct {
		name     string
		bytes    []byte
		syntax   transferSyntax
		expected *DataElement
	}{
		{
			"unsigned long, explicit VR little endian",
			[]byte{0x02, 0x00, 0x00, 0x00, 'U', 'L', 0x04, 0x00, 0xCA, 0x00, 0x00, 0x00},
			explicitVRLittleEndian,
			&DataElement{0x00020000, ULVR, uint32(202), 4},
		},
		{
			"code string collapses to scalar",
			explicitLE(0x0008, 0x0060, "CS", []byte("MR")),
			explicitVRLittleEndian,
			&DataElement{0x00080060, CSVR, "MR", 2},
		},
		{
			"code string with multiple values",
			explicitLE(0x0008, 0x0008, "CS", []byte(`ORIGINAL\PRIMARY`)),
			explicitVRLittleEndian,
			&DataElement{0x00080008, CSVR, []string{"ORIGINAL", "PRIMARY"}, 16},
		},
		{
			"implicit VR comes from the dictionary",
			implicitLE(0x0008, 0x0060, 2, []byte("MR")),
			implicitVRLittleEndian,
			&DataElement{0x00080060, CSVR, "MR", 2},
		},
		{
			"group length is UL in the implicit syntax",
			implicitLE(0x7FE0, 0x0000, 4, []byte{0x0C, 0x10, 0x0E, 0x00}),
			implicitVRLittleEndian,
			&DataElement{0x7FE00000, ULVR, uint32(921612), 4},
		},
		{
			"private creator has VR LO",
			implicitLE(0x0009, 0x0010, 4, []byte("ACME")),
			implicitVRLittleEndian,
			&DataElement{0x00090010, LOVR, "ACME", 4},
		},
		{
			"private data defaults to UN",
			implicitLE(0x0009, 0x1001, 4, []byte{0x01, 0x02, 0x03, 0x04}),
			implicitVRLittleEndian,
			&DataElement{0x00091001, UNVR, []byte{0x01, 0x02, 0x03, 0x04}, 4},
		},
		{
			"decimal string",
			explicitLE(0x0018, 0x0060, "DS", []byte("120 ")),
			explicitVRLittleEndian,
			&DataElement{0x00180060, DSVR, float64(120), 4},
		},
		{
			"decimal string with multiple values",
			explicitLE(0x0028, 0x0030, "DS", []byte(`0.5\0.75`)),
			explicitVRLittleEndian,
			&DataElement{0x00280030, DSVR, []float64{0.5, 0.75}, 8},
		},
		{
			"integer string",
			explicitLE(0x0020, 0x0013, "IS", []byte("42")),
			explicitVRLittleEndian,
			&DataElement{0x00200013, ISVR, 42, 2},
		},
		{
			"empty numeric token decodes to zero",
			explicitLE(0x0028, 0x0034, "IS", []byte(`\4`)),
			explicitVRLittleEndian,
			&DataElement{0x00280034, ISVR, []int{0, 4}, 2},
		},
		{
			"unsigned short, big endian",
			concat(uint16BE(0x0028, 0x0010), []byte{'U', 'S'}, uint16BE(2), uint16BE(256)),
			explicitVRBigEndian,
			&DataElement{0x00280010, USVR, uint16(256), 2},
		},
		{
			"attribute tag",
			explicitLE(0x0072, 0x0026, "AT", uint16LE(0x0008, 0x0060)),
			explicitVRLittleEndian,
			&DataElement{0x00720026, ATVR, DataElementTag(0x00080060), 4},
		},
		{
			"unique identifier trims null padding",
			explicitLE(0x0008, 0x0018, "UI", []byte("1.2.3\x00")),
			explicitVRLittleEndian,
			&DataElement{0x00080018, UIVR, "1.2.3", 6},
		},
		{
			"meta group is explicit little even in the implicit syntax",
			[]byte{0x02, 0x00, 0x00, 0x00, 'U', 'L', 0x04, 0x00, 0x10, 0x00, 0x00, 0x00},
			implicitVRLittleEndian,
			&DataElement{0x00020000, ULVR, uint32(16), 4},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ds := NewDataSet()
			element, err := readDataElement(dcmReaderFromBytes(tc.bytes), tc.syntax, ds, defaultParseContext())
			require.NoError(t, err)
			assert.Equal(t, tc.expected, element)
		})
	}
}

func TestReadDataElementTermination(t *testing.T) {
	t.Run("EOF at element start is graceful", func(t *testing.T) {
		ds := NewDataSet()
		_, err := readDataElement(dcmReaderFromBytes(nil), explicitVRLittleEndian, ds, defaultParseContext())
		assert.Equal(t, io.EOF, err)
	})

	t.Run("item delimitation item terminates", func(t *testing.T) {
		ds := NewDataSet()
		_, err := readDataElement(
			dcmReaderFromBytes([]byte{0xFE, 0xFF, 0x0D, 0xE0, 0x00, 0x00, 0x00, 0x00}),
			explicitVRLittleEndian, ds, defaultParseContext())
		assert.Equal(t, io.EOF, err)
	})

	t.Run("EOF mid-element is an error", func(t *testing.T) {
		ds := NewDataSet()
		_, err := readDataElement(
			dcmReaderFromBytes([]byte{0x08, 0x00, 0x60, 0x00, 'C', 'S', 0x04, 0x00, 'M'}),
			explicitVRLittleEndian, ds, defaultParseContext())
		assert.Error(t, err)
		assert.NotEqual(t, io.EOF, err)
	})

	t.Run("group above the maximum stops parsing", func(t *testing.T) {
		ds := NewDataSet()
		ctx := &parseContext{opts: parseOptions{maxGroup: 0x0008, hasMaxGroup: true}}
		_, err := readDataElement(
			dcmReaderFromBytes(explicitLE(0x0010, 0x0010, "PN", []byte("Doe^Jane"))),
			explicitVRLittleEndian, ds, ctx)
		assert.ErrorIs(t, err, errGroupLimit)
	})
}

func TestReadDataElementVROverrides(t *testing.T) {
	t.Run("override replaces the dictionary VR", func(t *testing.T) {
		ds := NewDataSet()
		ctx := contextWithOverrides(VROverrides{0x00181170: DSVR})
		element, err := readDataElement(
			dcmReaderFromBytes(implicitLE(0x0018, 0x1170, 4, []byte("3.5 "))),
			implicitVRLittleEndian, ds, ctx)
		require.NoError(t, err)
		assert.Equal(t, DSVR, element.VR)
		assert.Equal(t, 3.5, element.ValueField)
	})

	t.Run("nil override skips the element", func(t *testing.T) {
		ds := NewDataSet()
		ctx := contextWithOverrides(VROverrides{0x00080060: nil})
		in := concat(
			explicitLE(0x0008, 0x0060, "CS", []byte("MR")),
			explicitLE(0x0008, 0x0070, "LO", []byte("Acme")),
		)
		element, err := readDataElement(dcmReaderFromBytes(in), explicitVRLittleEndian, ds, ctx)
		require.NoError(t, err)
		assert.Equal(t, DataElementTag(0x00080070), element.Tag)
		assert.Equal(t, "Acme", element.ValueField)
	})

	t.Run("wildcard override fills in unknown VRs", func(t *testing.T) {
		ds := NewDataSet()
		ctx := contextWithOverrides(VROverrides{WildcardTag: LOVR})
		element, err := readDataElement(
			dcmReaderFromBytes(implicitLE(0x0006, 0x0001, 4, []byte("ab\x00\x00"))),
			implicitVRLittleEndian, ds, ctx)
		require.NoError(t, err)
		assert.Equal(t, LOVR, element.VR)
	})

	t.Run("unknown tag without wildcard is an error", func(t *testing.T) {
		ds := NewDataSet()
		_, err := readDataElement(
			dcmReaderFromBytes(implicitLE(0x0006, 0x0001, 4, []byte{0, 0, 0, 0})),
			implicitVRLittleEndian, ds, defaultParseContext())
		assert.ErrorIs(t, err, ErrUnknownTag)
	})
}

func TestReadDataElementOddLengthPadding(t *testing.T) {
	// a declared size of 3 is followed by one pad byte; the next element must
	// be readable afterwards
	in := concat(
		[]byte{0x08, 0x00, 0x60, 0x00, 'C', 'S', 0x03, 0x00, 'M', 'R', ' ', 0x00},
		explicitLE(0x0008, 0x0070, "LO", []byte("Acme")),
	)
	dr := dcmReaderFromBytes(in)
	ds := NewDataSet()

	first, err := readDataElement(dr, explicitVRLittleEndian, ds, defaultParseContext())
	require.NoError(t, err)
	assert.Equal(t, "MR", first.ValueField)

	second, err := readDataElement(dr, explicitVRLittleEndian, ds, defaultParseContext())
	require.NoError(t, err)
	assert.Equal(t, DataElementTag(0x00080070), second.Tag)
	assert.Equal(t, "Acme", second.ValueField)
}

func TestReadDataElementMalformedNumericText(t *testing.T) {
	ds := NewDataSet()
	_, err := readDataElement(
		dcmReaderFromBytes(explicitLE(0x0020, 0x0013, "IS", []byte("12a4"))),
		explicitVRLittleEndian, ds, defaultParseContext())
	assert.ErrorIs(t, err, ErrMalformedNumericText)
}

func TestReadValueLength(t *testing.T) {
	testCases := []struct {
		name     string
		bytes    []byte
		vr       *VR
		syntax   transferSyntax
		expected uint32
	}{
		{
			"32-bit length after reserved field, little endian",
			[]byte{0x00, 0x00, 0x11, 0x22, 0x33, 0x44},
			SQVR,
			explicitVRLittleEndian,
			0x44332211,
		},
		{
			"32-bit length after reserved field, big endian",
			[]byte{0x00, 0x00, 0x11, 0x22, 0x33, 0x44},
			SQVR,
			explicitVRBigEndian,
			0x11223344,
		},
		{
			"16-bit length, little endian",
			[]byte{0x11, 0x22},
			USVR,
			explicitVRLittleEndian,
			0x2211,
		},
		{
			"16-bit length, big endian",
			[]byte{0x11, 0x22},
			USVR,
			explicitVRBigEndian,
			0x1122,
		},
		{
			"implicit syntax always uses 32 bits",
			[]byte{0x11, 0x22, 0x33, 0x44},
			nil,
			implicitVRLittleEndian,
			0x44332211,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			length, err := readValueLength(dcmReaderFromBytes(tc.bytes), tc.vr, tc.syntax)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, length)
		})
	}
}

func TestCollapseSingleton(t *testing.T) {
	assert.Equal(t, "MR", collapseSingleton(CSVR, []string{"MR"}))
	assert.Equal(t, uint16(7), collapseSingleton(USVR, []uint16{7}))
	assert.Equal(t, []string{"a", "b"}, collapseSingleton(CSVR, []string{"a", "b"}))

	// byte, word and float runs are atomic and never collapse
	assert.Equal(t, []byte{1}, collapseSingleton(OBVR, []byte{1}))
	assert.Equal(t, []uint16{1}, collapseSingleton(OWVR, []uint16{1}))

	// sequences are always lists
	seq := &Sequence{Items: []*DataSet{}}
	assert.Equal(t, seq, collapseSingleton(SQVR, seq))
}
