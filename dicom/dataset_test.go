package dicom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataElementTag(t *testing.T) {
	tag := NewTag(0x0010, 0x0010)
	assert.Equal(t, uint16(0x0010), tag.GroupNumber())
	assert.Equal(t, uint16(0x0010), tag.ElementNumber())
	assert.Equal(t, "(0010,0010)", tag.String())
	assert.Equal(t, "PatientName", tag.Keyword())

	assert.True(t, DataElementTag(0x00020010).IsMetaElement())
	assert.False(t, DataElementTag(0x00080060).IsMetaElement())

	assert.True(t, DataElementTag(0x00090010).IsPrivate())
	assert.True(t, DataElementTag(0x00090010).IsPrivateCreator())
	assert.True(t, DataElementTag(0x000900FF).IsPrivateCreator())
	assert.False(t, DataElementTag(0x00091001).IsPrivateCreator())
	// groups at or below 0008 are never private
	assert.False(t, DataElementTag(0x00070010).IsPrivate())
	assert.False(t, DataElementTag(0x00080060).IsPrivate())

	assert.True(t, DataElementTag(0x7FE00000).IsGroupLength())
}

func TestDataSetAccess(t *testing.T) {
	ds := NewDataSet()
	require.NoError(t, ds.PutValue(ModalityTag, "MR"))
	require.NoError(t, ds.PutKeyword("PatientName", "Doe^Jane"))
	require.NoError(t, ds.PutKeyword("Patient ID", "12345"))

	assert.True(t, ds.Contains(ModalityTag))
	assert.Equal(t, []DataElementTag{0x00080060, 0x00100010, 0x00100020}, ds.Keys())
	assert.Equal(t, []string{"Modality", "PatientName", "PatientID"}, ds.Keywords())

	name, found := ds.Lookup("Patient Name")
	require.True(t, found)
	assert.Equal(t, "Doe^Jane", name)

	_, found = ds.Lookup("NoSuchKeyword")
	assert.False(t, found)

	v := ds.GetValueDefault(ModalityTag, "OT")
	assert.Equal(t, "MR", v)
	v = ds.GetValueDefault(0x00080061, "OT")
	assert.Equal(t, "OT", v)
}

func TestDataSetPutValueUnknownTag(t *testing.T) {
	ds := NewDataSet()
	assert.ErrorIs(t, ds.PutValue(0x00060001, "x"), ErrUnknownTag)

	// private tags get the heuristic VRs
	require.NoError(t, ds.PutValue(0x00090010, "ACME"))
	assert.Equal(t, LOVR, ds.Elements[0x00090010].VR)
	require.NoError(t, ds.PutValue(0x00091001, []byte{1, 2}))
	assert.Equal(t, UNVR, ds.Elements[0x00091001].VR)
}

func TestDataSetMetaElements(t *testing.T) {
	ds := NewDataSet()
	require.NoError(t, ds.PutValue(TransferSyntaxUIDTag, ExplicitVRLittleEndianUID))
	require.NoError(t, ds.PutValue(ModalityTag, "MR"))

	meta := ds.MetaElements()
	assert.True(t, meta.Contains(TransferSyntaxUIDTag))
	assert.False(t, meta.Contains(ModalityTag))

	uid, found := ds.TransferSyntaxUID()
	require.True(t, found)
	assert.Equal(t, ExplicitVRLittleEndianUID, uid)
}

func TestDictionaryLookups(t *testing.T) {
	vr, found := VRForTag(ModalityTag)
	require.True(t, found)
	assert.Equal(t, CSVR, vr)

	_, found = VRForTag(0x00060001)
	assert.False(t, found)

	tag, found := TagForKeyword("Modality")
	require.True(t, found)
	assert.Equal(t, ModalityTag, tag)

	// whitespace insensitive
	tag, found = TagForKeyword("Patient  Name")
	require.True(t, found)
	assert.Equal(t, DataElementTag(0x00100010), tag)

	assert.Equal(t, ModalityTag, MustTagForKeyword("Modality"))
	assert.Panics(t, func() { MustTagForKeyword("NoSuchKeyword") })
}

func TestDictionaryRepeatingGroups(t *testing.T) {
	// (50xx,eeee) and (60xx,eeee) fold onto the 5000/6000 rows
	for _, group := range []uint16{0x5000, 0x5002, 0x50FE} {
		vr, found := VRForTag(NewTag(group, 0x3000))
		require.True(t, found, "group %04X", group)
		assert.Equal(t, OWVR, vr)
	}
	for _, group := range []uint16{0x6000, 0x6002, 0x60FE} {
		vr, found := VRForTag(NewTag(group, 0x0010))
		require.True(t, found, "group %04X", group)
		assert.Equal(t, USVR, vr)
	}

	base, _ := VRForTag(0x50003000)
	repeated, _ := VRForTag(0x50063000)
	assert.Equal(t, base, repeated)
}

func TestBSONDocument(t *testing.T) {
	ds := NewDataSet()
	require.NoError(t, ds.PutValue(SOPInstanceUIDTag, "1.2.3"))
	require.NoError(t, ds.PutValue(ModalityTag, "MR"))
	item := NewDataSet()
	require.NoError(t, item.PutValue(0x00081150, "4.5"))
	ds.Put(&DataElement{Tag: 0x00081110, VR: SQVR, ValueField: &Sequence{Items: []*DataSet{item}}})

	doc, err := BSONDocument(ds)
	require.NoError(t, err)
	assert.Equal(t, "MR", doc["00080060"])
	assert.Equal(t, "1.2.3", doc["00080018"])
	assert.Contains(t, doc, "00081110")

	filtered, err := BSONDocument(ds, "Modality")
	require.NoError(t, err)
	assert.Contains(t, filtered, "00080060")
	assert.Contains(t, filtered, "00080018") // SOPInstanceUID always kept
	assert.NotContains(t, filtered, "00081110")

	_, err = BSONDocument(ds, "NoSuchKeyword")
	assert.ErrorIs(t, err, ErrUnknownTag)
}
