package dicom

// Commonly referenced data element tags. The full table lives in the data
// dictionary; these constants exist for tags the parser and writer consult
// directly.
const (
	FileMetaInformationGroupLengthTag DataElementTag = 0x00020000
	MediaStorageSOPClassUIDTag        DataElementTag = 0x00020002
	MediaStorageSOPInstanceUIDTag     DataElementTag = 0x00020003
	TransferSyntaxUIDTag              DataElementTag = 0x00020010
	ImplementationClassUIDTag         DataElementTag = 0x00020012

	SpecificCharacterSetTag DataElementTag = 0x00080005
	SOPClassUIDTag          DataElementTag = 0x00080016
	SOPInstanceUIDTag       DataElementTag = 0x00080018
	ModalityTag             DataElementTag = 0x00080060

	InstanceNumberTag DataElementTag = 0x00200013

	SamplesPerPixelTag     DataElementTag = 0x00280002
	PlanarConfigurationTag DataElementTag = 0x00280006
	NumberOfFramesTag      DataElementTag = 0x00280008
	RowsTag                DataElementTag = 0x00280010
	ColumnsTag             DataElementTag = 0x00280011
	PlanesTag              DataElementTag = 0x00280012
	BitsAllocatedTag       DataElementTag = 0x00280100
	BitsStoredTag          DataElementTag = 0x00280101
	PixelRepresentationTag DataElementTag = 0x00280103
	RescaleInterceptTag    DataElementTag = 0x00281052
	RescaleSlopeTag        DataElementTag = 0x00281053

	CurveDataTag   DataElementTag = 0x50003000
	OverlayDataTag DataElementTag = 0x60003000

	PixelDataTag DataElementTag = 0x7FE00010

	ItemTag                     DataElementTag = 0xFFFEE000
	ItemDelimitationItemTag     DataElementTag = 0xFFFEE00D
	SequenceDelimitationItemTag DataElementTag = 0xFFFEE0DD

	// WildcardTag keys the fallback entry of a VROverrides map. An override
	// registered under this tag supplies the VR for tags that are otherwise
	// unknown to the dictionary.
	WildcardTag DataElementTag = 0x00000000
)
