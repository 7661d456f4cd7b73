package dicom

import (
	"fmt"
	"strings"
	"unicode"
)

// DictEntry is one row of the DICOM data dictionary
// (http://dicom.nema.org/medical/dicom/current/output/html/part06.html).
// The table below is compile-time data; generation from the NEMA sources is
// out of scope for this package.
type DictEntry struct {
	Tag     DataElementTag
	Keyword string
	VR      *VR
	VM      string
	Retired bool
}

// LookupTag returns the data dictionary entry for the given tag. Repeating
// group tags (50xx,eeee) and (60xx,eeee) are canonicalised to their
// (5000,eeee) / (6000,eeee) dictionary rows first.
func LookupTag(tag DataElementTag) (*DictEntry, bool) {
	entry, found := dataDictionary[canonicalTag(tag)]
	return entry, found
}

// VRForTag returns the default VR of the given tag, applying the repeating
// group rule. The second return is false when the tag is not in the
// dictionary.
func VRForTag(tag DataElementTag) (*VR, bool) {
	if entry, found := LookupTag(tag); found {
		return entry.VR, true
	}
	return nil, false
}

// TagForKeyword resolves a data dictionary keyword to its tag. Keywords are
// matched whitespace-insensitively ("Patient Name" resolves the same as
// "PatientName").
func TagForKeyword(keyword string) (DataElementTag, bool) {
	tag, found := keywordIndex[normalizeKeyword(keyword)]
	return tag, found
}

// MustTagForKeyword is like TagForKeyword but panics on an unknown keyword.
// It is intended for package-level tag constants built from keyword literals,
// where the panic surfaces as soon as the program starts.
func MustTagForKeyword(keyword string) DataElementTag {
	tag, found := TagForKeyword(keyword)
	if !found {
		panic(fmt.Sprintf("dicom: unknown data dictionary keyword %q", keyword))
	}
	return tag
}

// canonicalTag folds the repeating groups onto their dictionary rows:
// curve groups (50xx) onto 5000 and overlay groups (60xx) onto 6000.
func canonicalTag(tag DataElementTag) DataElementTag {
	switch tag >> 24 {
	case 0x50:
		return DataElementTag(0x50000000 | uint32(tag)&0x0000FFFF)
	case 0x60:
		return DataElementTag(0x60000000 | uint32(tag)&0x0000FFFF)
	}
	return tag
}

func normalizeKeyword(keyword string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, keyword)
}

var (
	dataDictionary = map[DataElementTag]*DictEntry{}
	keywordIndex   = map[string]DataElementTag{}
)

func init() {
	for i := range dictEntries {
		entry := &dictEntries[i]
		dataDictionary[entry.Tag] = entry
		keywordIndex[normalizeKeyword(entry.Keyword)] = entry.Tag
	}
}

var dictEntries = []DictEntry{
	// group 0002: file meta information
	{0x00020000, "FileMetaInformationGroupLength", ULVR, "1", false},
	{0x00020001, "FileMetaInformationVersion", OBVR, "1", false},
	{0x00020002, "MediaStorageSOPClassUID", UIVR, "1", false},
	{0x00020003, "MediaStorageSOPInstanceUID", UIVR, "1", false},
	{0x00020010, "TransferSyntaxUID", UIVR, "1", false},
	{0x00020012, "ImplementationClassUID", UIVR, "1", false},
	{0x00020013, "ImplementationVersionName", SHVR, "1", false},
	{0x00020016, "SourceApplicationEntityTitle", AEVR, "1", false},

	// group 0008: identification
	{0x00080005, "SpecificCharacterSet", CSVR, "1-n", false},
	{0x00080008, "ImageType", CSVR, "2-n", false},
	{0x00080012, "InstanceCreationDate", DAVR, "1", false},
	{0x00080013, "InstanceCreationTime", TMVR, "1", false},
	{0x00080014, "InstanceCreatorUID", UIVR, "1", false},
	{0x00080016, "SOPClassUID", UIVR, "1", false},
	{0x00080018, "SOPInstanceUID", UIVR, "1", false},
	{0x00080020, "StudyDate", DAVR, "1", false},
	{0x00080021, "SeriesDate", DAVR, "1", false},
	{0x00080022, "AcquisitionDate", DAVR, "1", false},
	{0x00080023, "ContentDate", DAVR, "1", false},
	{0x00080030, "StudyTime", TMVR, "1", false},
	{0x00080031, "SeriesTime", TMVR, "1", false},
	{0x00080032, "AcquisitionTime", TMVR, "1", false},
	{0x00080033, "ContentTime", TMVR, "1", false},
	{0x00080050, "AccessionNumber", SHVR, "1", false},
	{0x00080060, "Modality", CSVR, "1", false},
	{0x00080064, "ConversionType", CSVR, "1", false},
	{0x00080070, "Manufacturer", LOVR, "1", false},
	{0x00080080, "InstitutionName", LOVR, "1", false},
	{0x00080081, "InstitutionAddress", STVR, "1", false},
	{0x00080090, "ReferringPhysicianName", PNVR, "1", false},
	{0x00081010, "StationName", SHVR, "1", false},
	{0x00081030, "StudyDescription", LOVR, "1", false},
	{0x0008103E, "SeriesDescription", LOVR, "1", false},
	{0x00081040, "InstitutionalDepartmentName", LOVR, "1", false},
	{0x00081050, "PerformingPhysicianName", PNVR, "1-n", false},
	{0x00081060, "NameOfPhysiciansReadingStudy", PNVR, "1-n", false},
	{0x00081070, "OperatorsName", PNVR, "1-n", false},
	{0x00081090, "ManufacturerModelName", LOVR, "1", false},
	{0x00081110, "ReferencedStudySequence", SQVR, "1", false},
	{0x00081111, "ReferencedPerformedProcedureStepSequence", SQVR, "1", false},
	{0x00081115, "ReferencedSeriesSequence", SQVR, "1", false},
	{0x00081120, "ReferencedPatientSequence", SQVR, "1", false},
	{0x00081140, "ReferencedImageSequence", SQVR, "1", false},
	{0x00081150, "ReferencedSOPClassUID", UIVR, "1", false},
	{0x00081155, "ReferencedSOPInstanceUID", UIVR, "1", false},
	{0x00082111, "DerivationDescription", STVR, "1", false},
	{0x00082112, "SourceImageSequence", SQVR, "1", false},

	// group 0010: patient
	{0x00100010, "PatientName", PNVR, "1", false},
	{0x00100020, "PatientID", LOVR, "1", false},
	{0x00100030, "PatientBirthDate", DAVR, "1", false},
	{0x00100040, "PatientSex", CSVR, "1", false},
	{0x00101010, "PatientAge", ASVR, "1", false},
	{0x00101020, "PatientSize", DSVR, "1", false},
	{0x00101030, "PatientWeight", DSVR, "1", false},
	{0x001021B0, "AdditionalPatientHistory", LTVR, "1", false},
	{0x00104000, "PatientComments", LTVR, "1", false},

	// group 0018: acquisition
	{0x00180010, "ContrastBolusAgent", LOVR, "1", false},
	{0x00180015, "BodyPartExamined", CSVR, "1", false},
	{0x00180020, "ScanningSequence", CSVR, "1-n", false},
	{0x00180021, "SequenceVariant", CSVR, "1-n", false},
	{0x00180022, "ScanOptions", CSVR, "1-n", false},
	{0x00180023, "MRAcquisitionType", CSVR, "1", false},
	{0x00180050, "SliceThickness", DSVR, "1", false},
	{0x00180060, "KVP", DSVR, "1", false},
	{0x00180080, "RepetitionTime", DSVR, "1", false},
	{0x00180081, "EchoTime", DSVR, "1", false},
	{0x00180082, "InversionTime", DSVR, "1", false},
	{0x00180083, "NumberOfAverages", DSVR, "1", false},
	{0x00180084, "ImagingFrequency", DSVR, "1", false},
	{0x00180085, "ImagedNucleus", SHVR, "1", false},
	{0x00180086, "EchoNumbers", ISVR, "1-n", false},
	{0x00180087, "MagneticFieldStrength", DSVR, "1", false},
	{0x00180088, "SpacingBetweenSlices", DSVR, "1", false},
	{0x00180091, "EchoTrainLength", ISVR, "1", false},
	{0x00180095, "PixelBandwidth", DSVR, "1", false},
	{0x00181000, "DeviceSerialNumber", LOVR, "1", false},
	{0x00181020, "SoftwareVersions", LOVR, "1-n", false},
	{0x00181030, "ProtocolName", LOVR, "1", false},
	{0x00181100, "ReconstructionDiameter", DSVR, "1", false},
	{0x00181110, "DistanceSourceToDetector", DSVR, "1", false},
	{0x00181111, "DistanceSourceToPatient", DSVR, "1", false},
	{0x00181120, "GantryDetectorTilt", DSVR, "1", false},
	{0x00181130, "TableHeight", DSVR, "1", false},
	{0x00181150, "ExposureTime", ISVR, "1", false},
	{0x00181151, "XRayTubeCurrent", ISVR, "1", false},
	{0x00181152, "Exposure", ISVR, "1", false},
	{0x00181160, "FilterType", SHVR, "1", false},
	{0x00181170, "GeneratorPower", ISVR, "1", false},
	{0x00181190, "FocalSpots", DSVR, "1-n", false},
	{0x00181210, "ConvolutionKernel", SHVR, "1-n", false},
	{0x00181314, "FlipAngle", DSVR, "1", false},
	{0x00181316, "SAR", DSVR, "1", false},
	{0x00185100, "PatientPosition", CSVR, "1", false},
	{0x00185101, "ViewPosition", CSVR, "1", false},

	// group 0020: relationship
	{0x0020000D, "StudyInstanceUID", UIVR, "1", false},
	{0x0020000E, "SeriesInstanceUID", UIVR, "1", false},
	{0x00200010, "StudyID", SHVR, "1", false},
	{0x00200011, "SeriesNumber", ISVR, "1", false},
	{0x00200012, "AcquisitionNumber", ISVR, "1", false},
	{0x00200013, "InstanceNumber", ISVR, "1", false},
	{0x00200020, "PatientOrientation", CSVR, "2", false},
	{0x00200032, "ImagePositionPatient", DSVR, "3", false},
	{0x00200037, "ImageOrientationPatient", DSVR, "6", false},
	{0x00200052, "FrameOfReferenceUID", UIVR, "1", false},
	{0x00200060, "Laterality", CSVR, "1", false},
	{0x00201002, "ImagesInAcquisition", ISVR, "1", false},
	{0x00201040, "PositionReferenceIndicator", LOVR, "1", false},
	{0x00201041, "SliceLocation", DSVR, "1", false},
	{0x00204000, "ImageComments", LTVR, "1", false},

	// group 0028: image pixel
	{0x00280002, "SamplesPerPixel", USVR, "1", false},
	{0x00280004, "PhotometricInterpretation", CSVR, "1", false},
	{0x00280006, "PlanarConfiguration", USVR, "1", false},
	{0x00280008, "NumberOfFrames", ISVR, "1", false},
	{0x00280010, "Rows", USVR, "1", false},
	{0x00280011, "Columns", USVR, "1", false},
	{0x00280012, "Planes", USVR, "1", true},
	{0x00280030, "PixelSpacing", DSVR, "2", false},
	{0x00280034, "PixelAspectRatio", ISVR, "2", false},
	{0x00280100, "BitsAllocated", USVR, "1", false},
	{0x00280101, "BitsStored", USVR, "1", false},
	{0x00280102, "HighBit", USVR, "1", false},
	{0x00280103, "PixelRepresentation", USVR, "1", false},
	{0x00280106, "SmallestImagePixelValue", USVR, "1", false},
	{0x00280107, "LargestImagePixelValue", USVR, "1", false},
	{0x00280120, "PixelPaddingValue", USVR, "1", false},
	{0x00281050, "WindowCenter", DSVR, "1-n", false},
	{0x00281051, "WindowWidth", DSVR, "1-n", false},
	{0x00281052, "RescaleIntercept", DSVR, "1", false},
	{0x00281053, "RescaleSlope", DSVR, "1", false},
	{0x00281054, "RescaleType", LOVR, "1", false},
	{0x00281101, "RedPaletteColorLookupTableDescriptor", USVR, "3", false},
	{0x00281102, "GreenPaletteColorLookupTableDescriptor", USVR, "3", false},
	{0x00281103, "BluePaletteColorLookupTableDescriptor", USVR, "3", false},
	{0x00281201, "RedPaletteColorLookupTableData", OWVR, "1", false},
	{0x00281202, "GreenPaletteColorLookupTableData", OWVR, "1", false},
	{0x00281203, "BluePaletteColorLookupTableData", OWVR, "1", false},
	{0x00282110, "LossyImageCompression", CSVR, "1", false},
	{0x00282112, "LossyImageCompressionRatio", DSVR, "1-n", false},

	// group 0032 / 0040: study and procedure step
	{0x00321032, "RequestingPhysician", PNVR, "1", false},
	{0x00321060, "RequestedProcedureDescription", LOVR, "1", false},
	{0x00324000, "StudyComments", LTVR, "1", true},
	{0x00400244, "PerformedProcedureStepStartDate", DAVR, "1", false},
	{0x00400245, "PerformedProcedureStepStartTime", TMVR, "1", false},
	{0x00400253, "PerformedProcedureStepID", SHVR, "1", false},
	{0x00400254, "PerformedProcedureStepDescription", LOVR, "1", false},
	{0x00400275, "RequestAttributesSequence", SQVR, "1", false},
	{0x0040A730, "ContentSequence", SQVR, "1", false},

	// group 5000: curves (retired repeating group)
	{0x50000005, "CurveDimensions", USVR, "1", true},
	{0x50000010, "NumberOfPoints", USVR, "1", true},
	{0x50000020, "TypeOfData", CSVR, "1", true},
	{0x50000030, "AxisUnits", SHVR, "1-n", true},
	{0x50000103, "DataValueRepresentation", USVR, "1", true},
	{0x50003000, "CurveData", OWVR, "1", true},

	// group 6000: overlays (repeating group)
	{0x60000010, "OverlayRows", USVR, "1", false},
	{0x60000011, "OverlayColumns", USVR, "1", false},
	{0x60000015, "NumberOfFramesInOverlay", ISVR, "1", false},
	{0x60000022, "OverlayDescription", LOVR, "1", false},
	{0x60000040, "OverlayType", CSVR, "1", false},
	{0x60000050, "OverlayOrigin", SSVR, "2", false},
	{0x60000100, "OverlayBitsAllocated", USVR, "1", false},
	{0x60000102, "OverlayBitPosition", USVR, "1", false},
	{0x60003000, "OverlayData", OWVR, "1", false},

	// group 7FE0: pixel data
	{0x7FE00010, "PixelData", OWVR, "1", false},
}
