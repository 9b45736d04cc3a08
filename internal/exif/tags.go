package exif

import "strconv"

// Well-known tag ids the extractor treats specially.
const (
	ExifIFDPointer uint16 = 0x8769 // Exif sub-IFD holding exposure tags
	GPSIFDPointer  uint16 = 0x8825
	MakerNoteID    uint16 = 0x927c // vendor-opaque blob, always removed
)

// MakerNoteName is the resolved name of the vendor-opaque field.
const MakerNoteName = "MakerNote"

// TagTable maps numeric tag ids to names. Tables are read-only once built
// and may be shared between extractors.
type TagTable map[uint16]string

// Name resolves id, falling back to the decimal id so that unknown tags
// are kept rather than dropped.
func (t TagTable) Name(id uint16) string {
	if name, ok := t[id]; ok {
		return name
	}
	return strconv.Itoa(int(id))
}

// StandardTags covers the TIFF baseline and Exif 2.3 tag sets.
var StandardTags = TagTable{
	// TIFF baseline / IFD0
	0x000b: "ProcessingSoftware",
	0x00fe: "NewSubfileType",
	0x00ff: "SubfileType",
	0x0100: "ImageWidth",
	0x0101: "ImageLength",
	0x0102: "BitsPerSample",
	0x0103: "Compression",
	0x0106: "PhotometricInterpretation",
	0x010a: "FillOrder",
	0x010d: "DocumentName",
	0x010e: "ImageDescription",
	0x010f: "Make",
	0x0110: "Model",
	0x0111: "StripOffsets",
	0x0112: "Orientation",
	0x0115: "SamplesPerPixel",
	0x0116: "RowsPerStrip",
	0x0117: "StripByteCounts",
	0x011a: "XResolution",
	0x011b: "YResolution",
	0x011c: "PlanarConfiguration",
	0x0128: "ResolutionUnit",
	0x012d: "TransferFunction",
	0x0131: "Software",
	0x0132: "DateTime",
	0x013b: "Artist",
	0x013c: "HostComputer",
	0x013e: "WhitePoint",
	0x013f: "PrimaryChromaticities",
	0x0201: "JpegIFOffset",
	0x0202: "JpegIFByteCount",
	0x0211: "YCbCrCoefficients",
	0x0212: "YCbCrSubSampling",
	0x0213: "YCbCrPositioning",
	0x0214: "ReferenceBlackWhite",
	0x02bc: "XMLPacket",
	0x4746: "Rating",
	0x4749: "RatingPercent",
	0x8298: "Copyright",
	0x8769: "ExifOffset",
	0x8825: "GPSInfo",
	0xc4a5: "PrintImageMatching",
	0xc612: "DNGVersion",
	0xc614: "UniqueCameraModel",

	// Exif sub-IFD
	0x829a: "ExposureTime",
	0x829d: "FNumber",
	0x8822: "ExposureProgram",
	0x8824: "SpectralSensitivity",
	0x8827: "ISOSpeedRatings",
	0x8828: "OECF",
	0x8830: "SensitivityType",
	0x8831: "StandardOutputSensitivity",
	0x8832: "RecommendedExposureIndex",
	0x8833: "ISOSpeed",
	0x9000: "ExifVersion",
	0x9003: "DateTimeOriginal",
	0x9004: "DateTimeDigitized",
	0x9010: "OffsetTime",
	0x9011: "OffsetTimeOriginal",
	0x9012: "OffsetTimeDigitized",
	0x9101: "ComponentsConfiguration",
	0x9102: "CompressedBitsPerPixel",
	0x9201: "ShutterSpeedValue",
	0x9202: "ApertureValue",
	0x9203: "BrightnessValue",
	0x9204: "ExposureBiasValue",
	0x9205: "MaxApertureValue",
	0x9206: "SubjectDistance",
	0x9207: "MeteringMode",
	0x9208: "LightSource",
	0x9209: "Flash",
	0x920a: "FocalLength",
	0x9214: "SubjectArea",
	0x927c: "MakerNote",
	0x9286: "UserComment",
	0x9290: "SubsecTime",
	0x9291: "SubsecTimeOriginal",
	0x9292: "SubsecTimeDigitized",
	0xa000: "FlashPixVersion",
	0xa001: "ColorSpace",
	0xa002: "ExifImageWidth",
	0xa003: "ExifImageHeight",
	0xa004: "RelatedSoundFile",
	0xa005: "ExifInteroperabilityOffset",
	0xa20b: "FlashEnergy",
	0xa20e: "FocalPlaneXResolution",
	0xa20f: "FocalPlaneYResolution",
	0xa210: "FocalPlaneResolutionUnit",
	0xa214: "SubjectLocation",
	0xa215: "ExposureIndex",
	0xa217: "SensingMethod",
	0xa300: "FileSource",
	0xa301: "SceneType",
	0xa302: "CFAPattern",
	0xa401: "CustomRendered",
	0xa402: "ExposureMode",
	0xa403: "WhiteBalance",
	0xa404: "DigitalZoomRatio",
	0xa405: "FocalLengthIn35mmFilm",
	0xa406: "SceneCaptureType",
	0xa407: "GainControl",
	0xa408: "Contrast",
	0xa409: "Saturation",
	0xa40a: "Sharpness",
	0xa40b: "DeviceSettingDescription",
	0xa40c: "SubjectDistanceRange",
	0xa420: "ImageUniqueID",
	0xa430: "CameraOwnerName",
	0xa431: "BodySerialNumber",
	0xa432: "LensSpecification",
	0xa433: "LensMake",
	0xa434: "LensModel",
	0xa435: "LensSerialNumber",
	0xa460: "CompositeImage",
	0xa500: "Gamma",
}
