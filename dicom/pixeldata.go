package dicom

import (
	"encoding/binary"
	"fmt"
	"math"
)

// NativePixelData is the decoded form of uncompressed (native) pixel data.
//
// Shape lists the user-facing dimensions with size-1 axes dropped: the first
// axis is the column (width), the second the row (height), followed by frames
// and samples where applicable. Data is the flat pixel array laid out with
// the first axis varying fastest, and is one of []uint8, []int8, []uint16,
// []int16 or []float32 depending on Bits Allocated and Pixel Representation.
type NativePixelData struct {
	Shape []int
	Data  interface{}
}

// NumPixels returns the total number of stored samples
func (px *NativePixelData) NumPixels() int {
	n := 1
	for _, d := range px.Shape {
		n *= d
	}
	return n
}

// EncapsulatedPixelData is pixel data in the encapsulated (compressed)
// format: a Basic Offset Table followed by opaque compressed fragments. No
// decompression is attempted; codecs are the responsibility of higher layers.
type EncapsulatedPixelData struct {
	OffsetTable []byte
	Fragments   [][]byte
}

// pixelLayout is the subset of the image pixel module consulted when decoding
// and encoding pixel data.
type pixelLayout struct {
	samples int
	cols    int
	rows    int
	frames  int
	bits    int
	signed  bool
	planar  bool
}

func (l pixelLayout) bytesPerSample() int {
	return l.bits / 8
}

func (l pixelLayout) numSamples() int {
	return l.samples * l.cols * l.rows * l.frames
}

// pixelLayoutFromDataSet reads the image pixel module attributes out of the
// data set being parsed or written. Bits Allocated falls back to Bits Stored
// and finally to 8 for OB and 16 otherwise; Number of Frames multiplies the
// retired Planes attribute.
func pixelLayoutFromDataSet(ds *DataSet, vr *VR) pixelLayout {
	bits, found := ds.intValue(BitsAllocatedTag)
	if !found {
		bits, found = ds.intValue(BitsStoredTag)
	}
	if !found {
		if vr == OBVR {
			bits = 8
		} else {
			bits = 16
		}
	}

	return pixelLayout{
		samples: ds.intValueDefault(SamplesPerPixelTag, 1),
		cols:    ds.intValueDefault(ColumnsTag, 0),
		rows:    ds.intValueDefault(RowsTag, 0),
		frames:  ds.intValueDefault(PlanesTag, 1) * ds.intValueDefault(NumberOfFramesTag, 1),
		bits:    bits,
		signed:  ds.intValueDefault(PixelRepresentationTag, 0) == 1,
		planar:  ds.intValueDefault(PlanarConfigurationTag, 0) == 1,
	}
}

// readPixelData decodes the (7FE0,0010) value. A defined length is the native
// format; the reserved length 0xFFFFFFFF signals the encapsulated format.
func readPixelData(dr *dcmReader, vr *VR, length uint32, syntax transferSyntax, ds *DataSet) (interface{}, error) {
	if length == UndefinedLength {
		return readEncapsulatedPixelData(dr)
	}
	return readNativePixelData(dr, vr, length, syntax, ds)
}

// readEncapsulatedPixelData reads the fragment sequence of encapsulated
// pixel data. The first item is the Basic Offset Table, retained as an opaque
// byte run; subsequent items are the compressed fragments. Encapsulated items
// are always little endian.
func readEncapsulatedPixelData(dr *dcmReader) (*EncapsulatedPixelData, error) {
	order := binary.LittleEndian

	tag, err := dr.Tag(order)
	if err != nil {
		return nil, fmt.Errorf("reading offset table tag: %v", err)
	}
	if tag != ItemTag {
		return nil, fmt.Errorf("got tag %v for offset table: %w", tag, ErrBadSequenceFraming)
	}
	tableLength, err := dr.UInt32(order)
	if err != nil {
		return nil, fmt.Errorf("reading offset table length: %v", err)
	}
	table, err := dr.Bytes(int64(tableLength))
	if err != nil {
		return nil, fmt.Errorf("reading offset table: %v", err)
	}

	encapsulated := &EncapsulatedPixelData{OffsetTable: table, Fragments: [][]byte{}}
	for {
		tag, err := dr.Tag(order)
		if err != nil {
			return nil, fmt.Errorf("reading fragment tag: %v", err)
		}
		if tag == SequenceDelimitationItemTag {
			if _, err := dr.UInt32(order); err != nil {
				return nil, fmt.Errorf("reading length of sequence delimitation item: %v", err)
			}
			return encapsulated, nil
		}
		if tag != ItemTag {
			return nil, fmt.Errorf("got fragment tag %v: %w", tag, ErrBadSequenceFraming)
		}
		fragmentLength, err := dr.UInt32(order)
		if err != nil {
			return nil, fmt.Errorf("reading fragment length: %v", err)
		}
		if fragmentLength == UndefinedLength {
			return nil, fmt.Errorf("expected fragment to be of explicit length")
		}
		fragment, err := dr.Bytes(int64(fragmentLength))
		if err != nil {
			return nil, fmt.Errorf("reading fragment: %v", err)
		}
		encapsulated.Fragments = append(encapsulated.Fragments, fragment)
	}
}

// readNativePixelData reads a defined-length pixel value and reshapes it into
// the user-facing column-major layout. When the image pixel module attributes
// are absent or inconsistent with the declared length, the raw bytes are
// returned unshaped.
func readNativePixelData(dr *dcmReader, vr *VR, length uint32, syntax transferSyntax, ds *DataSet) (interface{}, error) {
	raw, err := dr.Bytes(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading pixel data: %v", err)
	}

	layout := pixelLayoutFromDataSet(ds, vr)
	need := layout.numSamples() * layout.bytesPerSample()
	if layout.cols == 0 || layout.rows == 0 || need > len(raw) || need == 0 {
		logger.Warnf("pixel data does not match image pixel module (rows=%d cols=%d need=%d have=%d), keeping raw bytes",
			layout.rows, layout.cols, need, len(raw))
		return raw, nil
	}

	data, err := decodePixelSamples(raw[:need], layout, syntax.ByteOrder)
	if err != nil {
		return nil, err
	}

	return &NativePixelData{Shape: pixelShape(layout), Data: data}, nil
}

// pixelShape returns the user-facing dimensions (columns, rows, frames,
// samples) with size-1 axes dropped.
func pixelShape(layout pixelLayout) []int {
	shape := make([]int, 0, 4)
	for _, d := range []int{layout.cols, layout.rows, layout.frames, layout.samples} {
		if d > 1 {
			shape = append(shape, d)
		}
	}
	if len(shape) == 0 {
		shape = []int{1}
	}
	return shape
}

// decodePixelSamples converts the on-wire bytes into the typed pixel array in
// the user-facing order. The wire holds the raster order: for the interleaved
// configuration the sample index varies fastest, then column, row, frame; the
// planar configuration already matches the user-facing order.
func decodePixelSamples(raw []byte, layout pixelLayout, order binary.ByteOrder) (interface{}, error) {
	n := layout.numSamples()

	switch {
	case layout.bits == 8 && !layout.signed:
		data := make([]uint8, n)
		copy(data, raw)
		return reorderPixels(data, layout, false), nil
	case layout.bits == 8 && layout.signed:
		data := make([]int8, n)
		for i := range data {
			data[i] = int8(raw[i])
		}
		return reorderPixels(data, layout, false), nil
	case layout.bits == 16 && !layout.signed:
		data := make([]uint16, n)
		for i := range data {
			data[i] = order.Uint16(raw[2*i:])
		}
		return reorderPixels(data, layout, false), nil
	case layout.bits == 16 && layout.signed:
		data := make([]int16, n)
		for i := range data {
			data[i] = int16(order.Uint16(raw[2*i:]))
		}
		return reorderPixels(data, layout, false), nil
	case layout.bits == 32:
		data := make([]float32, n)
		for i := range data {
			data[i] = math.Float32frombits(order.Uint32(raw[4*i:]))
		}
		return reorderPixels(data, layout, false), nil
	default:
		return nil, fmt.Errorf("bits allocated %d: %w", layout.bits, ErrUnsupportedPixelFormat)
	}
}

// reorderPixels converts between the raster order and the user-facing
// column-major order: inverse=false maps raster to user order, inverse=true
// maps user order back to raster. The planar configuration and single-sample
// images need no reordering.
func reorderPixels[T any](data []T, layout pixelLayout, inverse bool) []T {
	if layout.planar || layout.samples == 1 {
		return data
	}

	samples, cols, rows, frames := layout.samples, layout.cols, layout.rows, layout.frames
	out := make([]T, len(data))
	i := 0
	for f := 0; f < frames; f++ {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				for s := 0; s < samples; s++ {
					userIdx := c + cols*(r+rows*(f+frames*s))
					if inverse {
						out[i] = data[userIdx]
					} else {
						out[userIdx] = data[i]
					}
					i++
				}
			}
		}
	}
	return out
}

// RescaleDirection selects between applying and undoing the modality rescale
// transform.
type RescaleDirection int

const (
	// RescaleForward replaces stored values v with v*slope + intercept,
	// widening the pixel array to float64
	RescaleForward RescaleDirection = iota

	// RescaleBackward replaces rescaled values v with round((v-intercept)/slope)
	// cast back to the stored element type
	RescaleBackward
)

// Rescale applies the modality rescale transform to the native pixel data in
// place. It is a no-op unless both Rescale Intercept (0028,1052) and Rescale
// Slope (0028,1053) are present and the pixel data is native.
func (ds *DataSet) Rescale(direction RescaleDirection) error {
	intercept, foundIntercept := ds.floatValue(RescaleInterceptTag)
	slope, foundSlope := ds.floatValue(RescaleSlopeTag)
	if !foundIntercept || !foundSlope {
		return nil
	}

	element, found := ds.Get(PixelDataTag)
	if !found {
		return nil
	}
	px, ok := element.ValueField.(*NativePixelData)
	if !ok {
		return nil
	}

	if direction == RescaleForward {
		rescaled, err := rescaleForward(px.Data, slope, intercept)
		if err != nil {
			return err
		}
		px.Data = rescaled
		return nil
	}

	data, ok := px.Data.([]float64)
	if !ok {
		// nothing to undo
		return nil
	}
	px.Data = rescaleBackward(data, slope, intercept, pixelLayoutFromDataSet(ds, element.VR))
	return nil
}

func rescaleForward(data interface{}, slope, intercept float64) ([]float64, error) {
	switch v := data.(type) {
	case []uint8:
		out := make([]float64, len(v))
		for i, s := range v {
			out[i] = float64(s)*slope + intercept
		}
		return out, nil
	case []int8:
		out := make([]float64, len(v))
		for i, s := range v {
			out[i] = float64(s)*slope + intercept
		}
		return out, nil
	case []uint16:
		out := make([]float64, len(v))
		for i, s := range v {
			out[i] = float64(s)*slope + intercept
		}
		return out, nil
	case []int16:
		out := make([]float64, len(v))
		for i, s := range v {
			out[i] = float64(s)*slope + intercept
		}
		return out, nil
	case []float32:
		out := make([]float64, len(v))
		for i, s := range v {
			out[i] = float64(s)*slope + intercept
		}
		return out, nil
	default:
		return nil, fmt.Errorf("rescaling %T: %w", data, ErrUnsupportedPixelFormat)
	}
}

func rescaleBackward(data []float64, slope, intercept float64, layout pixelLayout) interface{} {
	stored := make([]float64, len(data))
	for i, v := range data {
		stored[i] = math.Round((v - intercept) / slope)
	}

	switch {
	case layout.bits == 8 && !layout.signed:
		out := make([]uint8, len(stored))
		for i, v := range stored {
			out[i] = uint8(v)
		}
		return out
	case layout.bits == 8 && layout.signed:
		out := make([]int8, len(stored))
		for i, v := range stored {
			out[i] = int8(v)
		}
		return out
	case layout.bits == 16 && layout.signed:
		out := make([]int16, len(stored))
		for i, v := range stored {
			out[i] = int16(v)
		}
		return out
	case layout.bits == 32:
		out := make([]float32, len(stored))
		for i, v := range stored {
			out[i] = float32(v)
		}
		return out
	default:
		out := make([]uint16, len(stored))
		for i, v := range stored {
			out[i] = uint16(v)
		}
		return out
	}
}
