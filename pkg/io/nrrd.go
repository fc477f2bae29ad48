package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/density"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

const nrrdMagic = "NRRD000"

// sampleType decodes one NRRD element type.
type sampleType struct {
	size   int
	decode func(order binary.ByteOrder, b []byte) float64
}

var nrrdTypes = func() map[string]sampleType {
	i8 := sampleType{1, func(_ binary.ByteOrder, b []byte) float64 { return float64(int8(b[0])) }}
	u8 := sampleType{1, func(_ binary.ByteOrder, b []byte) float64 { return float64(b[0]) }}
	i16 := sampleType{2, func(o binary.ByteOrder, b []byte) float64 { return float64(int16(o.Uint16(b))) }}
	u16 := sampleType{2, func(o binary.ByteOrder, b []byte) float64 { return float64(o.Uint16(b)) }}
	i32 := sampleType{4, func(o binary.ByteOrder, b []byte) float64 { return float64(int32(o.Uint32(b))) }}
	u32 := sampleType{4, func(o binary.ByteOrder, b []byte) float64 { return float64(o.Uint32(b)) }}
	f32 := sampleType{4, func(o binary.ByteOrder, b []byte) float64 { return float64(math.Float32frombits(o.Uint32(b))) }}
	f64 := sampleType{8, func(o binary.ByteOrder, b []byte) float64 { return math.Float64frombits(o.Uint64(b)) }}

	types := make(map[string]sampleType)
	for _, name := range []string{"signed char", "int8", "int8_t", "char"} {
		types[name] = i8
	}
	for _, name := range []string{"uchar", "unsigned char", "uint8", "uint8_t"} {
		types[name] = u8
	}
	for _, name := range []string{"short", "short int", "signed short", "signed short int", "int16", "int16_t"} {
		types[name] = i16
	}
	for _, name := range []string{"ushort", "unsigned short", "unsigned short int", "uint16", "uint16_t"} {
		types[name] = u16
	}
	for _, name := range []string{"int", "signed int", "int32", "int32_t"} {
		types[name] = i32
	}
	for _, name := range []string{"uint", "unsigned int", "uint32", "uint32_t"} {
		types[name] = u32
	}
	types["float"] = f32
	types["double"] = f64
	return types
}()

type nrrdHeader struct {
	typ       sampleType
	sizes     [3]int
	encoding  string
	order     binary.ByteOrder
	voxelSize [3]float64
	origin    [3]float64
	dataFile  string
}

// NRRDOptions control how a volume is read.
type NRRDOptions struct {
	// Dir resolves detached data files. ReadNRRD defaults it to the
	// header's directory.
	Dir string
	// MaxVoxels rejects larger volumes before their samples are allocated.
	// Zero means no limit.
	MaxVoxels int
	// ConfineDataFile requires a detached data file to be a relative path
	// that stays below Dir.
	ConfineDataFile bool
}

// ReadNRRD loads a density volume from an NRRD file.
func ReadNRRD(path string, opts NRRDOptions) (*density.Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open density %s", path)
	}
	defer f.Close()

	if opts.Dir == "" {
		opts.Dir = filepath.Dir(path)
	}
	field, err := DecodeNRRD(f, opts)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "read density %s", path)
	}
	return field, nil
}

// DecodeNRRD parses an NRRD stream.
func DecodeNRRD(r io.Reader, opts NRRDOptions) (*density.Field, error) {
	br := bufio.NewReader(r)
	h, err := parseNRRDHeader(br)
	if err != nil {
		return nil, err
	}
	n, err := density.CountVoxels(h.sizes, opts.MaxVoxels)
	if err != nil {
		return nil, err
	}
	if n > math.MaxInt/h.typ.size {
		return nil, errors.New(errors.ErrCodeInvalidInput, "sizes %v overflow the sample buffer", h.sizes)
	}

	var data io.Reader = br
	if h.dataFile != "" {
		path, err := dataFilePath(h.dataFile, opts)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open data file")
		}
		defer f.Close()
		data = bufio.NewReader(f)
	}
	if h.encoding == "gzip" {
		zr, err := gzip.NewReader(data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "gzip data")
		}
		defer zr.Close()
		data = zr
	}

	raw := make([]byte, n*h.typ.size)
	if _, err := io.ReadFull(data, raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read %d samples", n)
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = h.typ.decode(h.order, raw[i*h.typ.size:])
	}
	return density.NewField(values, h.sizes, h.voxelSize, h.origin)
}

// dataFilePath resolves a detached data file against opts.Dir.
func dataFilePath(name string, opts NRRDOptions) (string, error) {
	if opts.ConfineDataFile {
		if filepath.IsAbs(name) {
			return "", errors.New(errors.ErrCodeInvalidPath, "data file %q must be relative", name)
		}
		if err := errors.ValidatePath(name); err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "data file %q", name)
		}
	} else if filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Join(opts.Dir, name), nil
}

func parseNRRDHeader(br *bufio.Reader) (*nrrdHeader, error) {
	magic, err := br.ReadString('\n')
	if err != nil || !strings.HasPrefix(magic, nrrdMagic) {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "not an NRRD file")
	}

	fields := make(map[string]string)
	for {
		line, err := br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if !strings.HasPrefix(line, "#") {
			if key, value, ok := strings.Cut(line, ": "); ok {
				fields[strings.ToLower(key)] = strings.TrimSpace(value)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read header")
		}
	}
	return buildHeader(fields)
}

func buildHeader(fields map[string]string) (*nrrdHeader, error) {
	h := &nrrdHeader{order: binary.LittleEndian, voxelSize: [3]float64{1, 1, 1}}

	if dim := fields["dimension"]; dim != "3" {
		return nil, errors.New(errors.ErrCodeUnsupported, "dimension %q, only 3D volumes are supported", dim)
	}

	typ, ok := nrrdTypes[fields["type"]]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "sample type %q", fields["type"])
	}
	h.typ = typ

	sizes := strings.Fields(fields["sizes"])
	if len(sizes) != 3 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "sizes %q must have 3 entries", fields["sizes"])
	}
	for i, s := range sizes {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid size %q", s)
		}
		h.sizes[i] = v
	}

	switch enc := fields["encoding"]; enc {
	case "raw":
		h.encoding = "raw"
	case "gzip", "gz":
		h.encoding = "gzip"
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "encoding %q", enc)
	}

	switch fields["endian"] {
	case "", "little":
	case "big":
		h.order = binary.BigEndian
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "endian %q", fields["endian"])
	}

	if dirs, ok := fields["space directions"]; ok {
		size, err := parseDiagonal(dirs)
		if err != nil {
			return nil, err
		}
		h.voxelSize = size
	} else if sp, ok := fields["spacings"]; ok {
		parts := strings.Fields(sp)
		if len(parts) != 3 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "spacings %q must have 3 entries", sp)
		}
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "spacings")
			}
			h.voxelSize[i] = v
		}
	}

	if origin, ok := fields["space origin"]; ok {
		v, err := parseVector(origin)
		if err != nil {
			return nil, err
		}
		h.origin = v
	}

	h.dataFile = fields["data file"]
	if h.dataFile == "" {
		h.dataFile = fields["datafile"]
	}
	return h, nil
}

// parseDiagonal reads "(a,0,0) (0,b,0) (0,0,c)" and returns (a, b, c).
func parseDiagonal(s string) ([3]float64, error) {
	var size [3]float64
	vecs := strings.Fields(s)
	if len(vecs) != 3 {
		return size, errors.New(errors.ErrCodeInvalidFormat, "space directions %q must have 3 vectors", s)
	}
	for i, raw := range vecs {
		v, err := parseVector(raw)
		if err != nil {
			return size, err
		}
		for j := range 3 {
			if j != i && v[j] != 0 {
				return size, errors.New(errors.ErrCodeUnsupported, "space directions %q are not axis-aligned", s)
			}
		}
		if v[i] <= 0 {
			return size, errors.New(errors.ErrCodeUnsupported, "space direction %d is not positive", i)
		}
		size[i] = v[i]
	}
	return size, nil
}

func parseVector(s string) ([3]float64, error) {
	var v [3]float64
	inner := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "("), ")")
	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return v, errors.New(errors.ErrCodeInvalidFormat, "vector %q must have 3 components", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return v, errors.Wrap(errors.ErrCodeInvalidFormat, err, "vector %q", s)
		}
		v[i] = f
	}
	return v, nil
}

// EncodeNRRD writes f as a double-precision little-endian NRRD volume,
// gzip-compressed when compress is set.
func EncodeNRRD(w io.Writer, f *density.Field, compress bool) error {
	shape, size, origin := f.Shape(), f.VoxelSize(), f.Offset()
	encoding := "raw"
	if compress {
		encoding = "gzip"
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s5\n", nrrdMagic)
	fmt.Fprintf(bw, "type: double\ndimension: 3\nspace: left-posterior-superior\n")
	fmt.Fprintf(bw, "sizes: %d %d %d\n", shape[0], shape[1], shape[2])
	fmt.Fprintf(bw, "space directions: (%s,0,0) (0,%s,0) (0,0,%s)\n", ftoa(size.X), ftoa(size.Y), ftoa(size.Z))
	fmt.Fprintf(bw, "space origin: (%s,%s,%s)\n", ftoa(origin.X), ftoa(origin.Y), ftoa(origin.Z))
	fmt.Fprintf(bw, "endian: little\nencoding: %s\n\n", encoding)

	var data io.Writer = bw
	var zw *gzip.Writer
	if compress {
		zw = gzip.NewWriter(bw)
		data = zw
	}
	buf := make([]byte, 8)
	for _, v := range f.Values() {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		if _, err := data.Write(buf); err != nil {
			return err
		}
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
