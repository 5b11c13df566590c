package capture

import (
	"encoding/binary"
	"math"
)

// Fixed widths of the two point record encodings.
const (
	RecordSizePCL24 = 24
	RecordSizePCL48 = 48
)

// encodePCL24 writes the compact point record, little-endian:
//
//	offset 0  x float32          (publishing frame, meters)
//	offset 4  y float32
//	offset 8  z float32
//	offset 12 intensity float32
//	offset 16 ring uint16
//	offset 18 padding uint16
//	offset 20 distance float32   (meters)
func encodePCL24(dst []byte, hit Hit) {
	putFloat32(dst[0:], hit.Publish.X)
	putFloat32(dst[4:], hit.Publish.Y)
	putFloat32(dst[8:], hit.Publish.Z)
	putFloat32(dst[12:], hit.Intensity)
	binary.LittleEndian.PutUint16(dst[16:], hit.Ring)
	binary.LittleEndian.PutUint16(dst[18:], 0)
	putFloat32(dst[20:], hit.Distance)
}

// encodePCL48 writes the extended point record, little-endian:
//
//	offset 0  x float32          (publishing frame, meters)
//	offset 4  y float32
//	offset 8  z float32
//	offset 12 padding float32
//	offset 16 intensity float32
//	offset 20 ring uint16
//	offset 22 padding uint16
//	offset 24 azimuth float32    (degrees)
//	offset 28 distance float32   (meters)
//	offset 32 return type uint8
//	offset 33 padding uint8 x3
//	offset 36 time offset float64 (seconds, reserved)
//	offset 44 padding uint32
func encodePCL48(dst []byte, hit Hit) {
	putFloat32(dst[0:], hit.Publish.X)
	putFloat32(dst[4:], hit.Publish.Y)
	putFloat32(dst[8:], hit.Publish.Z)
	putFloat32(dst[12:], 0)
	putFloat32(dst[16:], hit.Intensity)
	binary.LittleEndian.PutUint16(dst[20:], hit.Ring)
	binary.LittleEndian.PutUint16(dst[22:], 0)
	putFloat32(dst[24:], hit.AzimuthDeg)
	putFloat32(dst[28:], hit.Distance)
	dst[32] = 1 // single-return sensor: strongest return
	dst[33], dst[34], dst[35] = 0, 0, 0
	binary.LittleEndian.PutUint64(dst[36:], math.Float64bits(0))
	binary.LittleEndian.PutUint32(dst[44:], 0)
}

func putFloat32(dst []byte, v float64) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
}
