package codec

import (
	"encoding/binary"

	"uploadapi/internal/model"
)

// Vector3DDecoder is the decoder routes use to extract a model.Vector3D.
var Vector3DDecoder Decoder[model.Vector3D] = DecoderFunc[model.Vector3D](DecodeVector3D)

// DecodeVector3D reads three big-endian int64 values from b.
// b must be exactly model.VectorSize bytes long.
func DecodeVector3D(b []byte) (model.Vector3D, error) {
	if len(b) != model.VectorSize {
		return model.Vector3D{}, &MalformedPayloadError{Expected: model.VectorSize, Actual: len(b)}
	}

	return model.Vector3D{
		X: int64(binary.BigEndian.Uint64(b[0:8])),
		Y: int64(binary.BigEndian.Uint64(b[8:16])),
		Z: int64(binary.BigEndian.Uint64(b[16:24])),
	}, nil
}

// EncodeVector3D is the inverse of DecodeVector3D.
func EncodeVector3D(v model.Vector3D) []byte {
	b := make([]byte, 0, model.VectorSize)
	b = binary.BigEndian.AppendUint64(b, uint64(v.X))
	b = binary.BigEndian.AppendUint64(b, uint64(v.Y))
	b = binary.BigEndian.AppendUint64(b, uint64(v.Z))
	return b
}
