package suftree

import "encoding/binary"


//============================================= Serialize Helpers
//
// Little-endian primitive (de)serialization, following the teacher's
// serializeUint64/deserializeUint64 family in Serialize.go.


func serializeI32(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

func deserializeI32(data []byte) int32 {
	return int32(binary.LittleEndian.Uint32(data))
}

func serializeU32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

func deserializeU32(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data)
}

func serializeI64(v int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return buf
}

func deserializeI64(data []byte) int64 {
	return int64(binary.LittleEndian.Uint64(data))
}

func serializeChar(v uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}

func deserializeChar(data []byte) uint16 {
	return binary.LittleEndian.Uint16(data)
}
