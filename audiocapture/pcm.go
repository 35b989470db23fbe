package audiocapture

import "encoding/binary"

// decodeS16 converts little-endian 16-bit PCM bytes to samples. A trailing
// odd byte is dropped.
func decodeS16(data []byte) []int16 {
	n := len(data) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return samples
}
