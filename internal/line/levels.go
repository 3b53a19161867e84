package line

import (
	"encoding/binary"
	"math"

	"hsound.dev/internal/audio"
)

// applyLevels scales interleaved samples in place by the gain (dB) and, on
// stereo data, attenuates the channel opposite the pan direction
func applyLevels(samples []byte, format audio.Format, gainDB, pan float64) {
	gain := 1.0
	if gainDB != 0 {
		gain = dbToLinear(gainDB)
	}
	left, right := 1.0, 1.0
	if format.Channels == 2 {
		if pan > 0 {
			left = 1 - pan
		} else if pan < 0 {
			right = 1 + pan
		}
	}
	if gain == 1 && left == 1 && right == 1 {
		return
	}

	bps := format.Encoding.BytesPerSample()
	if bps == 0 {
		return
	}
	for i, s := 0, 0; i+bps <= len(samples); i, s = i+bps, s+1 {
		factor := gain
		if format.Channels == 2 {
			if s%2 == 0 {
				factor *= left
			} else {
				factor *= right
			}
		}
		scaleSample(samples[i:i+bps], format.Encoding, factor)
	}
}

// scaleSample multiplies one little-endian sample, clipping to its range
func scaleSample(b []byte, enc audio.Encoding, factor float64) {
	switch enc {
	case audio.EncodingU8:
		v := (float64(b[0]) - 128) * factor
		b[0] = byte(clipInt(v, -128, 127) + 128)
	case audio.EncodingS16:
		v := float64(int16(binary.LittleEndian.Uint16(b))) * factor
		binary.LittleEndian.PutUint16(b, uint16(int16(clipInt(v, math.MinInt16, math.MaxInt16))))
	case audio.EncodingS24:
		raw := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if raw&0x800000 != 0 {
			raw |= ^0xFFFFFF
		}
		v := int32(clipInt(float64(raw)*factor, -1<<23, 1<<23-1))
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
	case audio.EncodingS32:
		v := float64(int32(binary.LittleEndian.Uint32(b))) * factor
		binary.LittleEndian.PutUint32(b, uint32(int32(clipInt(v, math.MinInt32, math.MaxInt32))))
	case audio.EncodingF32:
		v := float64(math.Float32frombits(binary.LittleEndian.Uint32(b))) * factor
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	}
}

func clipInt(v, lo, hi float64) int64 {
	return int64(math.Round(math.Max(lo, math.Min(hi, v))))
}
