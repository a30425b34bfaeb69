package manifest

import (
	"encoding/binary"
	"math"
	"time"
)

// clampFloat rounds already happened; this bounds the float into the signed
// 64-bit range before conversion, which would otherwise be undefined
func clampFloat(value float64) int64 {
	if value >= float64(math.MaxInt64) {
		return math.MaxInt64
	}
	if value <= float64(math.MinInt64) {
		return math.MinInt64
	}
	return int64(value)
}

// ToInt reduces a value to a single comparable integer for pruning, clamped
// to the signed 64-bit range. Values of the same type order the same as
// their packed integers (strings tie beyond eight bytes). The second return
// is false for unpackable values.
func ToInt(value any) (int64, bool) {
	switch v := value.(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float32:
		return clampFloat(math.RoundToEven(float64(v))), true
	case float64:
		return clampFloat(math.RoundToEven(v)), true
	case time.Time:
		seconds := math.RoundToEven(float64(v.UnixMilli()) / 1000.0)
		return clampFloat(seconds), true
	case string:
		return packBytes([]byte(v)), true
	case []byte:
		return packBytes(v), true
	}
	return 0, false
}

// packBytes interprets the first 8 bytes, right-padded with NUL, as a
// big-endian signed 64-bit integer
func packBytes(value []byte) int64 {
	var padded [8]byte
	copy(padded[:], value)
	return int64(binary.BigEndian.Uint64(padded[:]))
}

// DateToInt packs a calendar date as UNIX seconds at midnight UTC
func DateToInt(daysSinceEpoch int64) int64 {
	return daysSinceEpoch * 86400
}

// TimeToInt packs a time of day as seconds since midnight
func TimeToInt(hour, minute, second int) int64 {
	return int64(hour)*3600 + int64(minute)*60 + int64(second)
}
