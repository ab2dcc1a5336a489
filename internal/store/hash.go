// Package store implements the sharded concurrent map that backs the
// cache's Get/Insert/Invalidate path. It owns the canonical *Entry for
// every live key; the Policy Engine and Expiration Engine hold only
// secondary indexes (list positions, queue slots) that point back into it.
package store

import (
	"fmt"
	"hash/maphash"
)

// Hasher maps a key to a shard-routing hash. The zero value is never
// usable; construct one with NewHasher.
type Hasher[K comparable] func(key K) uint64

// NewHasher builds a Hasher seeded once per Store so that hash values
// are stable for the process lifetime but not predictable across runs
// (the same defense hash/maphash gives the stdlib map).
//
// Common key kinds are hashed directly; anything else falls back to
// hashing its fmt "%v" representation, which is correct for any
// comparable type but slower. Supply a custom Hasher via WithHasher on
// the Builder when that fallback matters for a hot key type.
func NewHasher[K comparable]() Hasher[K] {
	seed := maphash.MakeSeed()
	return func(key K) uint64 {
		var h maphash.Hash
		h.SetSeed(seed)
		writeKey(&h, key)
		return h.Sum64()
	}
}

func writeKey[K comparable](h *maphash.Hash, key K) {
	switch v := any(key).(type) {
	case string:
		h.WriteString(v)
	case []byte:
		h.Write(v)
	case int:
		writeUint64(h, uint64(v))
	case int8:
		writeUint64(h, uint64(v))
	case int16:
		writeUint64(h, uint64(v))
	case int32:
		writeUint64(h, uint64(v))
	case int64:
		writeUint64(h, uint64(v))
	case uint:
		writeUint64(h, uint64(v))
	case uint8:
		writeUint64(h, uint64(v))
	case uint16:
		writeUint64(h, uint64(v))
	case uint32:
		writeUint64(h, uint64(v))
	case uint64:
		writeUint64(h, v)
	case uintptr:
		writeUint64(h, uint64(v))
	default:
		// Arbitrary comparable types (structs of comparable fields,
		// named scalar types that didn't hit a case above, pointers).
		// fmt's %v is stable for a given value and cheap enough for
		// keys that aren't on the hot path; callers with a hot
		// non-scalar key type should supply their own Hasher.
		fmt.Fprintf(h, "%v", v)
	}
}

func writeUint64(h *maphash.Hash, v uint64) {
	var buf [8]byte
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
	buf[4] = byte(v >> 32)
	buf[5] = byte(v >> 40)
	buf[6] = byte(v >> 48)
	buf[7] = byte(v >> 56)
	h.Write(buf[:])
}
