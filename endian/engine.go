// Package endian provides byte order utilities for reading and writing column payloads.
//
// A payload is encoded with one byte order for all of its columns. The decoder
// holds a single EndianEngine for its whole lifetime, so the byte order is a
// per-decoder setting, never a per-column one.
//
// # Basic Usage
//
// The tabular data service writes big-endian payloads, so most callers want:
//
//	engine := endian.GetBigEndianEngine()
//	dec := encoding.NewInt32Decoder(engine)
//
// The byte order can also be taken from configuration:
//
//	engine, err := endian.Parse("little")
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian from
// the standard library.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Parse returns the engine named by s ("big", "little", case-insensitive).
// The empty string selects big-endian, the byte order of the tabular data service.
func Parse(s string) (EndianEngine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "big", "bigendian", "big-endian":
		return GetBigEndianEngine(), nil
	case "little", "littleendian", "little-endian":
		return GetLittleEndianEngine(), nil
	default:
		return nil, fmt.Errorf("unknown byte order %q", s)
	}
}

// Name returns "big" or "little" for the given engine.
func Name(engine EndianEngine) string {
	if engine == GetLittleEndianEngine() {
		return "little"
	}

	return "big"
}
