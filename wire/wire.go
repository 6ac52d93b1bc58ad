// Package wire implements the binary codec for the kernel/host message
// vocabulary.
//
// Every message encodes as a tag byte followed by a variant-specific
// payload: fixed-width big-endian numerics, bools as one byte, and
// variable-length fields prefixed by an explicit u32 length. The high
// nibble of the tag selects the message category; decoding dispatches by
// category so each concern keeps its own codec.
//
// Decoding is bounded: every length prefix is validated against the
// remaining buffer before any read or allocation, and byte-slice fields
// are produced as views into the input buffer, not copies. Callers needing
// persistence past the exchange must copy explicitly.
package wire

import (
	"errors"
	"fmt"

	"github.com/orogen-io/sideband/types"
)

// MaxMessageSize bounds any encoded message, tag byte included.
const MaxMessageSize = 16 * 1024 * 1024

// Tag is the fixed-width wire discriminant. The high nibble selects the
// message category.
type Tag uint8

// Wire tags, grouped by category nibble.
const (
	TagLoadRequest Tag = 0x00
	TagLoadReply   Tag = 0x01

	TagNowInitRequest  Tag = 0x10
	TagNowInitReply    Tag = 0x11
	TagNowSave         Tag = 0x12
	TagRtioInitRequest Tag = 0x13

	TagRunFinished  Tag = 0x20
	TagRunException Tag = 0x21
	TagRunAborted   Tag = 0x22

	TagWatchdogSetRequest Tag = 0x30
	TagWatchdogSetReply   Tag = 0x31
	TagWatchdogClear      Tag = 0x32

	TagDrtioChannelStateRequest      Tag = 0x40
	TagDrtioChannelStateReply        Tag = 0x41
	TagDrtioResetChannelStateRequest Tag = 0x42
	TagDrtioGetFifoSpaceRequest      Tag = 0x43
	TagDrtioPacketCountRequest       Tag = 0x44
	TagDrtioPacketCountReply         Tag = 0x45
	TagDrtioFifoSpaceReqCountRequest Tag = 0x46
	TagDrtioFifoSpaceReqCountReply   Tag = 0x47

	TagRpcSend        Tag = 0x50
	TagRpcRecvRequest Tag = 0x51
	TagRpcRecvReply   Tag = 0x52

	TagCacheGetRequest Tag = 0x60
	TagCacheGetReply   Tag = 0x61
	TagCachePutRequest Tag = 0x62
	TagCachePutReply   Tag = 0x63

	TagI2cStartRequest Tag = 0x70
	TagI2cStopRequest  Tag = 0x71
	TagI2cWriteRequest Tag = 0x72
	TagI2cWriteReply   Tag = 0x73
	TagI2cReadRequest  Tag = 0x74
	TagI2cReadReply    Tag = 0x75

	TagLog      Tag = 0x80
	TagLogSlice Tag = 0x81
)

// Category returns the message category encoded in the tag's high nibble.
// ok is false for nibbles outside the vocabulary.
func (t Tag) Category() (types.Category, bool) {
	switch t >> 4 {
	case 0x0:
		return types.CategoryLoad, true
	case 0x1:
		return types.CategoryClock, true
	case 0x2:
		return types.CategoryRun, true
	case 0x3:
		return types.CategoryWatchdog, true
	case 0x4:
		return types.CategoryDrtio, true
	case 0x5:
		return types.CategoryRPC, true
	case 0x6:
		return types.CategoryCache, true
	case 0x7:
		return types.CategoryI2C, true
	case 0x8:
		return types.CategoryLog, true
	default:
		return 0, false
	}
}

// tagNames maps tags to the variant names used in traces and errors.
var tagNames = map[Tag]string{
	TagLoadRequest:                   "LoadRequest",
	TagLoadReply:                     "LoadReply",
	TagNowInitRequest:                "NowInitRequest",
	TagNowInitReply:                  "NowInitReply",
	TagNowSave:                       "NowSave",
	TagRtioInitRequest:               "RtioInitRequest",
	TagRunFinished:                   "RunFinished",
	TagRunException:                  "RunException",
	TagRunAborted:                    "RunAborted",
	TagWatchdogSetRequest:            "WatchdogSetRequest",
	TagWatchdogSetReply:              "WatchdogSetReply",
	TagWatchdogClear:                 "WatchdogClear",
	TagDrtioChannelStateRequest:      "DrtioChannelStateRequest",
	TagDrtioChannelStateReply:        "DrtioChannelStateReply",
	TagDrtioResetChannelStateRequest: "DrtioResetChannelStateRequest",
	TagDrtioGetFifoSpaceRequest:      "DrtioGetFifoSpaceRequest",
	TagDrtioPacketCountRequest:       "DrtioPacketCountRequest",
	TagDrtioPacketCountReply:         "DrtioPacketCountReply",
	TagDrtioFifoSpaceReqCountRequest: "DrtioFifoSpaceReqCountRequest",
	TagDrtioFifoSpaceReqCountReply:   "DrtioFifoSpaceReqCountReply",
	TagRpcSend:                       "RpcSend",
	TagRpcRecvRequest:                "RpcRecvRequest",
	TagRpcRecvReply:                  "RpcRecvReply",
	TagCacheGetRequest:               "CacheGetRequest",
	TagCacheGetReply:                 "CacheGetReply",
	TagCachePutRequest:               "CachePutRequest",
	TagCachePutReply:                 "CachePutReply",
	TagI2cStartRequest:               "I2cStartRequest",
	TagI2cStopRequest:                "I2cStopRequest",
	TagI2cWriteRequest:               "I2cWriteRequest",
	TagI2cWriteReply:                 "I2cWriteReply",
	TagI2cReadRequest:                "I2cReadRequest",
	TagI2cReadReply:                  "I2cReadReply",
	TagLog:                           "Log",
	TagLogSlice:                      "LogSlice",
}

// String returns the variant name, or a hex form for unknown tags.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(0x%02x)", uint8(t))
}

// ErrorKind classifies codec errors.
type ErrorKind int

const (
	// KindTruncated indicates a payload whose declared lengths read past
	// the provided buffer bound.
	KindTruncated ErrorKind = iota
	// KindMalformed indicates an unrecognized tag or a payload
	// inconsistent with the tag's expected shape.
	KindMalformed
	// KindOversize indicates an encoded message exceeding MaxMessageSize.
	KindOversize
)

// Error represents a codec error. Codec errors are framing defects, fatal
// to the current exchange: the channel must be resynchronized, not
// silently skipped.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTruncated reports whether err is a truncation codec error.
func IsTruncated(err error) bool {
	var werr *Error
	return errors.As(err, &werr) && werr.Kind == KindTruncated
}

// IsMalformed reports whether err is a malformed-message codec error.
func IsMalformed(err error) bool {
	var werr *Error
	return errors.As(err, &werr) && werr.Kind == KindMalformed
}

func truncated(format string, args ...any) *Error {
	return &Error{Kind: KindTruncated, Msg: fmt.Sprintf(format, args...)}
}

func malformed(format string, args ...any) *Error {
	return &Error{Kind: KindMalformed, Msg: fmt.Sprintf(format, args...)}
}
