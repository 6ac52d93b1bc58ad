package wire

import (
	"github.com/orogen-io/sideband/types"
)

// Encode encodes a message into a fresh byte sequence of bounded maximum
// size. Messages must be passed by value, as the vocabulary declares them.
//
// RPC argument references encode only the slot handles, never the
// pointed-to data: both sides address the shared exchange arena, which
// binds the protocol to same-machine cooperating execution contexts.
func Encode(m types.Message) ([]byte, error) {
	return Append(nil, m)
}

// Append encodes a message onto dst and returns the extended slice.
// Returns an oversize error if the encoded message (tag included) exceeds
// MaxMessageSize; dst is unchanged in that case from the caller's view
// since the returned slice is discarded on error.
func Append(dst []byte, m types.Message) ([]byte, error) {
	w := &Writer{buf: dst}
	start := len(dst)

	switch v := m.(type) {
	case types.LoadRequest:
		w.U8(uint8(TagLoadRequest))
		w.Bytes(v.Library)
	case types.LoadReply:
		w.U8(uint8(TagLoadReply))
		if v.Err == nil {
			w.U8(0)
		} else {
			w.U8(1)
			w.U8(uint8(v.Err.Kind))
			w.Text(v.Err.Detail)
		}

	case types.NowInitRequest:
		w.U8(uint8(TagNowInitRequest))
	case types.NowInitReply:
		w.U8(uint8(TagNowInitReply))
		w.U64(v.Now)
	case types.NowSave:
		w.U8(uint8(TagNowSave))
		w.U64(v.Now)
	case types.RtioInitRequest:
		w.U8(uint8(TagRtioInitRequest))

	case types.RunFinished:
		w.U8(uint8(TagRunFinished))
	case types.RunException:
		w.U8(uint8(TagRunException))
		appendException(w, &v.Exception)
		w.U64s(v.Backtrace)
	case types.RunAborted:
		w.U8(uint8(TagRunAborted))

	case types.WatchdogSetRequest:
		w.U8(uint8(TagWatchdogSetRequest))
		w.U64(v.Millis)
	case types.WatchdogSetReply:
		w.U8(uint8(TagWatchdogSetReply))
		w.U32(v.ID)
	case types.WatchdogClear:
		w.U8(uint8(TagWatchdogClear))
		w.U32(v.ID)

	case types.DrtioChannelStateRequest:
		w.U8(uint8(TagDrtioChannelStateRequest))
		w.U32(v.Channel)
	case types.DrtioChannelStateReply:
		w.U8(uint8(TagDrtioChannelStateReply))
		w.U16(v.FifoSpace)
		w.U64(v.LastTimestamp)
	case types.DrtioResetChannelStateRequest:
		w.U8(uint8(TagDrtioResetChannelStateRequest))
		w.U32(v.Channel)
	case types.DrtioGetFifoSpaceRequest:
		w.U8(uint8(TagDrtioGetFifoSpaceRequest))
		w.U32(v.Channel)
	case types.DrtioPacketCountRequest:
		w.U8(uint8(TagDrtioPacketCountRequest))
	case types.DrtioPacketCountReply:
		w.U8(uint8(TagDrtioPacketCountReply))
		w.U32(v.TxCount)
		w.U32(v.RxCount)
	case types.DrtioFifoSpaceReqCountRequest:
		w.U8(uint8(TagDrtioFifoSpaceReqCountRequest))
	case types.DrtioFifoSpaceReqCountReply:
		w.U8(uint8(TagDrtioFifoSpaceReqCountReply))
		w.U32(v.Count)

	case types.RpcSend:
		w.U8(uint8(TagRpcSend))
		w.Bool(v.Async)
		w.U32(v.Service)
		w.Bytes(v.Tag)
		w.Slots(v.Args)
	case types.RpcRecvRequest:
		w.U8(uint8(TagRpcRecvRequest))
		w.U32(uint32(v.Dest))
	case types.RpcRecvReply:
		w.U8(uint8(TagRpcRecvReply))
		if v.Exc == nil {
			w.U8(0)
			w.U32(v.Size)
		} else {
			w.U8(1)
			appendException(w, v.Exc)
		}

	case types.CacheGetRequest:
		w.U8(uint8(TagCacheGetRequest))
		w.Text(v.Key)
	case types.CacheGetReply:
		w.U8(uint8(TagCacheGetReply))
		w.I32s(v.Value)
	case types.CachePutRequest:
		w.U8(uint8(TagCachePutRequest))
		w.Text(v.Key)
		w.I32s(v.Value)
	case types.CachePutReply:
		w.U8(uint8(TagCachePutReply))
		w.Bool(v.Succeeded)

	case types.I2cStartRequest:
		w.U8(uint8(TagI2cStartRequest))
		w.U8(v.Bus)
	case types.I2cStopRequest:
		w.U8(uint8(TagI2cStopRequest))
		w.U8(v.Bus)
	case types.I2cWriteRequest:
		w.U8(uint8(TagI2cWriteRequest))
		w.U8(v.Bus)
		w.U8(v.Data)
	case types.I2cWriteReply:
		w.U8(uint8(TagI2cWriteReply))
		w.Bool(v.Ack)
	case types.I2cReadRequest:
		w.U8(uint8(TagI2cReadRequest))
		w.U8(v.Bus)
		w.Bool(v.Ack)
	case types.I2cReadReply:
		w.U8(uint8(TagI2cReadReply))
		w.U8(v.Data)

	case types.Log:
		w.U8(uint8(TagLog))
		w.Text(v.Text)
	case types.LogSlice:
		w.U8(uint8(TagLogSlice))
		w.Bytes(v.Text)

	default:
		return nil, malformed("unencodable message type %T", m)
	}

	if len(w.buf)-start > MaxMessageSize {
		return nil, &Error{
			Kind: KindOversize,
			Msg:  "encoded message exceeds maximum size",
		}
	}
	return w.buf, nil
}

func appendException(w *Writer, exc *types.Exception) {
	w.Text(exc.Name)
	w.Text(exc.File)
	w.U32(exc.Line)
	w.U32(exc.Column)
	w.Text(exc.Function)
	w.Text(exc.Message)
	for _, p := range exc.Param {
		w.I64(p)
	}
}
