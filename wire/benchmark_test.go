package wire

import (
	"testing"

	"github.com/orogen-io/sideband/types"
)

// Codec hot path: RpcSend is the most frequent kernel-originated message
// in a typical run.
func BenchmarkEncode_RpcSend(b *testing.B) {
	msg := types.RpcSend{
		Async:   false,
		Service: 12,
		Tag:     []byte("iif:s"),
		Args:    []types.Slot{0, 8, 16},
	}
	var buf []byte
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var err error
		buf, err = Append(buf[:0], msg)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode_RpcSend(b *testing.B) {
	buf, err := Encode(types.RpcSend{
		Async:   false,
		Service: 12,
		Tag:     []byte("iif:s"),
		Args:    []types.Slot{0, 8, 16},
	})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode_RunException(b *testing.B) {
	buf, err := Encode(types.RunException{
		Exception: types.Exception{
			Name:     "RTIOUnderflow",
			File:     "experiment.py",
			Line:     42,
			Column:   8,
			Function: "run",
			Message:  "event at {0} is {1} mu late",
			Param:    [3]int64{1, 2, 3},
		},
		Backtrace: []uint64{1, 2, 3, 4, 5, 6, 7, 8},
	})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}
