package rpc

import (
	"errors"
	"reflect"
	"testing"

	"github.com/orogen-io/sideband/mailbox"
	"github.com/orogen-io/sideband/types"
	"github.com/orogen-io/sideband/wire"
)

func TestParseSignature(t *testing.T) {
	tests := []struct {
		tag      string
		wantArgs string
		wantRet  string
	}{
		{":n", "", "n"},
		{"i:I", "i", "I"},
		{"isB:f", "i s B", "f"},
		{"li:li", "li", "li"},
		{"lls:n", "lls", "n"},
	}
	for _, tt := range tests {
		sig, err := ParseSignature([]byte(tt.tag))
		if err != nil {
			t.Errorf("ParseSignature(%q) failed: %v", tt.tag, err)
			continue
		}
		var args string
		for i, a := range sig.Args {
			if i > 0 {
				args += " "
			}
			args += a.String()
		}
		if args != tt.wantArgs || sig.Ret.String() != tt.wantRet {
			t.Errorf("ParseSignature(%q) = (%q, %q), want (%q, %q)",
				tt.tag, args, sig.Ret.String(), tt.wantArgs, tt.wantRet)
		}
	}
}

func TestParseSignature_Invalid(t *testing.T) {
	for _, tag := range []string{"", "ii", "i:x", "l:n", "ln:n", "i:Ii", ":"} {
		if _, err := ParseSignature([]byte(tag)); err == nil {
			t.Errorf("ParseSignature(%q) succeeded, want error", tag)
		}
	}
}

func TestValueRoundTrip(t *testing.T) {
	tests := []struct {
		tag   string
		value any
	}{
		{"b", true},
		{"i", int32(-7)},
		{"I", int64(1) << 40},
		{"f", 2.5},
		{"s", "attenuator"},
		{"B", []byte{0xde, 0xad}},
		{"li", []any{int32(1), int32(2), int32(3)}},
		{"lls", []any{[]any{"a"}, []any{"b", "c"}}},
	}
	for _, tt := range tests {
		typ, n, err := parseType([]byte(tt.tag))
		if err != nil || n != len(tt.tag) {
			t.Fatalf("parseType(%q) = %v, %d", tt.tag, err, n)
		}
		encoded, err := appendValue(nil, typ, tt.value)
		if err != nil {
			t.Errorf("appendValue(%q) failed: %v", tt.tag, err)
			continue
		}
		r := wire.NewReader(encoded)
		got, err := readValue(r, typ)
		if err != nil {
			t.Errorf("readValue(%q) failed: %v", tt.tag, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.value) {
			t.Errorf("round-trip(%q) = %#v, want %#v", tt.tag, got, tt.value)
		}
		if r.Len() != 0 {
			t.Errorf("round-trip(%q) left %d trailing bytes", tt.tag, r.Len())
		}
	}
}

func TestAppendValue_TypeMismatch(t *testing.T) {
	typ := Type{Kind: KindInt32}
	if _, err := appendValue(nil, typ, "not an int"); err == nil {
		t.Error("appendValue with mismatched value succeeded, want error")
	}
}

// serveOne resolves exactly one synchronous call on the host endpoint.
func serveOne(t *testing.T, host *mailbox.Endpoint, reg *Registry) {
	t.Helper()
	m, err := host.Recv()
	if err != nil {
		t.Errorf("host recv failed: %v", err)
		return
	}
	send, ok := m.(types.RpcSend)
	if !ok {
		t.Errorf("host received %T, want RpcSend", m)
		return
	}
	res, err := reg.Invoke(host.Arena(), send)
	if err != nil {
		t.Errorf("Invoke failed: %v", err)
		return
	}
	m, err = host.Recv()
	if err != nil {
		t.Errorf("host recv failed: %v", err)
		return
	}
	recv, ok := m.(types.RpcRecvRequest)
	if !ok {
		t.Errorf("host received %T, want RpcRecvRequest", m)
		return
	}
	reply, err := Deliver(host.Arena(), recv.Dest, res)
	if err != nil {
		t.Errorf("Deliver failed: %v", err)
		return
	}
	if err := host.Send(reply); err != nil {
		t.Errorf("host send failed: %v", err)
	}
}

func TestCall_EndToEnd(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	reg := NewRegistry()
	reg.Register(7, func(args []any) (any, *types.Exception) {
		base := args[0].(int64)
		scale := args[1].(int32)
		return base * int64(scale), nil
	})
	go serveOne(t, host, reg)

	b := NewBridge(kernel, 0)
	result, err := b.Call(7, "Ii:I", int64(100), int32(3))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if result != int64(300) {
		t.Errorf("Call result = %v, want 300", result)
	}
	if b.State() != StateIdle {
		t.Errorf("bridge state after call = %v, want idle", b.State())
	}
}

func TestCall_ExceptionPropagates(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	reg := NewRegistry()
	reg.Register(1, func(args []any) (any, *types.Exception) {
		return nil, &types.Exception{
			Name:    "ValueError",
			File:    "experiment.py",
			Line:    42,
			Message: "gain {0} out of range",
			Param:   [3]int64{99, 0, 0},
		}
	})
	go serveOne(t, host, reg)

	b := NewBridge(kernel, 0)
	_, err := b.Call(1, "i:n", int32(99))
	if err == nil {
		t.Fatal("Call with raising handler succeeded, want exception")
	}
	var exc *types.Exception
	if !errors.As(err, &exc) {
		t.Fatalf("Call error = %T, want *types.Exception", err)
	}
	if exc.Name != "ValueError" || exc.Line != 42 || exc.Param[0] != 99 {
		t.Errorf("exception fields lost in transit: %+v", exc)
	}
	if b.State() != StateIdle {
		t.Errorf("bridge state after exception = %v, want idle", b.State())
	}
}

func TestCall_UnknownServiceRaises(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	go serveOne(t, host, NewRegistry())

	b := NewBridge(kernel, 0)
	_, err := b.Call(9, ":n")
	var exc *types.Exception
	if !errors.As(err, &exc) {
		t.Fatalf("Call error = %v, want *types.Exception", err)
	}
	if exc.Name != "UnknownRPC" {
		t.Errorf("exception name = %q, want UnknownRPC", exc.Name)
	}
}

func TestPost_NoReplyExpected(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	done := make(chan types.RpcSend, 1)
	go func() {
		m, err := host.Recv()
		if err != nil {
			t.Errorf("host recv failed: %v", err)
			return
		}
		done <- m.(types.RpcSend)
	}()

	b := NewBridge(kernel, 0)
	if err := b.Post(3, "s:n", "fire and forget"); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	send := <-done
	if !send.Async {
		t.Error("Post produced a synchronous send")
	}
	if b.State() != StateIdle {
		t.Errorf("bridge state after post = %v, want idle", b.State())
	}
}

func TestCall_SecondCallWhileOutstanding(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	b := NewBridge(kernel, 0)

	sent := make(chan struct{})
	callDone := make(chan error, 1)
	go func() {
		// Consume the send so Call proceeds to await its result, then
		// hold the reply until the violation has been observed.
		if _, err := host.Recv(); err != nil {
			t.Errorf("host recv failed: %v", err)
		}
		close(sent)
	}()
	go func() {
		_, err := b.Call(5, "i:n", int32(1))
		callDone <- err
	}()

	<-sent
	var violation *ProtocolViolationError
	err := b.Post(6, ":n")
	if !errors.As(err, &violation) {
		t.Fatalf("Post during outstanding call = %v, want ProtocolViolationError", err)
	}

	// Let the first call finish.
	m, err := host.Recv()
	if err != nil {
		t.Fatalf("host recv failed: %v", err)
	}
	recv := m.(types.RpcRecvRequest)
	reply, err := Deliver(host.Arena(), recv.Dest, &Result{Ret: Type{Kind: KindNone}})
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if err := host.Send(reply); err != nil {
		t.Fatalf("host send failed: %v", err)
	}
	if err := <-callDone; err != nil {
		t.Errorf("outstanding call failed: %v", err)
	}
}

func TestInvoke_ArgumentsAreReadCorrectly(t *testing.T) {
	arena := mailbox.NewArena(1024)

	encoded, err := appendValue(nil, Type{Kind: KindString}, "hello")
	if err != nil {
		t.Fatalf("appendValue failed: %v", err)
	}
	slot, err := arena.Alloc(len(encoded))
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	region, _ := arena.Bytes(slot, len(encoded))
	copy(region, encoded)

	var got string
	reg := NewRegistry()
	reg.Register(2, func(args []any) (any, *types.Exception) {
		got = args[0].(string)
		return nil, nil
	})
	_, err = reg.Invoke(arena, types.RpcSend{
		Service: 2,
		Tag:     []byte("s:n"),
		Args:    []types.Slot{slot},
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("handler argument = %q, want %q", got, "hello")
	}
}

func TestCall_SequentialCallsReclaimArena(t *testing.T) {
	// Room for roughly two result reservations, far fewer than the
	// number of calls issued: without per-call reclamation the arena
	// exhausts after the second call.
	kernel, host := mailbox.Pipe(2*DefaultMaxResultSize + 256)
	defer kernel.Close()
	defer host.Close()

	reg := NewRegistry()
	reg.Register(5, func(args []any) (any, *types.Exception) {
		return args[0].(int32) + 1, nil
	})
	b := NewBridge(kernel, 0)

	for i := int32(0); i < 8; i++ {
		done := make(chan struct{})
		go func() {
			defer close(done)
			serveOne(t, host, reg)
		}()
		result, err := b.Call(5, "i:i", i)
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
		if result != i+1 {
			t.Errorf("call %d = %v, want %d", i, result, i+1)
		}
		<-done
	}

	if used := kernel.Arena().Used(); used != 0 {
		t.Errorf("arena holds %d bytes after all calls resolved, want 0", used)
	}
}
