package session

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/orogen-io/sideband/mailbox"
	"github.com/orogen-io/sideband/metrics"
	"github.com/orogen-io/sideband/rpc"
	"github.com/orogen-io/sideband/types"
)

func mustSend(t *testing.T, ep *mailbox.Endpoint, m types.Message) {
	t.Helper()
	if err := ep.Send(m); err != nil {
		t.Errorf("kernel send %T failed: %v", m, err)
	}
}

func mustRecv(t *testing.T, ep *mailbox.Endpoint) types.Message {
	t.Helper()
	m, err := ep.Recv()
	if err != nil {
		t.Errorf("kernel recv failed: %v", err)
		return nil
	}
	return m
}

func TestSession_FullInvocation(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	s := New(host, Config{})
	done := make(chan struct{})
	go func() {
		defer close(done)

		mustSend(t, kernel, types.LoadRequest{Library: []byte{0x7f, 'E', 'L', 'F'}})
		if reply := mustRecv(t, kernel).(types.LoadReply); reply.Err != nil {
			t.Errorf("load rejected: %v", reply.Err)
		}

		mustSend(t, kernel, types.NowInitRequest{})
		if reply := mustRecv(t, kernel).(types.NowInitReply); reply.Now != 0 {
			t.Errorf("initial now = %d, want 0", reply.Now)
		}
		mustSend(t, kernel, types.NowSave{Now: 1234})
		mustSend(t, kernel, types.NowInitRequest{})
		if reply := mustRecv(t, kernel).(types.NowInitReply); reply.Now != 1234 {
			t.Errorf("restored now = %d, want 1234", reply.Now)
		}
		mustSend(t, kernel, types.RtioInitRequest{})

		mustSend(t, kernel, types.WatchdogSetRequest{Millis: 60000})
		wd := mustRecv(t, kernel).(types.WatchdogSetReply)

		mustSend(t, kernel, types.CachePutRequest{Key: "gamma", Value: []int32{4, 5}})
		if reply := mustRecv(t, kernel).(types.CachePutReply); !reply.Succeeded {
			t.Error("cache put refused")
		}
		mustSend(t, kernel, types.CacheGetRequest{Key: "gamma"})
		if reply := mustRecv(t, kernel).(types.CacheGetReply); !reflect.DeepEqual(reply.Value, []int32{4, 5}) {
			t.Errorf("cache get = %v, want [4 5]", reply.Value)
		}

		mustSend(t, kernel, types.I2cStartRequest{Bus: 0})
		mustSend(t, kernel, types.I2cWriteRequest{Bus: 0, Data: 0x55})
		if reply := mustRecv(t, kernel).(types.I2cWriteReply); !reply.Ack {
			t.Error("i2c write not acknowledged")
		}
		mustSend(t, kernel, types.I2cReadRequest{Bus: 0, Ack: false})
		if reply := mustRecv(t, kernel).(types.I2cReadReply); reply.Data != 0x55 {
			t.Errorf("i2c read = 0x%02x, want 0x55", reply.Data)
		}
		mustSend(t, kernel, types.I2cStopRequest{Bus: 0})

		mustSend(t, kernel, types.DrtioChannelStateRequest{Channel: 3})
		if reply := mustRecv(t, kernel).(types.DrtioChannelStateReply); reply.FifoSpace == 0 {
			t.Error("fresh channel has no fifo space")
		}

		mustSend(t, kernel, types.Log{Text: "INFO:sequence armed"})
		mustSend(t, kernel, types.WatchdogClear{ID: wd.ID})
		mustSend(t, kernel, types.RunFinished{})
	}()

	outcome, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Phase != PhaseFinished {
		t.Errorf("outcome phase = %v, want finished", outcome.Phase)
	}
	<-done
}

func TestSession_ExceptionOutcome(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	s := New(host, Config{})
	go func() {
		mustSend(t, kernel, types.LoadRequest{Library: []byte{1}})
		mustRecv(t, kernel)
		mustSend(t, kernel, types.RunException{
			Exception: types.Exception{
				Name:    "RTIOUnderflow",
				File:    "experiment.py",
				Line:    88,
				Message: "event at {0} mu is in the past",
				Param:   [3]int64{-125, 0, 0},
			},
			Backtrace: []uint64{0x40800010, 0x40800044},
		})
	}()

	outcome, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Phase != PhaseExceptionRaised {
		t.Fatalf("outcome phase = %v, want exception-raised", outcome.Phase)
	}
	if outcome.Exception == nil || outcome.Exception.Name != "RTIOUnderflow" {
		t.Errorf("outcome exception = %v, want RTIOUnderflow", outcome.Exception)
	}
	if len(outcome.Backtrace) != 2 {
		t.Errorf("backtrace length = %d, want 2", len(outcome.Backtrace))
	}
}

func TestSession_KernelAbort(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	s := New(host, Config{})
	go func() {
		mustSend(t, kernel, types.LoadRequest{Library: []byte{1}})
		mustRecv(t, kernel)
		mustSend(t, kernel, types.RunAborted{})
	}()

	outcome, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Phase != PhaseAborted {
		t.Errorf("outcome phase = %v, want aborted", outcome.Phase)
	}
}

func TestSession_WatchdogExpiryForcesAbort(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	s := New(host, Config{})
	go func() {
		mustSend(t, kernel, types.LoadRequest{Library: []byte{1}})
		mustRecv(t, kernel)
		mustSend(t, kernel, types.WatchdogSetRequest{Millis: 20})
		mustRecv(t, kernel)
		// Kernel hangs without clearing the watchdog.
	}()

	outcome, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Phase != PhaseAborted {
		t.Errorf("outcome phase = %v, want aborted", outcome.Phase)
	}
}

func TestSession_LoadFailureStaysNotStarted(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer host.Close()

	s := New(host, Config{
		Loader: LoaderFunc(func([]byte) *types.LinkError {
			return &types.LinkError{Kind: types.LinkErrorLookup, Detail: "now_mu"}
		}),
	})
	go func() {
		mustSend(t, kernel, types.LoadRequest{Library: []byte{1}})
		reply := mustRecv(t, kernel).(types.LoadReply)
		if reply.Err == nil || reply.Err.Kind != types.LinkErrorLookup {
			t.Errorf("load reply = %v, want lookup link error", reply.Err)
		}
		kernel.Close()
	}()

	outcome, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("Run after rejected load and closed channel succeeded, want error")
	}
	if outcome.Phase != PhaseNotStarted {
		t.Errorf("outcome phase = %v, want not-started", outcome.Phase)
	}
}

func TestSession_RPCBeforeInitializationIsFatal(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	s := New(host, Config{})
	go func() {
		mustSend(t, kernel, types.LoadRequest{Library: []byte{1}})
		mustRecv(t, kernel)
		mustSend(t, kernel, types.RpcSend{Service: 1, Tag: []byte(":n")})
	}()

	if _, err := s.Run(context.Background()); err == nil {
		t.Error("Run with pre-initialization RPC succeeded, want error")
	}
}

func TestSession_RPCRoundTrip(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	registry := rpc.NewRegistry()
	registry.Register(11, func(args []any) (any, *types.Exception) {
		return args[0].(float64) * 2, nil
	})
	s := New(host, Config{Registry: registry})

	go func() {
		mustSend(t, kernel, types.LoadRequest{Library: []byte{1}})
		mustRecv(t, kernel)
		mustSend(t, kernel, types.NowInitRequest{})
		mustRecv(t, kernel)
		mustSend(t, kernel, types.RtioInitRequest{})

		bridge := rpc.NewBridge(kernel, 0)
		result, err := bridge.Call(11, "f:f", 1.5)
		if err != nil {
			t.Errorf("Call through session failed: %v", err)
		} else if result != 3.0 {
			t.Errorf("Call result = %v, want 3", result)
		}
		mustSend(t, kernel, types.RunFinished{})
	}()

	outcome, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Phase != PhaseFinished {
		t.Errorf("outcome phase = %v, want finished", outcome.Phase)
	}
}

func TestSession_ContextCancelAborts(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s := New(host, Config{})
	go func() {
		mustSend(t, kernel, types.LoadRequest{Library: []byte{1}})
		mustRecv(t, kernel)
		cancel()
	}()

	outcome, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Phase != PhaseAborted {
		t.Errorf("outcome phase = %v, want aborted", outcome.Phase)
	}
}

// recordingObserver captures message categories in both directions.
type recordingObserver struct {
	mu       sync.Mutex
	inbound  []types.Category
	outbound []types.Category
}

func (o *recordingObserver) Observe(outbound bool, m types.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if outbound {
		o.outbound = append(o.outbound, m.Category())
	} else {
		o.inbound = append(o.inbound, m.Category())
	}
}

func TestSession_ObserverSeesBothDirections(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	obs := &recordingObserver{}
	s := New(host, Config{Observer: obs})
	go func() {
		mustSend(t, kernel, types.LoadRequest{Library: []byte{1}})
		mustRecv(t, kernel)
		mustSend(t, kernel, types.RunFinished{})
	}()

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	wantIn := []types.Category{types.CategoryLoad, types.CategoryRun}
	wantOut := []types.Category{types.CategoryLoad}
	if !reflect.DeepEqual(obs.inbound, wantIn) {
		t.Errorf("inbound categories = %v, want %v", obs.inbound, wantIn)
	}
	if !reflect.DeepEqual(obs.outbound, wantOut) {
		t.Errorf("outbound categories = %v, want %v", obs.outbound, wantOut)
	}
}

// dwellObserver reads a log view only after holding it for a while,
// modelling a consumer that is still reading when the next frame could
// otherwise be received into the same buffer.
type dwellObserver struct {
	mu    sync.Mutex
	texts []string
}

func (o *dwellObserver) Observe(outbound bool, m types.Message) {
	ls, ok := m.(types.LogSlice)
	if !ok {
		return
	}
	time.Sleep(30 * time.Millisecond)
	o.mu.Lock()
	o.texts = append(o.texts, string(ls.Text))
	o.mu.Unlock()
}

func TestSession_ViewsStableDuringDispatch(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	obs := &dwellObserver{}
	s := New(host, Config{Observer: obs})
	go func() {
		mustSend(t, kernel, types.LoadRequest{Library: []byte{1}})
		mustRecv(t, kernel)
		// Back-to-back no-reply traffic: the second frame must not be
		// read into the receive buffer while the first is still in use.
		mustSend(t, kernel, types.LogSlice{Text: bytes.Repeat([]byte("A"), 64)})
		mustSend(t, kernel, types.LogSlice{Text: bytes.Repeat([]byte("B"), 64)})
		mustSend(t, kernel, types.RunFinished{})
	}()

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{strings.Repeat("A", 64), strings.Repeat("B", 64)}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if !reflect.DeepEqual(obs.texts, want) {
		t.Errorf("observed log texts = %q, want %q", obs.texts, want)
	}
}

func TestSession_MetricsCollected(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	collector := metrics.NewCollector("session-7")
	s := New(host, Config{Metrics: collector})
	go func() {
		mustSend(t, kernel, types.LoadRequest{Library: []byte{1}})
		mustRecv(t, kernel)
		mustSend(t, kernel, types.CacheGetRequest{Key: "absent"})
		mustRecv(t, kernel)
		mustSend(t, kernel, types.WatchdogSetRequest{Millis: 60000})
		wd := mustRecv(t, kernel).(types.WatchdogSetReply)
		mustSend(t, kernel, types.WatchdogClear{ID: wd.ID})
		mustSend(t, kernel, types.RunFinished{})
	}()

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap := collector.Snapshot()
	if snap.MessagesIn != 5 {
		t.Errorf("MessagesIn = %d, want 5", snap.MessagesIn)
	}
	if snap.MessagesOut != 3 {
		t.Errorf("MessagesOut = %d, want 3", snap.MessagesOut)
	}
	if snap.RunsStarted != 1 || snap.RunsFinished != 1 {
		t.Errorf("runs started/finished = %d/%d, want 1/1", snap.RunsStarted, snap.RunsFinished)
	}
	if snap.CacheMisses != 1 || snap.CacheHits != 0 {
		t.Errorf("cache hits/misses = %d/%d, want 0/1", snap.CacheHits, snap.CacheMisses)
	}
	if snap.WatchdogsSet != 1 || snap.WatchdogsExpired != 0 {
		t.Errorf("watchdogs set/expired = %d/%d, want 1/0", snap.WatchdogsSet, snap.WatchdogsExpired)
	}
	if snap.ByCategory["watchdog"] != 2 {
		t.Errorf("ByCategory[watchdog] = %d, want 2", snap.ByCategory["watchdog"])
	}
	if snap.SessionID != "session-7" {
		t.Errorf("SessionID = %q, want session-7", snap.SessionID)
	}
}

func TestSession_UnexpectedReplyFromKernelIsFatal(t *testing.T) {
	kernel, host := mailbox.Pipe(mailbox.DefaultArenaSize)
	defer kernel.Close()
	defer host.Close()

	s := New(host, Config{})
	go func() {
		// Only the host produces LoadReply.
		mustSend(t, kernel, types.LoadReply{})
	}()

	_, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("Run with reply from kernel succeeded, want error")
	}
	var exc *types.Exception
	if errors.As(err, &exc) {
		t.Error("protocol error surfaced as domain exception")
	}
}
