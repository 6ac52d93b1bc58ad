package session

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/orogen-io/sideband/bus"
	"github.com/orogen-io/sideband/cache"
	"github.com/orogen-io/sideband/flow"
	"github.com/orogen-io/sideband/log"
	"github.com/orogen-io/sideband/logrelay"
	"github.com/orogen-io/sideband/mailbox"
	"github.com/orogen-io/sideband/metrics"
	"github.com/orogen-io/sideband/rpc"
	"github.com/orogen-io/sideband/types"
)

// Loader links and installs a kernel program image. The library slice
// aliases the receive buffer and must be consumed or copied before the
// call returns. A non-nil LinkError is the domain outcome carried back in
// LoadReply; it does not fail the exchange.
type Loader interface {
	Load(library []byte) *types.LinkError
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(library []byte) *types.LinkError

// Load implements Loader.
func (f LoaderFunc) Load(library []byte) *types.LinkError {
	return f(library)
}

// boundsLoader is the default loader: it performs no relocation, only
// checks the image against the kernel payload region.
func boundsLoader(library []byte) *types.LinkError {
	if len(library) == 0 {
		return &types.LinkError{Kind: types.LinkErrorParse, Detail: "empty program image"}
	}
	if len(library) > types.KernelLastAddress-types.KernelPayloadAddress+1 {
		return &types.LinkError{Kind: types.LinkErrorParse, Detail: "program image exceeds payload region"}
	}
	return nil
}

// Observer sees every message crossing the session boundary. Messages
// passed to Observe may alias the exchange buffer; observers needing
// persistence must copy (re-encoding counts as copying).
type Observer interface {
	Observe(outbound bool, m types.Message)
}

// Config assembles a session's collaborators. Zero-value fields get
// working defaults, so tests can populate only what they exercise.
type Config struct {
	// SessionID labels this invocation in log output. With no explicit
	// Logger, a non-empty ID selects a structured stderr logger carrying
	// it; an empty ID keeps logging off.
	SessionID string

	Loader   Loader
	Cache    cache.Store
	Flow     *flow.Tracker
	Bus      *bus.Bridge
	Registry *rpc.Registry
	Relay    *logrelay.Relay
	Observer Observer
	Logger   *zap.Logger

	// Metrics, when set, tallies session activity. A nil collector is a
	// no-op; the session never has to guard for it.
	Metrics *metrics.Collector

	// FifoSpaceQuery answers a kernel request to refresh a channel's
	// FIFO space from the link. Nil reports the full default depth.
	FifoSpaceQuery func(channel uint32) uint16

	// Now is the watchdog clock, injectable for tests.
	Now func() time.Time
}

// Outcome is the terminal result of one supervised kernel invocation.
type Outcome struct {
	Phase     Phase
	Exception *types.Exception
	Backtrace []uint64
}

// Session drives the host side of one kernel invocation over an exchange
// endpoint.
type Session struct {
	ep  *mailbox.Endpoint
	cfg Config

	lifecycle Lifecycle
	watchdogs *Watchdogs

	now        uint64
	clockReady bool
	rtioReady  bool

	pendingCall *rpc.Result
}

// New creates a session over an endpoint.
func New(ep *mailbox.Endpoint, cfg Config) *Session {
	if cfg.Loader == nil {
		cfg.Loader = LoaderFunc(boundsLoader)
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemory(0)
	}
	if cfg.Flow == nil {
		cfg.Flow = flow.NewTracker(0)
	}
	if cfg.Bus == nil {
		cfg.Bus = bus.NewBridge(bus.NewLoopback())
	}
	if cfg.Registry == nil {
		cfg.Registry = rpc.NewRegistry()
	}
	if cfg.Logger == nil {
		if cfg.SessionID != "" {
			cfg.Logger = log.NewLogger(cfg.SessionID).Zap()
		} else {
			cfg.Logger = zap.NewNop()
		}
	}
	if cfg.Relay == nil {
		cfg.Relay = logrelay.New(logrelay.NewZapSink(cfg.Logger))
	}
	return &Session{
		ep:        ep,
		cfg:       cfg,
		watchdogs: NewWatchdogs(cfg.Now),
	}
}

// Phase returns the lifecycle phase.
func (s *Session) Phase() Phase {
	return s.lifecycle.Phase()
}

type recvResult struct {
	msg types.Message
	err error
}

// Run supervises the invocation until a terminal phase is reached. A
// protocol error (malformed traffic, an out-of-order message, traffic
// before initialization) is fatal to the exchange and returned as an
// error; domain errors travel inside the Outcome.
//
// Context cancellation and watchdog expiry both force Aborted.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	// The reader goroutine must not outlive the run blocked on a
	// handoff nobody will take.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Decoded messages alias the receive buffer, so the next Recv must
	// not start until dispatch of the current message has completed. The
	// reader waits for an ack per message before reusing the buffer.
	msgs := make(chan recvResult)
	ack := make(chan struct{})
	go func() {
		for {
			m, err := s.ep.Recv()
			select {
			case msgs <- recvResult{m, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
			select {
			case <-ack:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		done, err := s.step(ctx, msgs, ack)
		if done || err != nil {
			return s.outcome(), err
		}
	}
}

// step processes one event: an incoming message, a watchdog deadline, or
// cancellation. done reports that a terminal phase was reached.
func (s *Session) step(ctx context.Context, msgs <-chan recvResult, ack chan<- struct{}) (done bool, err error) {
	var expiry <-chan time.Time
	if wait, ok := s.watchdogs.UntilNext(); ok {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		expiry = timer.C
	}

	select {
	case <-ctx.Done():
		s.forceAbort()
		s.cfg.Logger.Info("run aborted", zap.String("reason", "context cancelled"))
		return true, nil
	case <-expiry:
		if id, expired := s.watchdogs.Expired(); expired {
			s.cfg.Metrics.IncWatchdogExpired()
			s.forceAbort()
			s.cfg.Logger.Warn("watchdog forced abort", zap.Uint32("watchdog_id", id))
			return true, nil
		}
		return false, nil
	case r := <-msgs:
		if r.err != nil {
			if r.err == io.EOF {
				return true, fmt.Errorf("session: channel closed while %v", s.lifecycle.Phase())
			}
			return true, r.err
		}
		s.cfg.Metrics.IncMessageIn(r.msg.Category().String())
		if s.cfg.Observer != nil {
			s.cfg.Observer.Observe(false, r.msg)
		}
		if err := s.dispatch(ctx, r.msg); err != nil {
			return true, err
		}
		if s.lifecycle.Phase().Terminal() {
			return true, nil
		}
		// Dispatch is done with the message's views; release the receive
		// buffer for the next frame.
		select {
		case ack <- struct{}{}:
		case <-ctx.Done():
		}
		return false, nil
	}
}

// forceAbort aborts the run if one is in progress. Before Running there
// is nothing to abort and the lifecycle stays put.
func (s *Session) forceAbort() {
	if s.lifecycle.Abort() == nil {
		s.cfg.Metrics.IncRunAborted()
	}
}

func (s *Session) outcome() Outcome {
	exc, backtrace := s.lifecycle.Exception()
	return Outcome{
		Phase:     s.lifecycle.Phase(),
		Exception: exc,
		Backtrace: backtrace,
	}
}

// send transmits a reply, reporting it to the observer.
func (s *Session) send(m types.Message) error {
	s.cfg.Metrics.IncMessageOut()
	if s.cfg.Observer != nil {
		s.cfg.Observer.Observe(true, m)
	}
	return s.ep.Send(m)
}

func (s *Session) dispatch(ctx context.Context, m types.Message) error {
	switch m.Category() {
	case types.CategoryLoad:
		return s.handleLoad(m)
	case types.CategoryClock:
		return s.handleClock(m)
	case types.CategoryRun:
		return s.handleRun(m)
	case types.CategoryWatchdog:
		return s.handleWatchdog(m)
	case types.CategoryDrtio:
		if !s.initialized() {
			return fmt.Errorf("session: %T before clock/rtio initialization", m)
		}
		return s.handleDrtio(m)
	case types.CategoryRPC:
		if !s.initialized() {
			return fmt.Errorf("session: %T before clock/rtio initialization", m)
		}
		return s.handleRPC(m)
	case types.CategoryCache:
		return s.handleCache(ctx, m)
	case types.CategoryI2C:
		return s.handleI2C(m)
	case types.CategoryLog:
		return s.cfg.Relay.Relay(m)
	default:
		return fmt.Errorf("session: unroutable message %T", m)
	}
}

func (s *Session) initialized() bool {
	return s.clockReady && s.rtioReady
}

func (s *Session) handleLoad(m types.Message) error {
	req, ok := m.(types.LoadRequest)
	if !ok {
		return fmt.Errorf("session: unexpected %T from kernel", m)
	}
	linkErr := s.cfg.Loader.Load(req.Library)
	if err := s.send(types.LoadReply{Err: linkErr}); err != nil {
		return err
	}
	if linkErr != nil {
		s.cfg.Logger.Warn("program rejected", zap.String("link_error", linkErr.Error()))
		return nil
	}
	s.cfg.Logger.Info("program loaded", zap.Int("library_bytes", len(req.Library)))
	if err := s.lifecycle.Start(); err != nil {
		return err
	}
	s.cfg.Metrics.IncRunStarted()
	return nil
}

func (s *Session) handleClock(m types.Message) error {
	switch v := m.(type) {
	case types.NowInitRequest:
		s.clockReady = true
		return s.send(types.NowInitReply{Now: s.now})
	case types.NowSave:
		s.now = v.Now
		return nil
	case types.RtioInitRequest:
		s.rtioReady = true
		return nil
	default:
		return fmt.Errorf("session: unexpected %T from kernel", m)
	}
}

func (s *Session) handleRun(m types.Message) error {
	switch v := m.(type) {
	case types.RunFinished:
		if err := s.lifecycle.Finish(); err != nil {
			return err
		}
		s.cfg.Metrics.IncRunFinished()
		return nil
	case types.RunException:
		if err := s.lifecycle.RaiseException(v.Exception, v.Backtrace); err != nil {
			return err
		}
		s.cfg.Metrics.IncRunRaised()
		s.cfg.Logger.Warn("run raised",
			zap.String("exception", v.Exception.Name),
			zap.String("message", v.Exception.Render()),
		)
		return nil
	case types.RunAborted:
		if err := s.lifecycle.Abort(); err != nil {
			return err
		}
		s.cfg.Metrics.IncRunAborted()
		return nil
	default:
		return fmt.Errorf("session: unexpected %T from kernel", m)
	}
}

func (s *Session) handleWatchdog(m types.Message) error {
	switch v := m.(type) {
	case types.WatchdogSetRequest:
		id := s.watchdogs.Set(v.Millis)
		s.cfg.Metrics.IncWatchdogSet()
		return s.send(types.WatchdogSetReply{ID: id})
	case types.WatchdogClear:
		s.watchdogs.Clear(v.ID)
		return nil
	default:
		return fmt.Errorf("session: unexpected %T from kernel", m)
	}
}

func (s *Session) handleDrtio(m types.Message) error {
	switch v := m.(type) {
	case types.DrtioChannelStateRequest:
		state := s.cfg.Flow.ChannelState(v.Channel)
		return s.send(types.DrtioChannelStateReply{
			FifoSpace:     state.FifoSpace,
			LastTimestamp: state.LastTimestamp,
		})
	case types.DrtioResetChannelStateRequest:
		s.cfg.Flow.ResetChannel(v.Channel)
		return nil
	case types.DrtioGetFifoSpaceRequest:
		space := flow.DefaultFifoDepth
		if s.cfg.FifoSpaceQuery != nil {
			space = s.cfg.FifoSpaceQuery(v.Channel)
		}
		s.cfg.Flow.RefreshFifoSpace(v.Channel, space)
		state := s.cfg.Flow.ChannelState(v.Channel)
		return s.send(types.DrtioChannelStateReply{
			FifoSpace:     state.FifoSpace,
			LastTimestamp: state.LastTimestamp,
		})
	case types.DrtioPacketCountRequest:
		counters := s.cfg.Flow.Counters()
		return s.send(types.DrtioPacketCountReply{
			TxCount: counters.Tx,
			RxCount: counters.Rx,
		})
	case types.DrtioFifoSpaceReqCountRequest:
		counters := s.cfg.Flow.Counters()
		return s.send(types.DrtioFifoSpaceReqCountReply{Count: counters.FifoSpaceReq})
	default:
		return fmt.Errorf("session: unexpected %T from kernel", m)
	}
}

func (s *Session) handleRPC(m types.Message) error {
	switch v := m.(type) {
	case types.RpcSend:
		if s.pendingCall != nil {
			return fmt.Errorf("session: rpc send while a call is unresolved")
		}
		res, err := s.cfg.Registry.Invoke(s.ep.Arena(), v)
		if err != nil {
			return err
		}
		if res.Exc != nil {
			s.cfg.Metrics.IncRPCException()
		}
		if v.Async {
			// Fire-and-forget: the result is never delivered.
			s.cfg.Metrics.IncRPCAsync()
			return nil
		}
		s.cfg.Metrics.IncRPCSync()
		s.pendingCall = res
		return nil
	case types.RpcRecvRequest:
		if s.pendingCall == nil {
			return fmt.Errorf("session: rpc receive with no call pending")
		}
		reply, err := rpc.Deliver(s.ep.Arena(), v.Dest, s.pendingCall)
		if err != nil {
			return err
		}
		s.pendingCall = nil
		return s.send(reply)
	default:
		return fmt.Errorf("session: unexpected %T from kernel", m)
	}
}

func (s *Session) handleCache(ctx context.Context, m types.Message) error {
	switch v := m.(type) {
	case types.CacheGetRequest:
		value, err := s.cfg.Cache.Get(ctx, v.Key)
		if err != nil {
			return err
		}
		if len(value) > 0 {
			s.cfg.Metrics.IncCacheHit()
		} else {
			s.cfg.Metrics.IncCacheMiss()
		}
		return s.send(types.CacheGetReply{Value: value})
	case types.CachePutRequest:
		succeeded, err := s.cfg.Cache.Put(ctx, v.Key, v.Value)
		if err != nil {
			return err
		}
		return s.send(types.CachePutReply{Succeeded: succeeded})
	default:
		return fmt.Errorf("session: unexpected %T from kernel", m)
	}
}

func (s *Session) handleI2C(m types.Message) error {
	switch v := m.(type) {
	case types.I2cStartRequest:
		return s.cfg.Bus.Start(v.Bus)
	case types.I2cStopRequest:
		return s.cfg.Bus.Stop(v.Bus)
	case types.I2cWriteRequest:
		ack, err := s.cfg.Bus.Write(v.Bus, v.Data)
		if err != nil {
			return err
		}
		return s.send(types.I2cWriteReply{Ack: ack})
	case types.I2cReadRequest:
		data, err := s.cfg.Bus.Read(v.Bus, v.Ack)
		if err != nil {
			return err
		}
		return s.send(types.I2cReadReply{Data: data})
	default:
		return fmt.Errorf("session: unexpected %T from kernel", m)
	}
}
