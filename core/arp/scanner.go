package arp

import (
	"context"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/LanXuage/arpscanner/common"
	"github.com/LanXuage/arpscanner/common/constant"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type State uint32

const (
	StateIdle State = iota
	StateTargetsComputed
	StateListening
	StateRequesting
	StateCollecting
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTargetsComputed:
		return "targets-computed"
	case StateListening:
		return "listening"
	case StateRequesting:
		return "requesting"
	case StateCollecting:
		return "collecting"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Summary 是一次扫描的统计
type Summary struct {
	Targets   uint64        // 目标数
	Sent      uint64        // 已发送请求
	Hosts     int           // 结果条数
	Late      uint64        // 截止时间之后到达而被丢弃的应答
	Conflicts int           // 多个 Mac 应答的 IP 数
	Receiver  ReceiverStats // 接收统计
	Cost      time.Duration
}

type ARPScanner struct {
	iface   *common.InterfaceContext // 扫描接口快照
	timeout time.Duration            // 收集窗口
	bufSize int                      // 应答通道容量
	opener  common.LinkOpener        // 打开链路
	state   atomic.Uint32
	targets TargetRange
	summary Summary
	late    uint64
}

type Option func(*ARPScanner)

func WithTimeout(timeout time.Duration) Option {
	return func(a *ARPScanner) {
		if timeout > 0 {
			a.timeout = timeout
		}
	}
}

func WithBufferSize(size int) Option {
	return func(a *ARPScanner) {
		if size > 0 {
			a.bufSize = size
		}
	}
}

func WithLinkOpener(opener common.LinkOpener) Option {
	return func(a *ARPScanner) {
		if opener != nil {
			a.opener = opener
		}
	}
}

func NewARPScanner(iface *common.InterfaceContext, opts ...Option) *ARPScanner {
	a := &ARPScanner{
		iface:   iface,
		timeout: constant.COLLECT_TIMEOUT,
		bufSize: constant.CHANNEL_SIZE,
		opener:  common.OpenLink,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ARPScanner) State() State {
	return State(a.state.Load())
}

func (a *ARPScanner) setState(s State) {
	logger.Debug("State", zap.Stringer("from", a.State()), zap.Stringer("to", s))
	a.state.Store(uint32(s))
}

func (a *ARPScanner) Targets() TargetRange {
	return a.targets
}

// Summary is only meaningful once Scan returned.
func (a *ARPScanner) Summary() Summary {
	return a.summary
}

func (a *ARPScanner) computeTargets() error {
	if a.iface == nil {
		return common.ConfigError("", common.ErrInterfaceNotFound)
	}
	if err := a.iface.Validate(); err != nil {
		return err
	}
	targets, err := NewTargetRange(a.iface.Prefix)
	if err != nil {
		return common.ConfigError(a.iface.Name, err)
	}
	a.targets = targets
	a.setState(StateTargetsComputed)
	logger.Debug("Targets", zap.Stringer("prefix", targets.Prefix), zap.Stringer("first", targets.First),
		zap.Stringer("last", targets.Last), zap.Uint64("count", targets.Len()))
	return nil
}

func (a *ARPScanner) openLink() (common.Link, error) {
	link, err := a.opener(a.iface.Name)
	if err != nil {
		if common.IsTransportError(err) {
			return nil, err
		}
		return nil, common.TransportError(a.iface.Name, errors.Wrapf(common.ErrLinkOpen, "%v", err))
	}
	return link, nil
}

// Scan runs one scan: compute targets, listen, request every target, wait
// for the collection window and return the frozen result. Configuration
// errors are returned before the link is opened.
func (a *ARPScanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()
	if a.State() != StateIdle {
		return nil, errors.Errorf("scanner already used, state %s", a.State())
	}
	if err := a.computeTargets(); err != nil {
		return nil, err
	}
	link, err := a.openLink()
	if err != nil {
		return nil, err
	}
	defer link.Close()

	recvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	receiver := NewReceiver(link, a.bufSize)
	workers, err := ants.NewPoolWithFunc(1, func(i interface{}) {
		receiver.Run(i.(context.Context))
	})
	if err != nil {
		return nil, errors.Wrap(err, "create receiver pool")
	}
	defer workers.Release()
	if err := workers.Invoke(recvCtx); err != nil {
		return nil, errors.Wrap(err, "start receiver")
	}
	// 接收协程就绪之后才能发包
	select {
	case <-receiver.Ready():
	case <-ctx.Done():
		return nil, a.stop(cancel, receiver, ctx.Err())
	}
	a.setState(StateListening)

	result := NewResult()
	a.setState(StateRequesting)
	transmitter := NewTransmitter(link, a.iface)
	var sendErr error
	a.targets.Each(func(target netip.Addr) bool {
		select {
		case <-receiver.Done():
			sendErr = a.receiverFailure(ctx, receiver)
			return false
		case <-ctx.Done():
			sendErr = ctx.Err()
			return false
		default:
		}
		if err := transmitter.SendRequest(target); err != nil {
			sendErr = err
			return false
		}
		a.drain(result, receiver, time.Time{})
		return true
	})
	if sendErr != nil {
		return nil, a.stop(cancel, receiver, sendErr)
	}

	a.setState(StateCollecting)
	deadline := time.Now().Add(a.timeout)
	timer := time.NewTimer(a.timeout)
	defer timer.Stop()
L1:
	for {
		select {
		case reply := <-receiver.Replies():
			a.apply(result, reply, deadline)
		case <-timer.C:
			break L1
		case <-receiver.Done():
			return nil, a.stop(cancel, receiver, a.receiverFailure(ctx, receiver))
		case <-ctx.Done():
			return nil, a.stop(cancel, receiver, ctx.Err())
		}
	}

	cancel()
	<-receiver.Done()
	if err := receiver.Err(); err != nil {
		return nil, err
	}
	a.drain(result, receiver, deadline)
	result.Freeze()
	a.setState(StateFinalized)

	a.summary = Summary{
		Targets:   a.targets.Len(),
		Sent:      transmitter.Sent(),
		Hosts:     result.Len(),
		Late:      a.late,
		Conflicts: len(result.Conflicts()),
		Receiver:  receiver.Stats(),
		Cost:      time.Since(start),
	}
	logger.Info("Scan finished",
		zap.String("iface", a.iface.Name),
		zap.Stringer("prefix", a.targets.Prefix),
		zap.Uint64("targets", a.summary.Targets),
		zap.Uint64("sent", a.summary.Sent),
		zap.Int("hosts", a.summary.Hosts),
		zap.Uint64("late", a.summary.Late),
		zap.Int("conflicts", a.summary.Conflicts),
		zap.Uint64("malformed", a.summary.Receiver.Malformed),
		zap.Duration("cost", a.summary.Cost))
	if a.iface.Gateway.IsValid() {
		if mac, ok := result.Get(a.iface.Gateway); ok {
			logger.Debug("Gateway answered", zap.Stringer("gateway", a.iface.Gateway), zap.Stringer("mac", mac))
		} else {
			logger.Warn("Gateway did not answer", zap.Stringer("gateway", a.iface.Gateway))
		}
	}
	return result, nil
}

// drain applies every reply already queued without waiting for more.
func (a *ARPScanner) drain(result *Result, receiver *Receiver, deadline time.Time) {
	for {
		select {
		case reply := <-receiver.Replies():
			a.apply(result, reply, deadline)
		default:
			return
		}
	}
}

func (a *ARPScanner) apply(result *Result, reply Reply, deadline time.Time) {
	if !deadline.IsZero() && reply.At.After(deadline) {
		a.late++
		logger.Debug("Late reply dropped", zap.Stringer("ip", reply.IP), zap.Stringer("mac", reply.MAC))
		return
	}
	result.Set(reply.IP, reply.MAC)
}

func (a *ARPScanner) receiverFailure(ctx context.Context, receiver *Receiver) error {
	if err := receiver.Err(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return common.TransportError(a.iface.Name, common.ErrReceiverClosed)
}

// stop cancels the receiver, waits for it and returns err.
func (a *ARPScanner) stop(cancel context.CancelFunc, receiver *Receiver, err error) error {
	cancel()
	<-receiver.Done()
	a.setState(StateFinalized)
	return err
}
