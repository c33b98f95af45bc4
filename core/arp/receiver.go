package arp

import (
	"context"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/LanXuage/arpscanner/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Reply 是接收协程转发给调度器的 (IP, MAC) 对
type Reply struct {
	IP  netip.Addr       // 应答者IP
	MAC net.HardwareAddr // 应答者物理地址
	At  time.Time        // 收到时间
}

type ReceiverStats struct {
	Frames    uint64 // 读到的帧
	Malformed uint64 // 解码失败
	NotARP    uint64 // 非 ARP
	Requests  uint64 // ARP 请求
	Replies   uint64 // 已转发的应答
}

type Receiver struct {
	link    common.Link
	replies chan Reply
	ready   chan struct{}
	done    chan struct{}
	err     error

	frames    atomic.Uint64
	malformed atomic.Uint64
	notARP    atomic.Uint64
	requests  atomic.Uint64
	forwarded atomic.Uint64
}

func NewReceiver(link common.Link, size int) *Receiver {
	return &Receiver{
		link:    link,
		replies: make(chan Reply, size),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Ready is closed once the read loop is running.
func (r *Receiver) Ready() <-chan struct{} {
	return r.ready
}

// Done is closed when the read loop returned, after which Err is stable.
func (r *Receiver) Done() <-chan struct{} {
	return r.done
}

// Err is nil when the loop stopped because its context ended.
func (r *Receiver) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

func (r *Receiver) Replies() <-chan Reply {
	return r.replies
}

func (r *Receiver) Stats() ReceiverStats {
	return ReceiverStats{
		Frames:    r.frames.Load(),
		Malformed: r.malformed.Load(),
		NotARP:    r.notARP.Load(),
		Requests:  r.requests.Load(),
		Replies:   r.forwarded.Load(),
	}
}

// 接收协程
func (r *Receiver) Run(ctx context.Context) {
	defer close(r.done)
	close(r.ready)
	for {
		if ctx.Err() != nil {
			return
		}
		data, _, err := r.link.ReadPacketData()
		if err != nil {
			if errors.Is(err, common.ErrReadTimeout) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			logger.Error("ReadPacketData Failed", zap.Error(err))
			r.err = common.TransportError("receive", errors.Wrapf(common.ErrLinkRead, "%v", err))
			return
		}
		at := time.Now()
		r.frames.Add(1)
		msg, err := DecodeFrame(data)
		if err != nil {
			if errors.Is(err, ErrNotARP) {
				r.notARP.Add(1)
			} else {
				r.malformed.Add(1)
				logger.Debug("Skip frame", zap.Int("len", len(data)), zap.Error(err))
			}
			continue
		}
		if msg.Operation != OperationReply {
			r.requests.Add(1)
			continue
		}
		if ctx.Err() != nil {
			return
		}
		select {
		case r.replies <- Reply{IP: msg.SenderIP, MAC: msg.SenderMAC, At: at}:
			r.forwarded.Add(1)
		case <-ctx.Done():
			return
		}
	}
}
