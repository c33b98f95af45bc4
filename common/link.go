package common

import (
	"time"

	"github.com/LanXuage/arpscanner/common/constant"
	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Link is a raw ethernet link. The read side and the write side may be used
// from two different goroutines at the same time.
type Link interface {
	gopacket.PacketDataSource
	WritePacketData(data []byte) error
	Close()
}

// LinkOpener opens the raw link of the named interface.
type LinkOpener func(name string) (Link, error)

type pcapLink struct {
	handle *pcap.Handle // 接口pcap句柄
}

func (l *pcapLink) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	data, ci, err := l.handle.ReadPacketData()
	if err == pcap.NextErrorTimeoutExpired {
		return nil, ci, ErrReadTimeout
	}
	return data, ci, err
}

func (l *pcapLink) WritePacketData(data []byte) error {
	return l.handle.WritePacketData(data)
}

func (l *pcapLink) Close() {
	l.handle.Close()
}

func openHandle(name string) (*pcap.Handle, error) {
	handle, err := pcap.OpenLive(name, constant.SNAPLEN, true, constant.READ_TIMEOUT)
	if err != nil {
		return nil, err
	}
	if err := handle.SetBPFFilter(constant.BPF_FILTER); err != nil {
		handle.Close()
		return nil, err
	}
	return handle, nil
}

// OpenLink opens a pcap backed link filtered to ARP traffic. Opening is the
// only step that is retried.
func OpenLink(name string) (Link, error) {
	var lastErr error
	for i := 0; i < constant.LINK_OPEN_TIMES; i++ {
		if i > 0 {
			time.Sleep(constant.LINK_OPEN_BACKOFF)
		}
		handle, err := openHandle(name)
		if err == nil {
			logger.Debug("Link opened", zap.String("iface", name), zap.Int("attempt", i+1))
			return &pcapLink{handle: handle}, nil
		}
		lastErr = err
		logger.Error("Open link failed", zap.String("iface", name), zap.Int("attempt", i+1), zap.Error(err))
	}
	return nil, TransportError(name, errors.Wrapf(ErrLinkOpen, "%v", lastErr))
}
