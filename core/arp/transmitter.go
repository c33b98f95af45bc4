package arp

import (
	"net/netip"

	"github.com/LanXuage/arpscanner/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Transmitter struct {
	link  common.Link
	iface *common.InterfaceContext
	sent  uint64
}

func NewTransmitter(link common.Link, iface *common.InterfaceContext) *Transmitter {
	return &Transmitter{link: link, iface: iface}
}

// ARP发包
func (t *Transmitter) SendRequest(target netip.Addr) error {
	frame, err := EncodeRequest(t.iface.HWAddr, t.iface.IP, target)
	if err != nil {
		return common.ConfigError(t.iface.Name, err)
	}
	if err := t.link.WritePacketData(frame); err != nil {
		logger.Error("WritePacketData Failed", zap.Stringer("target", target), zap.Error(err))
		return common.TransportError(t.iface.Name, errors.Wrapf(common.ErrLinkWrite, "%s: %v", target, err))
	}
	t.sent++
	return nil
}

func (t *Transmitter) Sent() uint64 {
	return t.sent
}
