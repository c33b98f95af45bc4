package arp

import (
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
)

const (
	ETH_HEADER_LEN = 14
	ARP_LEN        = 28
	FRAME_LEN      = ETH_HEADER_LEN + ARP_LEN
)

var ETH_BROADCAST = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
var ARP_UNKNOWN = net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrNotARP         = errors.New("not an arp frame")
)

type Operation uint16

const (
	OperationRequest Operation = Operation(layers.ARPRequest)
	OperationReply   Operation = Operation(layers.ARPReply)
)

func (o Operation) String() string {
	switch o {
	case OperationRequest:
		return "request"
	case OperationReply:
		return "reply"
	default:
		return "unknown"
	}
}

// Message 是解码后的 ARP 报文
type Message struct {
	HardwareType layers.LinkType     // 硬件类型
	ProtocolType layers.EthernetType // 协议类型
	Operation    Operation
	SenderMAC    net.HardwareAddr
	SenderIP     netip.Addr
	TargetMAC    net.HardwareAddr
	TargetIP     netip.Addr
}

var serializeOpts = gopacket.SerializeOptions{
	FixLengths:       true,
	ComputeChecksums: true,
}

// EncodeRequest builds the 42 byte broadcast who-has frame for dstIP. An
// error is only possible for a hardware address that is not 6 bytes long or
// for non IPv4 addresses.
func EncodeRequest(srcMac net.HardwareAddr, srcIP, dstIP netip.Addr) ([]byte, error) {
	if len(srcMac) != 6 {
		return nil, errors.Errorf("invalid source mac %q", srcMac)
	}
	if !srcIP.Is4() || !dstIP.Is4() {
		return nil, errors.Errorf("invalid ipv4 pair %s -> %s", srcIP, dstIP)
	}
	ethLayer := &layers.Ethernet{
		SrcMAC:       srcMac,
		DstMAC:       ETH_BROADCAST,
		EthernetType: layers.EthernetTypeARP,
	}
	srcAddr := srcIP.As4()
	dstAddr := dstIP.As4()
	arpLayer := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     0x6,
		ProtAddressSize:   0x4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   srcMac,
		SourceProtAddress: srcAddr[:],
		DstHwAddress:      ARP_UNKNOWN,
		DstProtAddress:    dstAddr[:],
	}
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, ethLayer, arpLayer); err != nil {
		return nil, errors.Wrap(err, "serialize arp request")
	}
	// gopacket 会补齐到 60 字节，截掉填充
	frame := make([]byte, FRAME_LEN)
	copy(frame, buf.Bytes())
	return frame, nil
}

// DecodeFrame parses an ethernet frame carrying an IPv4 over Ethernet ARP
// packet. Frames of another ethertype yield ErrNotARP, everything short or
// inconsistent yields ErrMalformedFrame.
func DecodeFrame(data []byte) (*Message, error) {
	if len(data) < FRAME_LEN {
		return nil, errors.Wrapf(ErrMalformedFrame, "frame length %d", len(data))
	}
	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, errors.Wrapf(ErrMalformedFrame, "ethernet: %v", err)
	}
	if eth.EthernetType != layers.EthernetTypeARP {
		return nil, errors.Wrapf(ErrNotARP, "ethertype %s", eth.EthernetType)
	}
	// 地址长度先于 gopacket 校验
	if len(eth.Payload) < ARP_LEN || eth.Payload[4] != 6 || eth.Payload[5] != 4 {
		return nil, errors.Wrapf(ErrMalformedFrame, "arp payload %d bytes", len(eth.Payload))
	}
	var arp layers.ARP
	if err := arp.DecodeFromBytes(eth.Payload, gopacket.NilDecodeFeedback); err != nil {
		return nil, errors.Wrapf(ErrMalformedFrame, "arp: %v", err)
	}
	if arp.AddrType != layers.LinkTypeEthernet || arp.Protocol != layers.EthernetTypeIPv4 ||
		arp.HwAddressSize != 6 || arp.ProtAddressSize != 4 {
		return nil, errors.Wrapf(ErrMalformedFrame, "arp header %s/%s %d/%d",
			arp.AddrType, arp.Protocol, arp.HwAddressSize, arp.ProtAddressSize)
	}
	op := Operation(arp.Operation)
	if op != OperationRequest && op != OperationReply {
		return nil, errors.Wrapf(ErrMalformedFrame, "arp operation %d", arp.Operation)
	}
	senderIP, _ := netip.AddrFromSlice(arp.SourceProtAddress)
	targetIP, _ := netip.AddrFromSlice(arp.DstProtAddress)
	return &Message{
		HardwareType: arp.AddrType,
		ProtocolType: arp.Protocol,
		Operation:    op,
		SenderMAC:    cloneMac(arp.SourceHwAddress),
		SenderIP:     senderIP,
		TargetMAC:    cloneMac(arp.DstHwAddress),
		TargetIP:     targetIP,
	}, nil
}

func cloneMac(b []byte) net.HardwareAddr {
	mac := make(net.HardwareAddr, len(b))
	copy(mac, b)
	return mac
}
