package arp_test

import (
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/LanXuage/arpscanner/common"
	"github.com/LanXuage/arpscanner/core/arp"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// fakeLink 模拟一条以太网链路：记录发出的帧，按需回包
type fakeLink struct {
	frames  chan []byte
	readErr chan error
	poll    time.Duration

	mu       sync.Mutex
	written  [][]byte
	closed   bool
	writeErr error
	respond  func(req []byte) [][]byte
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		frames:  make(chan []byte, 4096),
		readErr: make(chan error, 1),
		poll:    5 * time.Millisecond,
	}
}

func (l *fakeLink) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	select {
	case data := <-l.frames:
		return data, gopacket.CaptureInfo{Timestamp: time.Now(), CaptureLength: len(data), Length: len(data)}, nil
	case err := <-l.readErr:
		return nil, gopacket.CaptureInfo{}, err
	case <-time.After(l.poll):
		return nil, gopacket.CaptureInfo{}, common.ErrReadTimeout
	}
}

func (l *fakeLink) WritePacketData(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return l.writeErr
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	l.written = append(l.written, frame)
	if l.respond != nil {
		for _, reply := range l.respond(frame) {
			l.frames <- reply
		}
	}
	return nil
}

func (l *fakeLink) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func (l *fakeLink) Written() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte{}, l.written...)
}

func (l *fakeLink) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *fakeLink) Inject(frame []byte) {
	l.frames <- frame
}

func (l *fakeLink) InjectAfter(d time.Duration, frame []byte) {
	time.AfterFunc(d, func() {
		l.frames <- frame
	})
}

func (l *fakeLink) opener() common.LinkOpener {
	return func(name string) (common.Link, error) {
		return l, nil
	}
}

func mustMac(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}

var (
	localMac = mustMac("02:00:00:00:00:01")
	localIP  = netip.MustParseAddr("192.168.1.2")
)

func testIface() *common.InterfaceContext {
	return &common.InterfaceContext{
		Name:   "fake0",
		Index:  7,
		HWAddr: localMac,
		IP:     localIP,
		Prefix: netip.MustParsePrefix("192.168.1.0/24"),
		Up:     true,
	}
}

func buildARP(op uint16, srcMac net.HardwareAddr, srcIP netip.Addr, dstMac net.HardwareAddr, dstIP netip.Addr) []byte {
	src := srcIP.As4()
	dst := dstIP.As4()
	eth := &layers.Ethernet{
		SrcMAC:       srcMac,
		DstMAC:       dstMac,
		EthernetType: layers.EthernetTypeARP,
	}
	a := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         op,
		SourceHwAddress:   srcMac,
		SourceProtAddress: src[:],
		DstHwAddress:      dstMac,
		DstProtAddress:    dst[:],
	}
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, eth, a); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func buildReply(mac net.HardwareAddr, ip netip.Addr) []byte {
	return buildARP(layers.ARPReply, mac, ip, localMac, localIP)
}

func buildIPv4Frame() []byte {
	eth := &layers.Ethernet{
		SrcMAC:       mustMac("02:00:00:00:00:09"),
		DstMAC:       localMac,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(192, 168, 1, 9),
		DstIP:    net.IPv4(192, 168, 1, 2),
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, gopacket.Payload(make([]byte, 32))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// replyFor answers requests for ip with one reply per mac, in order.
func replyFor(ip netip.Addr, macs ...net.HardwareAddr) func(req []byte) [][]byte {
	return func(req []byte) [][]byte {
		msg, err := arp.DecodeFrame(req)
		if err != nil || msg.Operation != arp.OperationRequest || msg.TargetIP != ip {
			return nil
		}
		ret := [][]byte{}
		for _, mac := range macs {
			ret = append(ret, buildReply(mac, ip))
		}
		return ret
	}
}
