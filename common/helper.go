package common

import (
	"net"
	"net/netip"
)

// Fnv32 是 concurrent-map 以 netip.Addr 为键时的分片函数
func Fnv32(key netip.Addr) uint32 {
	hash := uint32(2166136261)
	const prime32 = uint32(16777619)
	d := key.AsSlice()
	keyLength := len(d)
	for i := 0; i < keyLength; i++ {
		hash *= prime32
		hash ^= uint32(d[i])
	}
	return hash
}

// Addr2Uint32 only accepts IPv4 (or IPv4-mapped) addresses.
func Addr2Uint32(addr netip.Addr) uint32 {
	ip := addr.Unmap().As4()
	var sum uint32
	sum += uint32(ip[0]) << 24
	sum += uint32(ip[1]) << 16
	sum += uint32(ip[2]) << 8
	return sum + uint32(ip[3])
}

func Uint322Addr(ipUint32 uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{
		byte((ipUint32 >> 24) & 0xff),
		byte((ipUint32 >> 16) & 0xff),
		byte((ipUint32 >> 8) & 0xff),
		byte(ipUint32 & 0xff),
	})
}

// PrefixBounds 返回 IPv4 前缀的网络地址与广播地址
func PrefixBounds(prefix netip.Prefix) (netip.Addr, netip.Addr) {
	prefix = prefix.Masked()
	first := Addr2Uint32(prefix.Addr())
	hostBits := 32 - prefix.Bits()
	last := first | uint32((uint64(1)<<hostBits)-1)
	return Uint322Addr(first), Uint322Addr(last)
}

// IPNet2Prefix converts an interface address to its masked IPv4 prefix and
// the address itself. ok is false for anything that is not IPv4.
func IPNet2Prefix(ipNet *net.IPNet) (netip.Addr, netip.Prefix, bool) {
	ip4 := ipNet.IP.To4()
	if ip4 == nil {
		return netip.Addr{}, netip.Prefix{}, false
	}
	ones, bits := ipNet.Mask.Size()
	if bits == 128 {
		// IPv4 address stored with a 16 byte mask
		ones -= 96
	}
	if ones < 0 || (bits != 32 && bits != 128) {
		return netip.Addr{}, netip.Prefix{}, false
	}
	addr, _ := netip.AddrFromSlice(ip4)
	prefix, err := addr.Prefix(ones)
	if err != nil {
		return netip.Addr{}, netip.Prefix{}, false
	}
	return addr, prefix, true
}

func appendUnique(addrs []netip.Addr, addr netip.Addr) []netip.Addr {
	for _, a := range addrs {
		if a == addr {
			return addrs
		}
	}
	return append(addrs, addr)
}

// GatewayIn 返回位于 prefix 内的第一个网关
func GatewayIn(prefix netip.Prefix, gateways []netip.Addr) (netip.Addr, bool) {
	if !prefix.IsValid() {
		return netip.Addr{}, false
	}
	for _, g := range gateways {
		if g.Is4() && prefix.Contains(g) {
			return g, true
		}
	}
	return netip.Addr{}, false
}
