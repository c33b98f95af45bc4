package arp

import (
	"net/netip"

	"github.com/LanXuage/arpscanner/common"
	"github.com/pkg/errors"
)

// TargetRange is the inclusive range of IPv4 addresses requested during a
// scan. For prefixes up to /30 the network and broadcast addresses are left
// out, a /31 keeps both of its addresses and a /32 is the single address.
type TargetRange struct {
	Prefix netip.Prefix
	First  netip.Addr
	Last   netip.Addr
}

func NewTargetRange(prefix netip.Prefix) (TargetRange, error) {
	if !prefix.IsValid() || !prefix.Addr().Is4() {
		return TargetRange{}, errors.Wrapf(common.ErrNoIPv4Address, "prefix %s", prefix)
	}
	prefix = prefix.Masked()
	first, last := common.PrefixBounds(prefix)
	if prefix.Bits() <= 30 {
		first = first.Next()
		last = last.Prev()
	}
	return TargetRange{
		Prefix: prefix,
		First:  first,
		Last:   last,
	}, nil
}

func (t TargetRange) Len() uint64 {
	if !t.First.IsValid() {
		return 0
	}
	return uint64(common.Addr2Uint32(t.Last)) - uint64(common.Addr2Uint32(t.First)) + 1
}

func (t TargetRange) Contains(addr netip.Addr) bool {
	if !addr.Is4() || !t.First.IsValid() {
		return false
	}
	return t.First.Compare(addr) <= 0 && addr.Compare(t.Last) <= 0
}

// Each calls fn for every target in ascending order until fn returns false.
func (t TargetRange) Each(fn func(addr netip.Addr) bool) {
	if !t.First.IsValid() {
		return
	}
	for addr := t.First; ; addr = addr.Next() {
		if !fn(addr) || addr == t.Last {
			return
		}
	}
}

// All materializes the range. Meant for small prefixes and tests.
func (t TargetRange) All() []netip.Addr {
	ret := make([]netip.Addr, 0, t.Len())
	t.Each(func(addr netip.Addr) bool {
		ret = append(ret, addr)
		return true
	})
	return ret
}
