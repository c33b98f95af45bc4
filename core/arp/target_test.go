package arp_test

import (
	"fmt"
	"net/netip"
	"testing"

	"github.com/LanXuage/arpscanner/common"
	"github.com/LanXuage/arpscanner/core/arp"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func addrStrings(all []netip.Addr) []string {
	ret := []string{}
	for _, addr := range all {
		ret = append(ret, addr.String())
	}
	return ret
}

func TestTargetRange24(t *testing.T) {
	targets, err := arp.NewTargetRange(netip.MustParsePrefix("192.168.1.77/24"))
	assert.NilError(t, err)
	assert.Check(t, is.Equal(targets.Prefix.String(), "192.168.1.0/24"))
	assert.Check(t, is.Equal(targets.First.String(), "192.168.1.1"))
	assert.Check(t, is.Equal(targets.Last.String(), "192.168.1.254"))
	assert.Check(t, is.Equal(targets.Len(), uint64(254)))
	assert.Check(t, targets.Contains(netip.MustParseAddr("192.168.1.77")))
	assert.Check(t, !targets.Contains(netip.MustParseAddr("192.168.1.0")))
	assert.Check(t, !targets.Contains(netip.MustParseAddr("192.168.1.255")))
	assert.Check(t, !targets.Contains(netip.MustParseAddr("192.168.2.1")))

	all := targets.All()
	assert.Check(t, is.Len(all, 254))
	for i := 1; i < len(all); i++ {
		assert.Check(t, all[i-1].Less(all[i]))
	}
}

func TestTargetRangeCardinality(t *testing.T) {
	for bits := 1; bits <= 32; bits++ {
		prefix := netip.PrefixFrom(netip.MustParseAddr("10.0.0.0"), bits)
		targets, err := arp.NewTargetRange(prefix)
		assert.NilError(t, err)
		var want uint64
		switch {
		case bits == 32:
			want = 1
		case bits == 31:
			want = 2
		default:
			want = (uint64(1) << (32 - bits)) - 2
		}
		assert.Check(t, is.Equal(targets.Len(), want), fmt.Sprintf("/%d", bits))
	}
}

func TestTargetRangeSmallPrefixes(t *testing.T) {
	cases := map[string][]string{
		"192.168.1.4/30":  {"192.168.1.5", "192.168.1.6"},
		"192.168.1.4/31":  {"192.168.1.4", "192.168.1.5"},
		"192.168.1.4/32":  {"192.168.1.4"},
		"192.168.1.16/29": {"192.168.1.17", "192.168.1.18", "192.168.1.19", "192.168.1.20", "192.168.1.21", "192.168.1.22"},
	}
	for s, want := range cases {
		targets, err := arp.NewTargetRange(netip.MustParsePrefix(s))
		assert.NilError(t, err)
		assert.Check(t, is.DeepEqual(addrStrings(targets.All()), want), s)
	}
}

func TestTargetRangeEachStops(t *testing.T) {
	targets, err := arp.NewTargetRange(netip.MustParsePrefix("10.1.0.0/16"))
	assert.NilError(t, err)
	count := 0
	targets.Each(func(addr netip.Addr) bool {
		count++
		return count < 10
	})
	assert.Check(t, is.Equal(count, 10))
}

func TestTargetRangeRejectsIPv6(t *testing.T) {
	_, err := arp.NewTargetRange(netip.MustParsePrefix("fe80::/64"))
	assert.Check(t, is.ErrorIs(err, common.ErrNoIPv4Address))
	_, err = arp.NewTargetRange(netip.Prefix{})
	assert.Check(t, is.ErrorIs(err, common.ErrNoIPv4Address))
}
