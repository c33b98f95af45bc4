package arp

import (
	"bytes"
	"net"
	"net/netip"
	"sort"
	"sync/atomic"

	"github.com/LanXuage/arpscanner/common"
	mapset "github.com/deckarep/golang-set"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"
)

type Host struct {
	IP  netip.Addr       `json:"host"` // 结果IP
	Mac net.HardwareAddr `json:"mac"`  // 结果物理地址
}

// Result maps each answering IPv4 address to the hardware address of the
// last reply processed for it. It stops accepting writes once frozen.
type Result struct {
	ahMap     cmap.ConcurrentMap[netip.Addr, net.HardwareAddr] // IP <-> Mac 映射表
	conflicts mapset.Set                                       // 出现过多个 Mac 的 IP
	frozen    atomic.Bool
}

func NewResult() *Result {
	return &Result{
		ahMap:     cmap.NewWithCustomShardingFunction[netip.Addr, net.HardwareAddr](common.Fnv32),
		conflicts: mapset.NewSet(),
	}
}

// Set records ip -> mac, replacing any earlier entry. It reports false when
// the result is already frozen.
func (r *Result) Set(ip netip.Addr, mac net.HardwareAddr) bool {
	if r.frozen.Load() {
		return false
	}
	r.ahMap.Upsert(ip, mac, func(exist bool, oldMac net.HardwareAddr, newMac net.HardwareAddr) net.HardwareAddr {
		if exist && !bytes.Equal(oldMac, newMac) {
			r.conflicts.Add(ip)
			logger.Debug("Conflicting reply", zap.Stringer("ip", ip), zap.Stringer("old", oldMac), zap.Stringer("new", newMac))
		}
		return newMac
	})
	return true
}

func (r *Result) Get(ip netip.Addr) (net.HardwareAddr, bool) {
	return r.ahMap.Get(ip)
}

func (r *Result) Len() int {
	return r.ahMap.Count()
}

func (r *Result) Freeze() {
	r.frozen.Store(true)
}

func (r *Result) Frozen() bool {
	return r.frozen.Load()
}

// Hosts returns the entries ordered by ascending address.
func (r *Result) Hosts() []Host {
	hosts := make([]Host, 0, r.ahMap.Count())
	for ip, mac := range r.ahMap.Items() {
		hosts = append(hosts, Host{IP: ip, Mac: mac})
	}
	sort.Slice(hosts, func(i, j int) bool {
		return hosts[i].IP.Less(hosts[j].IP)
	})
	return hosts
}

// Conflicts lists the addresses answered by more than one hardware address.
func (r *Result) Conflicts() []netip.Addr {
	ret := make([]netip.Addr, 0, r.conflicts.Cardinality())
	r.conflicts.Each(func(item interface{}) bool {
		ret = append(ret, item.(netip.Addr))
		return false
	})
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Less(ret[j])
	})
	return ret
}
