//go:build linux

package common

import (
	"net/netip"
	"syscall"

	"go.uber.org/zap"
)

// Gateways 通过 netlink 读取 IPv4 路由表中的网关
func Gateways() []netip.Addr {
	ret := []netip.Addr{}
	netlinks, err := syscall.NetlinkRIB(syscall.RTM_GETROUTE, syscall.AF_INET)
	if err != nil {
		logger.Error("NetlinkRIB failed", zap.Error(err))
		return ret
	}
	nmsg, err := syscall.ParseNetlinkMessage(netlinks)
	if err != nil {
		logger.Error("ParseNetlinkMsg failed", zap.Int("len", len(netlinks)), zap.Error(err))
		return ret
	}
	for _, m := range nmsg {
		if m.Header.Type != syscall.RTM_NEWROUTE {
			continue
		}
		attrs, err := syscall.ParseNetlinkRouteAttr(&m)
		if err != nil {
			logger.Debug("ParseNetlinkRouteAttr failed", zap.Error(err))
			continue
		}
		for _, attr := range attrs {
			if attr.Attr.Type == syscall.RTA_GATEWAY {
				if g, ok := netip.AddrFromSlice(attr.Value); ok {
					ret = appendUnique(ret, g.Unmap())
				}
			}
		}
	}
	return ret
}
