//go:build !linux && !windows

package common

import "net/netip"

// Gateways is not implemented on this platform.
func Gateways() []netip.Addr {
	return []netip.Addr{}
}
