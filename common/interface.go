package common

import (
	"net"
	"net/netip"
	"sort"

	"github.com/google/gopacket/pcap"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// InterfaceContext 是扫描开始时对接口的一次性快照
type InterfaceContext struct {
	Name        string           // 接口名称
	Index       int              // 接口索引
	HWAddr      net.HardwareAddr // 接口物理地址
	IP          netip.Addr       // 接口IPv4地址
	Prefix      netip.Prefix     // 接口所在子网
	Loopback    bool             // 是否回环接口
	Up          bool             // 是否启用
	Gateway     netip.Addr       // 子网内的网关，可能为空
	Description string           // pcap 设备描述
}

func (i *InterfaceContext) HasIPv4() bool {
	return i.IP.IsValid() && i.IP.Is4() && i.Prefix.IsValid()
}

// Validate reports the configuration errors that forbid scanning from i.
func (i *InterfaceContext) Validate() error {
	if i.Loopback {
		return ConfigError(i.Name, ErrLoopbackInterface)
	}
	if !i.HasIPv4() {
		return ConfigError(i.Name, ErrNoIPv4Address)
	}
	if len(i.HWAddr) != 6 {
		return ConfigError(i.Name, ErrNotEthernet)
	}
	return nil
}

func newInterfaceContext(iface net.Interface, gateways []netip.Addr) *InterfaceContext {
	ifc := &InterfaceContext{
		Name:     iface.Name,
		Index:    iface.Index,
		HWAddr:   iface.HardwareAddr,
		Loopback: iface.Flags&net.FlagLoopback != 0,
		Up:       iface.Flags&net.FlagUp != 0,
	}
	addrs, err := iface.Addrs()
	if err != nil {
		logger.Error("Interface addrs failed", zap.String("iface", iface.Name), zap.Error(err))
		return ifc
	}
	// 只取第一个IPv4地址
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ip, prefix, ok := IPNet2Prefix(ipNet); ok {
			ifc.IP = ip
			ifc.Prefix = prefix
			ifc.Gateway, _ = GatewayIn(prefix, gateways)
			break
		}
	}
	return ifc
}

func GetInterfaceByName(name string) (*InterfaceContext, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		logger.Debug("InterfaceByName failed", zap.String("name", name), zap.Error(err))
		return nil, ConfigError(name, ErrInterfaceNotFound)
	}
	return newInterfaceContext(*iface, Gateways()), nil
}

func GetInterfaceByIndex(index int) (*InterfaceContext, error) {
	iface, err := net.InterfaceByIndex(index)
	if err != nil {
		logger.Debug("InterfaceByIndex failed", zap.Int("index", index), zap.Error(err))
		return nil, ConfigError("", errors.Wrapf(ErrInterfaceNotFound, "index %d", index))
	}
	return newInterfaceContext(*iface, Gateways()), nil
}

// ListInterfaces enumerates every interface of the host, sorted by index,
// including the ones that cannot be scanned.
func ListInterfaces() ([]InterfaceContext, error) {
	ifs, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(err, "list interfaces")
	}
	descriptions := map[string]string{}
	devs, err := pcap.FindAllDevs()
	if err != nil {
		logger.Error("FindAllDevs failed", zap.Error(err))
	}
	for _, dev := range devs {
		descriptions[dev.Name] = dev.Description
	}
	gateways := Gateways()
	ret := make([]InterfaceContext, 0, len(ifs))
	for _, iface := range ifs {
		ifc := newInterfaceContext(iface, gateways)
		ifc.Description = descriptions[iface.Name]
		ret = append(ret, *ifc)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Index < ret[j].Index
	})
	return ret, nil
}
