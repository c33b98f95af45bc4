package cmd

import (
	"fmt"
	"io"
	"net/netip"
	"text/tabwriter"

	"github.com/LanXuage/arpscanner/common"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	listItemFmt = "%d\t%s\t%s\t%s\t%s\t%s\n"
)

var (
	listCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the network interfaces",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ifaces, err := common.ListInterfaces()
			if err != nil {
				return err
			}
			PrintInterfaces(cmd.OutOrStdout(), ifaces)
			return nil
		},
	}
)

// PrintInterfaces writes one line per interface. The STATUS column tells
// whether a scan from that interface would be accepted.
func PrintInterfaces(out io.Writer, ifaces []common.InterfaceContext) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "INDEX\tNAME\tMAC\tSUBNET\tGATEWAY\tSTATUS\n")
	for _, iface := range ifaces {
		fmt.Fprintf(w, listItemFmt,
			iface.Index,
			iface.Name,
			orDash(iface.HWAddr.String()),
			orDash(prefixString(iface)),
			orDash(gatewayString(iface)),
			ifaceStatus(iface))
	}
	w.Flush()
}

func ifaceStatus(iface common.InterfaceContext) string {
	err := iface.Validate()
	switch {
	case errors.Is(err, common.ErrLoopbackInterface):
		return "loopback"
	case errors.Is(err, common.ErrNoIPv4Address):
		return "no ipv4"
	case errors.Is(err, common.ErrNotEthernet):
		return "not ethernet"
	}
	if !iface.Up {
		return "down"
	}
	return "ok"
}

func prefixString(iface common.InterfaceContext) string {
	if !iface.HasIPv4() {
		return ""
	}
	return netip.PrefixFrom(iface.IP, iface.Prefix.Bits()).String()
}

func gatewayString(iface common.InterfaceContext) string {
	if !iface.Gateway.IsValid() {
		return ""
	}
	return iface.Gateway.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(listCmd)
}
