package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/LanXuage/arpscanner/common"
	"github.com/LanXuage/arpscanner/common/constant"
	"github.com/LanXuage/arpscanner/core/arp"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	scanCmd = &cobra.Command{
		Use:   "scan [interface]",
		Short: "Scan the subnet attached to an interface",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := common.GetLogger()
			iface, err := selectInterface(cmd, args)
			if err != nil {
				return err
			}
			timeout, _ := cmd.Flags().GetInt64("timeout")
			bufSize, _ := cmd.Flags().GetInt("buffer")
			output, _ := cmd.Flags().GetString("output")
			logger.Debug("runE", zap.String("iface", iface.Name), zap.Int64("timeout", timeout), zap.Int("buffer", bufSize), zap.String("output", output))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Using interface: %s (%s %s)\n\n", iface.Name, iface.HWAddr, iface.Prefix)
			start := time.Now()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			scanner := arp.NewARPScanner(iface,
				arp.WithTimeout(time.Millisecond*time.Duration(timeout)),
				arp.WithBufferSize(bufSize))
			result, err := scanner.Scan(ctx)
			if err != nil {
				return err
			}
			WriteTable(out, result)
			if output != "" {
				if err := WriteCSV(output, result); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Cost: %v\n", time.Since(start))
			return nil
		},
	}
)

// selectInterface resolves exactly one of --interface, --index or the
// positional name.
func selectInterface(cmd *cobra.Command, args []string) (*common.InterfaceContext, error) {
	name, _ := cmd.Flags().GetString("interface")
	byIndex := cmd.Flags().Changed("index")
	if len(args) == 1 {
		if name != "" || byIndex {
			return nil, common.ConfigError("scan", common.ErrInvalidSelector)
		}
		name = args[0]
	}
	switch {
	case name != "" && byIndex:
		return nil, common.ConfigError("scan", common.ErrInvalidSelector)
	case name != "":
		return common.GetInterfaceByName(name)
	case byIndex:
		index, _ := cmd.Flags().GetInt("index")
		return common.GetInterfaceByIndex(index)
	default:
		return nil, common.ConfigError("scan", common.ErrInvalidSelector)
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("interface", "i", "", "name of the interface to scan from")
	scanCmd.Flags().IntP("index", "n", 0, "index of the interface to scan from")
	scanCmd.Flags().StringP("output", "o", "", "also write the result to this CSV file")
	scanCmd.Flags().Int("buffer", constant.CHANNEL_SIZE, "reply channel capacity")
	scanCmd.MarkFlagsMutuallyExclusive("interface", "index")
}
