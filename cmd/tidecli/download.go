package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	storage "github.com/tidecloud/tidecloud-sdk-go"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// timeUnit is the rounding applied to durations printed by commands.
const timeUnit = 10 * time.Millisecond

var downloadRangeStart int64
var downloadRangeEnd int64
var downloadNoVerify bool

var downloadCmd = &cobra.Command{
	Use:   "download <share> <remote-path> <local-file>",
	Short: "Download a file from a share",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		opts := []storagetypes.DownloadOption{
			storage.WithDownloadProgress(&logProgress{label: args[1]}),
		}
		if cmd.Flags().Changed("range-start") || cmd.Flags().Changed("range-end") {
			if !cmd.Flags().Changed("range-end") {
				opts = append(opts, storage.WithRangeFrom(downloadRangeStart))
			} else {
				opts = append(opts, storage.WithRange(downloadRangeStart, downloadRangeEnd))
			}
		}
		if downloadNoVerify {
			opts = append(opts, storage.WithDisableContentMD5Validation(true))
		}

		result, err := client.DownloadFile(context.Background(), args[0], args[1], args[2], opts...)
		if err != nil {
			return err
		}

		fmt.Printf("downloaded %s (%d bytes in %s)\n", args[2], result.Size, result.Duration.Round(timeUnit))
		return nil
	},
}

func init() {
	downloadCmd.Flags().Int64Var(&downloadRangeStart, "range-start", 0, "first byte of the range to download")
	downloadCmd.Flags().Int64Var(&downloadRangeEnd, "range-end", 0, "last byte (inclusive) of the range to download")
	downloadCmd.Flags().BoolVar(&downloadNoVerify, "no-verify", false, "skip per-range MD5 verification")
	rootCmd.AddCommand(downloadCmd)
}

// logProgress reports transfer progress through the CLI logger.
// Updates arrive from multiple goroutines during parallel transfers.
type logProgress struct {
	mu          sync.Mutex
	label       string
	lastPercent int
}

func (p *logProgress) Update(transferred, total int64) {
	if total <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	percent := int(float64(transferred) / float64(total) * 100)
	// Log at 10% steps to keep output readable.
	if percent/10 > p.lastPercent/10 || percent == 100 && p.lastPercent != 100 {
		logger.WithField("progress", fmt.Sprintf("%d%%", percent)).Info(p.label)
	}
	p.lastPercent = percent
}

func (p *logProgress) Complete() {
	logger.WithField("progress", "done").Info(p.label)
}

func (p *logProgress) Error(err error) {
	logger.WithField("label", p.label).Error(err)
}
