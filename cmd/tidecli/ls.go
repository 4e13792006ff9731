package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	storage "github.com/tidecloud/tidecloud-sdk-go"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

var lsPrefix string

var lsCmd = &cobra.Command{
	Use:   "ls [share] [directory]",
	Short: "List shares, or the contents of a share directory",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx := context.Background()
		if len(args) == 0 {
			return listShares(ctx, client)
		}

		dir := ""
		if len(args) == 2 {
			dir = args[1]
		}
		return listDirectory(ctx, client, args[0], dir)
	},
}

func listShares(ctx context.Context, client *storage.Client) error {
	marker := ""
	for {
		result, err := client.ListShares(ctx,
			storage.WithPrefix(lsPrefix),
			storage.WithMarker(marker),
		)
		if err != nil {
			return err
		}
		for _, share := range result.Shares {
			fmt.Printf("%-40s %4d GB\n", share.Name, share.QuotaGB)
		}
		if result.NextMarker == "" {
			return nil
		}
		marker = result.NextMarker
	}
}

func listDirectory(ctx context.Context, client *storage.Client, share, dir string) error {
	marker := ""
	for {
		result, err := client.ListDirectoriesAndFiles(ctx, share, dir,
			storage.WithPrefix(lsPrefix),
			storage.WithMarker(marker),
		)
		if err != nil {
			return err
		}
		printListing(result)
		if result.NextMarker == "" {
			return nil
		}
		marker = result.NextMarker
	}
}

func printListing(result *storagetypes.ListDirectoryResult) {
	for _, d := range result.Directories {
		fmt.Printf("%-40s <dir>\n", d.Name+"/")
	}
	for _, f := range result.Files {
		fmt.Printf("%-40s %d\n", f.Name, f.ContentLength)
	}
}

func init() {
	lsCmd.Flags().StringVar(&lsPrefix, "prefix", "", "filter names by prefix")
	rootCmd.AddCommand(lsCmd)
}
