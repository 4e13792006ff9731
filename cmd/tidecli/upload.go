package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	storage "github.com/tidecloud/tidecloud-sdk-go"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

var uploadMD5 bool
var uploadTransactionalMD5 bool
var uploadContentType string

var uploadCmd = &cobra.Command{
	Use:   "upload <share> <remote-path> <local-file>",
	Short: "Upload a local file to a share",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		opts := []storagetypes.UploadOption{
			storage.WithProgress(&logProgress{label: args[2]}),
		}
		if uploadMD5 {
			opts = append(opts, storage.WithStoreContentMD5(true))
		}
		if uploadTransactionalMD5 {
			opts = append(opts, storage.WithTransactionalMD5(true))
		}
		if uploadContentType != "" {
			opts = append(opts, storage.WithContentType(uploadContentType))
		}

		result, err := client.UploadFile(context.Background(), args[0], args[1], args[2], opts...)
		if err != nil {
			return err
		}

		fmt.Printf("uploaded %s (%d bytes in %s)\n", args[1], result.Size, result.Duration.Round(timeUnit))
		if result.ContentMD5 != "" {
			fmt.Printf("content-md5: %s\n", result.ContentMD5)
		}
		return nil
	},
}

var uploadDirCmd = &cobra.Command{
	Use:   "upload-dir <share> <local-dir> [remote-prefix]",
	Short: "Upload a local directory tree to a share",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		prefix := ""
		if len(args) == 3 {
			prefix = args[2]
		}

		result, err := client.UploadDirectory(context.Background(), args[0], args[1], prefix)
		if err != nil {
			return err
		}

		fmt.Printf("uploaded %d files, %d bytes in %s\n",
			result.FilesUploaded, result.BytesUploaded, result.Duration.Round(timeUnit))
		for _, fileErr := range result.Errors {
			logger.WithField("path", fileErr.LocalPath).Error(fileErr.Err)
		}
		if len(result.Errors) > 0 {
			return fmt.Errorf("%d files failed", len(result.Errors))
		}
		return nil
	},
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadMD5, "md5", false, "compute and store a whole-object MD5")
	uploadCmd.Flags().BoolVar(&uploadTransactionalMD5, "transactional-md5", false, "verify each range write with a per-range MD5")
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "content type (detected from the file when empty)")
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(uploadDirCmd)
}
