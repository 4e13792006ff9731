package storage

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/validation"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// UploadDirectory uploads a local directory tree to a share. Each regular
// file is uploaded under remotePrefix with its path relative to localDir,
// using forward slashes. Files are uploaded concurrently on a goroutine pool
// sized by the client's parallelism; per-file failures are collected in the
// result rather than aborting the batch, but a cancelled context stops
// scheduling new files.
func (c *Client) UploadDirectory(
	ctx context.Context,
	share, localDir, remotePrefix string,
	opts ...storagetypes.UploadOption,
) (*storagetypes.BatchResult, error) {
	if err := validation.ValidateShareName(share); err != nil {
		return nil, err
	}

	startTime := time.Now()

	workers := c.Parallelism()
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errors.NewShareError("uploadDirectory", share, err)
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result = &storagetypes.BatchResult{}
	)

	walkErr := filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		remotePath := filepath.ToSlash(rel)
		if remotePrefix != "" {
			remotePath = strings.TrimSuffix(remotePrefix, "/") + "/" + remotePath
		}

		localPath := path
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			uploaded, uploadErr := c.UploadFile(ctx, share, remotePath, localPath, opts...)

			mu.Lock()
			defer mu.Unlock()
			if uploadErr != nil {
				result.Errors = append(result.Errors, storagetypes.BatchError{
					LocalPath:  localPath,
					RemotePath: remotePath,
					Err:        uploadErr,
				})
				return
			}
			result.FilesUploaded++
			result.BytesUploaded += uploaded.Size
		})
		if submitErr != nil {
			wg.Done()
			return submitErr
		}
		return nil
	})

	wg.Wait()

	if walkErr != nil {
		return nil, errors.NewShareError("uploadDirectory", share, walkErr)
	}

	result.Duration = time.Since(startTime)
	return result, nil
}
