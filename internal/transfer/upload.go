package transfer

import (
	"context"
	"fmt"
	"io"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/chunk"
	"github.com/tidecloud/tidecloud-sdk-go/internal/pool"
	"github.com/tidecloud/tidecloud-sdk-go/internal/progress"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// Upload drives one chunked upload: it creates the remote resource, pulls
// chunks from src, submits one range write per chunk to a bounded executor,
// and finalizes the resource's properties once every write has committed.
//
// Exactly one of the two outcomes is returned per call: the finalized
// properties, or the first fatal error seen (create failure, chunk-read
// failure, the first failed range write, or finalize failure). On failure the
// remote resource may be left partially written; the engine performs no
// compensating cleanup.
func Upload(
	ctx context.Context,
	w RangeWriter,
	src chunk.Source,
	alloc *pool.BufferPool,
	tracker *progress.Tracker,
	cfg Config,
) (Properties, error) {
	cfg = cfg.WithDefaults()

	// Range-size validation happens before any network call.
	if cfg.ChunkSize > storagetypes.MaxRangeSize {
		err := errors.NewError("upload", errors.ErrRangeTooLarge).
			WithMessage(fmt.Sprintf("chunk size %d exceeds maximum range size %d",
				cfg.ChunkSize, storagetypes.MaxRangeSize))
		tracker.Fail(err)
		return Properties{}, err
	}

	if !cfg.SkipCreate {
		if err := w.Create(ctx, src.Size()); err != nil {
			tracker.Fail(err)
			return Properties{}, err
		}
	}

	ex := NewExecutor(cfg.Parallelism)
	produceChunks(ctx, w, src, alloc, tracker, cfg, ex)

	if err := ex.Wait(); err != nil {
		tracker.Fail(err)
		return Properties{}, err
	}

	contentMD5 := ""
	if cfg.StoreContentMD5 {
		contentMD5 = cfg.ContentMD5
		if contentMD5 == "" {
			contentMD5 = src.ContentMD5()
		}
	}

	props, err := w.Finalize(ctx, contentMD5)
	if err != nil {
		tracker.Fail(err)
		return Properties{}, err
	}

	tracker.Complete()
	return props, nil
}

// produceChunks reads chunks in order and submits their range writes.
// Production stops at end of stream, on a chunk-read failure (recorded as the
// session's fatal error), or as soon as the executor refuses a submission
// because an earlier operation failed.
func produceChunks(
	ctx context.Context,
	w RangeWriter,
	src chunk.Source,
	alloc *pool.BufferPool,
	tracker *progress.Tracker,
	cfg Config,
	ex *Executor,
) {
	for {
		buf, err := alloc.Acquire(ctx)
		if err != nil {
			ex.Fail(err)
			return
		}

		c, err := src.Next(buf)
		if err == io.EOF {
			alloc.Release(buf)
			return
		}
		if err != nil {
			// A producer error ends the stream; in-flight writes drain.
			alloc.Release(buf)
			ex.Fail(err)
			return
		}

		// A skipped all-zero chunk is never transmitted but still counts
		// toward progress; the running whole-object hash already covered
		// its bytes inside the source.
		if c.AllZero && src.SkipsZeroChunks() {
			n := int64(len(c.Data))
			alloc.Release(buf)
			tracker.Add(n)
			continue
		}

		var transactionalMD5 string
		if cfg.UseTransactionalMD5 {
			transactionalMD5 = md5Base64(c.Data)
		}

		err = ex.Submit(ctx, func(ctx context.Context) error {
			defer alloc.Release(buf)
			if err := w.WriteRange(ctx, c.Offset, c.Data, transactionalMD5); err != nil {
				return err
			}
			tracker.Add(int64(len(c.Data)))
			return nil
		})
		if err != nil {
			// Refused: an earlier operation already failed, or the
			// context is gone. The chunk was never handed off.
			alloc.Release(buf)
			return
		}
	}
}
