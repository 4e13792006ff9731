package transfer

import (
	"context"
	"fmt"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/progress"
)

// Download drives one chunked download: it splits [start, start+length) into
// chunk-size ranges, reads them with bounded concurrency, and assembles them
// into dst via positional writes. Completion order is unordered; dst must
// tolerate out-of-order WriteAt calls.
//
// When per-range MD5 is requested and validation has not been disabled,
// every range read is verified against the service's per-range MD5. A
// mismatch, like a short or long read, is an integrity error marked not
// retryable: replaying the request would reproduce the same corrupted bytes.
func Download(
	ctx context.Context,
	r RangeReader,
	dst writerAt,
	start, length int64,
	tracker *progress.Tracker,
	cfg Config,
) error {
	cfg = cfg.WithDefaults()

	if length == 0 {
		tracker.Complete()
		return nil
	}

	wantMD5 := cfg.UseTransactionalMD5 && !cfg.DisableContentMD5Validation

	ex := NewExecutor(cfg.Parallelism)
	for offset := int64(0); offset < length; offset += cfg.ChunkSize {
		n := cfg.ChunkSize
		if remaining := length - offset; remaining < n {
			n = remaining
		}

		offset := offset
		err := ex.Submit(ctx, func(ctx context.Context) error {
			data, rangeMD5, err := r.ReadRange(ctx, start+offset, n, wantMD5)
			if err != nil {
				return err
			}
			if int64(len(data)) != n {
				return errors.MarkNotRetryable(
					errors.NewError("download", errors.ErrLengthMismatch).
						WithMessage(fmt.Sprintf("requested %d bytes at offset %d, got %d",
							n, start+offset, len(data))))
			}
			if wantMD5 && rangeMD5 != "" && md5Base64(data) != rangeMD5 {
				return errors.MarkNotRetryable(
					errors.NewError("download", errors.ErrMD5Mismatch).
						WithMessage(fmt.Sprintf("range at offset %d failed MD5 verification",
							start+offset)))
			}
			if _, err := dst.WriteAt(data, offset); err != nil {
				return err
			}
			tracker.Add(n)
			return nil
		})
		if err != nil {
			break
		}
	}

	if err := ex.Wait(); err != nil {
		tracker.Fail(err)
		return err
	}

	tracker.Complete()
	return nil
}

// writerAt is io.WriterAt, declared locally to keep the engine's collaborator
// surface explicit.
type writerAt interface {
	WriteAt(p []byte, off int64) (n int, err error)
}
