package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/pkg/logger"
)

// ErrSkipRecipient tells the dispatcher a recipient needs no notification
// in this run. Skips count as neither success nor failure.
var ErrSkipRecipient = errors.New("recipient skipped")

// UserPager is the paginated candidate fetch the dispatcher drives. Pages
// must use a stable ordering so offset pagination visits each recipient
// exactly once while the population is not mutated concurrently.
type UserPager interface {
	ListActivePage(ctx context.Context, limit, offset int) ([]*model.User, error)
}

// Attempt performs the notification work for one recipient. The context
// carries the per-call deadline.
type Attempt func(ctx context.Context, user *model.User) error

// Prepare fetches page-scoped data (one query per page, not per recipient)
// and returns the Attempt to run against each recipient of the page.
type Prepare func(ctx context.Context, page []*model.User) (Attempt, error)

// Dispatcher partitions a large recipient population into fixed-size pages
// and drives per-recipient notification attempts with bounded resource use:
// one fetch per page, a hard timeout per attempt, and a fixed delay between
// pages as backpressure on the mail channel and the database.
type Dispatcher struct {
	pager       UserPager
	pageSize    int
	sendTimeout time.Duration
	pageDelay   time.Duration
	logger      *logger.Logger
}

func NewDispatcher(pager UserPager, pageSize int, sendTimeout, pageDelay time.Duration, lg *logger.Logger) *Dispatcher {
	return &Dispatcher{
		pager:       pager,
		pageSize:    pageSize,
		sendTimeout: sendTimeout,
		pageDelay:   pageDelay,
		logger:      lg,
	}
}

// Run walks the population page by page until a short page signals the end.
// One recipient's failure or timeout never aborts the page or the batch; it
// is counted and logged. Each success is committed independently, so there
// is no partial-batch rollback. Run returns the number of successful
// notifications.
//
// Pagination deliberately terminates on len(page) < pageSize instead of a
// separate count query: it saves a round trip and stays correct when the
// population changes between pages.
func (d *Dispatcher) Run(ctx context.Context, prepare Prepare) (int, error) {
	var sent, failed, skipped int
	offset := 0

	for {
		page, err := d.pager.ListActivePage(ctx, d.pageSize, offset)
		if err != nil {
			return sent, err
		}
		if len(page) == 0 {
			break
		}

		attempt, err := prepare(ctx, page)
		if err != nil {
			return sent, err
		}

		for _, user := range page {
			if ctx.Err() != nil {
				d.logger.Warn("dispatch cancelled mid-batch", "sent", sent, "failed", failed)
				return sent, ctx.Err()
			}

			callCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			err := attempt(callCtx, user)
			cancel()

			switch {
			case err == nil:
				sent++
			case errors.Is(err, ErrSkipRecipient):
				skipped++
			default:
				failed++
				d.logger.Error(err, "notification attempt failed",
					"user_id", user.ID.String(),
					"email", user.Email)
			}
		}

		if len(page) < d.pageSize {
			break
		}
		offset += d.pageSize

		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		case <-time.After(d.pageDelay):
		}
	}

	d.logger.Info("dispatch complete", "sent", sent, "failed", failed, "skipped", skipped)
	return sent, nil
}
