package telegram

import (
	"context"
	"sync"
	"time"

	"helpbot/internal/shared/goroutine"
	"helpbot/internal/shared/logger"
)

// workerCount is the number of concurrent workers for processing updates.
// Updates are dispatched to workers by user affinity (userID % workerCount)
// to keep same-user ordering while allowing cross-user concurrency.
const workerCount = 4

// UpdateHandler handles one decoded Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *Update) error
}

// PollingService long-polls getUpdates and fans updates out to the handler.
// The alternative inbound path is the webhook endpoint; exactly one of the
// two runs at a time.
type PollingService struct {
	client      *Client
	handler     UpdateHandler
	logger      logger.Interface
	pollTimeout int

	stopChan     chan struct{}
	cancelFunc   context.CancelFunc
	wg           sync.WaitGroup
	lastUpdateID int64
	isRunning    bool
	runningMu    sync.Mutex
}

func NewPollingService(client *Client, handler UpdateHandler, log logger.Interface) *PollingService {
	return &PollingService{
		client:      client,
		handler:     handler,
		logger:      log.Named("telegram-polling"),
		pollTimeout: 30,
		stopChan:    make(chan struct{}),
	}
}

func (s *PollingService) Start(ctx context.Context) error {
	s.runningMu.Lock()
	if s.isRunning {
		s.runningMu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	pollCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel
	s.runningMu.Unlock()

	// Polling and webhook delivery are mutually exclusive.
	if err := s.client.DeleteWebhook(ctx); err != nil {
		s.logger.Warnw("failed to delete webhook before polling", "error", err)
	}

	s.logger.Infow("starting telegram polling", "timeout", s.pollTimeout, "workers", workerCount)

	s.wg.Add(1)
	goroutine.SafeGo(s.logger, "telegram-poll-loop", func() {
		s.pollLoop(pollCtx)
	})

	return nil
}

func (s *PollingService) Stop() {
	s.runningMu.Lock()
	if !s.isRunning {
		s.runningMu.Unlock()
		return
	}
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.runningMu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	s.logger.Infow("telegram polling stopped")
}

func (s *PollingService) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		default:
			s.poll(ctx)
		}
	}
}

func (s *PollingService) poll(ctx context.Context) {
	offset := int64(0)
	if s.lastUpdateID > 0 {
		offset = s.lastUpdateID + 1
	}

	updates, err := s.client.GetUpdates(ctx, offset, s.pollTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Errorw("failed to get updates", "error", err)
		// Back off so a broken API is not hammered.
		select {
		case <-ctx.Done():
		case <-s.stopChan:
		case <-time.After(5 * time.Second):
		}
		return
	}

	if len(updates) == 0 {
		return
	}

	// Bucket by user affinity so one user's updates stay ordered.
	buckets := make([][]Update, workerCount)
	var maxUpdateID int64
	for _, u := range updates {
		idx := userAffinity(&u)
		buckets[idx] = append(buckets[idx], u)
		if u.UpdateID > maxUpdateID {
			maxUpdateID = u.UpdateID
		}
	}

	var batchWg sync.WaitGroup
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		batchWg.Add(1)
		workerIdx := i
		workerBucket := bucket
		goroutine.SafeGo(s.logger, "telegram-worker-batch", func() {
			defer batchWg.Done()
			s.processBatch(ctx, workerIdx, workerBucket)
		})
	}
	batchWg.Wait()

	// Advance only after all workers finished so a crash does not skip
	// unprocessed updates.
	s.lastUpdateID = maxUpdateID
}

func (s *PollingService) processBatch(ctx context.Context, workerIdx int, updates []Update) {
	for i := range updates {
		if ctx.Err() != nil {
			return
		}
		u := &updates[i]
		if err := s.handler.HandleUpdate(ctx, u); err != nil {
			s.logger.Errorw("failed to handle update",
				"worker", workerIdx,
				"update_id", u.UpdateID,
				"error", err,
			)
		}
	}
}

// userAffinity maps an update to a worker index by user ID. Same user always
// goes to the same worker.
func userAffinity(u *Update) int {
	var userID int64
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		userID = u.CallbackQuery.From.ID
	case u.Message != nil && u.Message.From != nil:
		userID = u.Message.From.ID
	default:
		userID = u.UpdateID
	}
	idx := int(userID % workerCount)
	if idx < 0 {
		idx += workerCount
	}
	return idx
}
