package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultPollTimeout = 60
	DefaultMaxInFlight = 32
	startCommand       = "start"
)

// Handler consumes inbound chat events. *conversation.Machine satisfies it.
type Handler interface {
	Start(ctx context.Context, id string) error
	Handle(ctx context.Context, id, text string) error
}

// Poller long-polls for updates. Messages of one chat are handled one at a
// time in arrival order; different chats run in parallel, bounded by a
// semaphore.
type Poller struct {
	api         API
	handler     Handler
	logger      *zap.Logger
	pollTimeout int
	maxInFlight int64
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollerLogger sets the poller logger.
func WithPollerLogger(logger *zap.Logger) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPollTimeout sets the long-poll timeout in seconds.
func WithPollTimeout(seconds int) PollerOption {
	return func(p *Poller) {
		if seconds > 0 {
			p.pollTimeout = seconds
		}
	}
}

// WithMaxInFlight bounds concurrently handled messages.
func WithMaxInFlight(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.maxInFlight = int64(n)
		}
	}
}

// NewPoller creates a Poller.
func NewPoller(api API, handler Handler, opts ...PollerOption) *Poller {
	p := &Poller{
		api:         api,
		handler:     handler,
		logger:      zap.NewNop(),
		pollTimeout: DefaultPollTimeout,
		maxInFlight: DefaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run dispatches updates until ctx is done or the update channel closes,
// then waits for in-flight handlers. Shutdown through ctx is not an error.
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.pollTimeout
	updates := p.api.GetUpdatesChan(cfg)

	sem := semaphore.NewWeighted(p.maxInFlight)
	queues := newChatQueues()
	var wg sync.WaitGroup
	defer wg.Wait()

	p.logger.Info("polling for updates", zap.Int("timeout_seconds", p.pollTimeout))
	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			p.logger.Info("polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg := update.Message
			if msg == nil || msg.Chat == nil || !p.accepts(msg) {
				continue
			}
			if !queues.push(msg) {
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				p.api.StopReceivingUpdates()
				return nil
			}
			wg.Add(1)
			go func(chat int64) {
				defer wg.Done()
				defer sem.Release(1)
				p.drain(ctx, queues, chat)
			}(msg.Chat.ID)
		}
	}
}

// accepts reports whether msg reaches the handler. /start is the only
// command; other commands and non-text messages are dropped.
func (p *Poller) accepts(msg *tgbotapi.Message) bool {
	if msg.IsCommand() {
		if msg.Command() == startCommand {
			return true
		}
		p.logger.Debug("command ignored",
			zap.String("session", SessionID(msg.Chat.ID)),
			zap.String("command", msg.Command()))
		return false
	}
	return msg.Text != ""
}

// drain handles the queued messages of chat until its queue is empty.
func (p *Poller) drain(ctx context.Context, queues *chatQueues, chat int64) {
	for msg := queues.pop(chat); msg != nil; msg = queues.pop(chat) {
		if ctx.Err() != nil {
			return
		}
		p.dispatch(ctx, msg)
	}
}

func (p *Poller) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	id := SessionID(msg.Chat.ID)

	var err error
	if msg.IsCommand() {
		err = p.handler.Start(ctx, id)
	} else {
		err = p.handler.Handle(ctx, id, msg.Text)
	}
	if err != nil {
		p.logger.Error("message handling failed", zap.String("session", id), zap.Error(err))
	}
}

// chatQueues holds the pending messages per chat. A chat present in the map
// has exactly one worker draining it.
type chatQueues struct {
	mu      sync.Mutex
	pending map[int64][]*tgbotapi.Message
}

func newChatQueues() *chatQueues {
	return &chatQueues{pending: make(map[int64][]*tgbotapi.Message)}
}

// push appends msg and reports whether its chat needs a new worker.
func (q *chatQueues) push(msg *tgbotapi.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	backlog, active := q.pending[msg.Chat.ID]
	q.pending[msg.Chat.ID] = append(backlog, msg)
	return !active
}

// pop returns the next message of chat. On an empty queue it retires the
// chat's worker and returns nil.
func (q *chatQueues) pop(chat int64) *tgbotapi.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	backlog := q.pending[chat]
	if len(backlog) == 0 {
		delete(q.pending, chat)
		return nil
	}
	q.pending[chat] = backlog[1:]
	return backlog[0]
}
