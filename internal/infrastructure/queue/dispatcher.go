package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/incuna/user-management/internal/core/ports"
	"github.com/incuna/user-management/internal/pkg/metrics"
)

const (
	defaultWorkers     = 4
	defaultBuffer      = 256
	defaultSendTimeout = 15 * time.Second
)

var (
	ErrQueueFull = errors.New("mail queue full")
	ErrStopped   = errors.New("mail dispatcher stopped")
)

// Dispatcher delivers mail asynchronously through a fixed set of workers.
// Messages are sharded by recipient, so mails to one address go out in the
// order they were queued.
type Dispatcher struct {
	workers     []chan ports.Message
	sender      ports.MailSender
	sendTimeout time.Duration
	log         zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

type Options struct {
	Workers     int
	Buffer      int
	SendTimeout time.Duration
}

// NewDispatcher creates a Dispatcher. Zero options take defaults.
func NewDispatcher(opts Options, sender ports.MailSender, log zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	d := &Dispatcher{
		workers:     make([]chan ports.Message, opts.Workers),
		sender:      sender,
		sendTimeout: opts.SendTimeout,
		log:         log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Message, opts.Buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit when ctx is cancelled
// or after Stop has drained their queue.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Notify queues msg without blocking. A nil error confirms the message was
// accepted for delivery.
func (d *Dispatcher) Notify(_ context.Context, msg ports.Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	idx := d.shardIndex(msg.To)
	select {
	case d.workers[idx] <- msg:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	default:
		metrics.MailQueueRejectedTotal.Inc()
		return ErrQueueFull
	}
}

// Stop refuses new messages, lets the workers drain what is queued and
// waits for them to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(to)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Message) {
	defer d.wg.Done()
	depth := metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.deliver(ctx, id, msg)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, msg ports.Message) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, msg); err != nil {
		metrics.MailDispatchedTotal.WithLabelValues(msg.Kind, "failed").Inc()
		d.log.Error().Err(err).
			Str("kind", msg.Kind).
			Int("worker_id", id).
			Msg("mail delivery failed")
		return
	}
	metrics.MailDispatchedTotal.WithLabelValues(msg.Kind, "sent").Inc()
	d.log.Debug().Str("kind", msg.Kind).Int("worker_id", id).Msg("mail sent")
}
