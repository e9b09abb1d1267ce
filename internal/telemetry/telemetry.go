// Package telemetry carries unknown-status reports from the lifecycle engine
// to the worker, which stores and summarizes them.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
)

// Sink delivers one anomaly report.
type Sink interface {
	Record(ctx context.Context, a domain.StatusAnomaly) error
}

// Reporter is plugged into the lifecycle engine as its unknown-status
// observer. Observe never blocks the caller; reports are delivered by Run.
type Reporter struct {
	sink   Sink
	source string
	queue  chan domain.StatusAnomaly
	now    func() time.Time
}

type ReporterOption func(*Reporter)

func WithQueueSize(n int) ReporterOption {
	return func(r *Reporter) {
		r.queue = make(chan domain.StatusAnomaly, n)
	}
}

func WithClock(now func() time.Time) ReporterOption {
	return func(r *Reporter) {
		r.now = now
	}
}

func NewReporter(sink Sink, source string, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		sink:   sink,
		source: source,
		queue:  make(chan domain.StatusAnomaly, 64),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reporter) Observe(status domain.BookingStatus) {
	a := domain.StatusAnomaly{Status: status, Source: r.source, ObservedAt: r.now().UTC()}
	select {
	case r.queue <- a:
	default:
		log.Printf("[telemetry] queue full, dropped report of status %q", status)
	}
}

// Run delivers queued reports until ctx is done.
func (r *Reporter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case a := <-r.queue:
			if err := r.sink.Record(ctx, a); err != nil {
				log.Printf("[telemetry] report of status %q failed: %v", a.Status, err)
			}
		}
	}
}

// LogSink only logs. It is used when no Kafka brokers are configured.
type LogSink struct{}

func (LogSink) Record(_ context.Context, a domain.StatusAnomaly) error {
	log.Printf("[telemetry] unknown booking status %q seen by %s", a.Status, a.Source)
	return nil
}

type KafkaSink struct {
	producer *kafka.Producer
	topic    string
	retries  int
}

func NewKafkaSink(producer *kafka.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, retries: 3}
}

func (s *KafkaSink) Record(ctx context.Context, a domain.StatusAnomaly) error {
	return s.producer.PublishWithRetry(ctx, s.topic, string(a.Status), a, s.retries)
}

// Store is where the worker keeps reports.
type Store interface {
	Insert(ctx context.Context, a domain.StatusAnomaly) error
	CountByStatus(ctx context.Context, since time.Time) (map[domain.BookingStatus]int64, error)
	LastSeen(ctx context.Context, status domain.BookingStatus) (time.Time, error)
}

// Ingestor is the worker side: it stores consumed reports and logs periodic
// summaries.
type Ingestor struct {
	store Store
	now   func() time.Time
}

func NewIngestor(store Store) *Ingestor {
	return &Ingestor{store: store, now: time.Now}
}

// Handle stores one consumed message. Undecodable messages are logged and
// skipped so one bad record cannot stall the consumer.
func (i *Ingestor) Handle(ctx context.Context, msg kafkago.Message) error {
	var a domain.StatusAnomaly
	if err := json.Unmarshal(msg.Value, &a); err != nil || a.Status == "" {
		log.Printf("[telemetry] skipping malformed report at offset %d", msg.Offset)
		return nil
	}
	if err := i.store.Insert(ctx, a); err != nil {
		return fmt.Errorf("store anomaly: %w", err)
	}
	return nil
}

type Summary struct {
	Status   domain.BookingStatus
	Count    int64
	LastSeen time.Time
}

// Summarize reports, per status, how many anomalies were observed within
// window, sorted by status.
func (i *Ingestor) Summarize(ctx context.Context, window time.Duration) ([]Summary, error) {
	counts, err := i.store.CountByStatus(ctx, i.now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("count anomalies: %w", err)
	}

	out := make([]Summary, 0, len(counts))
	for status, n := range counts {
		last, err := i.store.LastSeen(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("last seen %s: %w", status, err)
		}
		out = append(out, Summary{Status: status, Count: n, LastSeen: last})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Status < out[b].Status })
	return out, nil
}

// Report logs one summary line per status seen within window.
func (i *Ingestor) Report(ctx context.Context, window time.Duration) {
	summary, err := i.Summarize(ctx, window)
	if err != nil {
		log.Printf("[telemetry] summary failed: %v", err)
		return
	}
	if len(summary) == 0 {
		log.Printf("[telemetry] no unknown booking statuses in the last %s", window)
		return
	}
	for _, s := range summary {
		log.Printf("[telemetry] status %q seen %d times in the last %s, last at %s",
			s.Status, s.Count, window, s.LastSeen.Format(time.RFC3339))
	}
}
