package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/tourplanner/api"
	"github.com/Domenick1991/tourplanner/config"
	"github.com/Domenick1991/tourplanner/internal/bootstrap"
	"github.com/Domenick1991/tourplanner/internal/cache"
	"github.com/Domenick1991/tourplanner/internal/changebus"
	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/gateway"
	"github.com/Domenick1991/tourplanner/internal/kafka"
	"github.com/Domenick1991/tourplanner/internal/push"
	"github.com/Domenick1991/tourplanner/internal/rabbitmq"
	"github.com/Domenick1991/tourplanner/internal/relay"
	"github.com/Domenick1991/tourplanner/internal/service/booking"
	"github.com/Domenick1991/tourplanner/internal/service/users"
	"github.com/Domenick1991/tourplanner/internal/session"
	"github.com/Domenick1991/tourplanner/internal/telemetry"
	"github.com/Domenick1991/tourplanner/internal/workspace"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

func main() {
	cfgPath := pflag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	pflag.Parse()
	if *cfgPath == "" {
		*cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	remote := gateway.NewClient(cfg.Remote.Endpoint, cfg.Remote.Timeout())

	var store session.Store = session.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		store = cache.NewRedisCache(cfg.Redis, cfg.Session.TTL())
	}
	sessions := session.NewManager(remote, store, session.WithDefaultTTL(cfg.Session.TTL()))

	bus := changebus.New()
	var publisher changebus.Publisher = bus
	if r := newRelay(cfg, bus); r != nil {
		defer r.Close()
		go func() {
			if err := r.Run(ctx); err != nil {
				log.Printf("[relay] stopped: %v", err)
			}
		}()
		publisher = r
	}

	instance := uuid.NewString()
	var sink telemetry.Sink = telemetry.LogSink{}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.AnomalyTopic != "" {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		sink = telemetry.NewKafkaSink(producer, cfg.Kafka.AnomalyTopic)
	}
	reporter := telemetry.NewReporter(sink, instance)
	go func() { _ = reporter.Run(ctx) }()
	engine := domain.NewLifecycle(domain.WithUnknownStatusObserver(reporter.Observe))

	bookingService := booking.NewBookingService(remote, engine, publisher, booking.WithCatalog(domain.Catalog(cfg.Catalog)))
	userService := users.NewUserService(remote, publisher, users.WithSessionRevoker(sessions))

	hub := push.NewHub(push.WithAllowedOrigins(cfg.HTTP.AllowedOrigins))
	registry := workspace.NewRegistry(bus, bookingService, userService, workspace.WithNotifier(hub))
	defer registry.CloseAll()

	router := api.NewRouter(api.RouterDeps{
		Sessions:   sessions,
		Workspaces: registry,
		Bookings:   bookingService,
		Users:      userService,
		Push:       hub,
		Cookie: api.CookieConfig{
			Name:   cfg.Session.CookieName,
			MaxAge: int(cfg.Session.TTL().Seconds()),
			Secure: cfg.Session.Secure,
		},
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	if err := bootstrap.Run(ctx, cfg, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// newRelay connects the local bus to the other instances, or returns nil when
// this instance runs alone.
func newRelay(cfg *config.Config, bus *changebus.Bus) *relay.Relay {
	switch cfg.Relay.Driver {
	case config.RelayKafka:
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		if err := producer.CheckConnection(context.Background()); err != nil {
			log.Fatalf("kafka: %v", err)
		}
		// Every instance must see every change, so each reads with its own group.
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID+"-"+uuid.NewString(), cfg.Kafka.ChangesTopic, kafka.FromLatest())
		return relay.New(bus, relay.NewKafkaTransport(producer, consumer, cfg.Kafka.ChangesTopic))
	case config.RelayAMQP:
		client, err := rabbitmq.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatalf("rabbitmq: %v", err)
		}
		return relay.New(bus, relay.NewAMQPTransport(client))
	}
	return nil
}
