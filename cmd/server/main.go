package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"chimera/internal/flora/consumer"
	"chimera/internal/flora/dedup"
	"chimera/internal/flora/events"
	"chimera/internal/flora/models"
	"chimera/internal/flora/service"
	"chimera/internal/flora/store/document"
	"chimera/internal/flora/store/structured"
	"chimera/internal/notification"
	"chimera/internal/platform/config"
	"chimera/internal/platform/httpserver"
	"chimera/internal/platform/kafka"
	"chimera/internal/platform/lifecycle"
	"chimera/internal/platform/logger"
	"chimera/internal/platform/metrics"
	"chimera/internal/platform/rabbitmq"
	platformredis "chimera/internal/platform/redis"
	httptransport "chimera/internal/transport/http"
)

const shutdownTimeout = 15 * time.Second

// main wires the stores, the broker and the HTTP surface, then runs until a
// signal arrives or the broker connection drops.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("flora service exited", "error", err)
		os.Exit(1)
	}
}

// infra holds the connections opened by the supervisor's start hooks.
type infra struct {
	db        *sql.DB
	mongo     *mongo.Client
	redis     *platformredis.Client
	producer  *kafka.Producer
	transport *rabbitmq.Transport
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var in infra
	sup := lifecycle.NewSupervisor(log)
	registerInfra(sup, &in, cfg, log)

	var (
		relay       *notification.Relay
		coordinator *service.Coordinator
		commands    *consumer.Consumer
		rows        *structured.PostgresStore
		docs        *document.MongoStore
	)
	sup.Append(lifecycle.Hook{
		Name: "pipeline",
		OnStart: func(ctx context.Context) error {
			rows = structured.NewPostgres(in.db)
			if err := rows.EnsureSchema(ctx); err != nil {
				return err
			}
			docs = document.NewMongo(in.mongo.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
			if err := docs.EnsureIndexes(ctx); err != nil {
				return err
			}

			emitters := events.Fanout{events.NewQueueEmitter(in.transport, cfg.RabbitMQ.OutcomeExchange)}
			if in.producer != nil {
				emitters = append(emitters, events.NewKafkaMirror(in.producer))
			}
			coordinator = service.New(rows, docs, emitters,
				service.WithLogger(log),
				service.WithMetrics(m),
			)

			consumerOpts := []consumer.Option{consumer.WithLogger(log), consumer.WithMetrics(m)}
			if in.redis != nil {
				consumerOpts = append(consumerOpts, consumer.WithDeduplicator(dedup.NewRedis(in.redis, cfg.Redis.DedupTTL)))
			}
			commands = consumer.New(coordinator, in.transport, consumerOpts...)

			relay = notification.New(in.transport,
				notification.WithLogger(log),
				notification.WithMetrics(m),
				notification.WithPollInterval(cfg.Stream.PollInterval),
			)
			return nil
		},
		OnStop: func(context.Context) error {
			if relay != nil {
				relay.Shutdown()
			}
			return nil
		},
	})

	if err := sup.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sup.Stop(stopCtx); err != nil {
			log.Error("shutdown incomplete", "error", err)
		}
	}()

	router := httptransport.NewRouter(log, reg,
		httptransport.NewNotificationHandler(relay, log),
		httptransport.NewFloraHandler(coordinator, log),
		httptransport.NewHealthHandler(healthChecks(in, rows, docs)),
	)
	srv := httpserver.New(cfg.Addr, router)
	srv.RegisterOnShutdown(relay.Shutdown)

	g, gctx := errgroup.WithContext(ctx)
	if err := in.transport.Subscribe(gctx, cfg.RabbitMQ.CommandQueue, commands); err != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.RabbitMQ.CommandQueue, err)
	}
	if err := in.transport.Subscribe(gctx, cfg.RabbitMQ.NotificationQueue, relay); err != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.RabbitMQ.NotificationQueue, err)
	}

	g.Go(func() error {
		log.Info("starting flora service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-in.transport.Done():
			return errors.New("broker connection lost")
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// registerInfra appends a start/stop hook per external dependency. Stop runs in
// reverse, so the broker closes before the stores.
func registerInfra(sup *lifecycle.Supervisor, in *infra, cfg config.Server, log *slog.Logger) {
	sup.Append(lifecycle.Hook{
		Name: "postgres",
		OnStart: func(ctx context.Context) error {
			db, err := sql.Open("postgres", cfg.Postgres.URL)
			if err != nil {
				return err
			}
			db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
			if err := db.PingContext(ctx); err != nil {
				_ = db.Close()
				return err
			}
			in.db = db
			return nil
		},
		OnStop: func(context.Context) error { return in.db.Close() },
	})
	sup.Append(lifecycle.Hook{
		Name: "mongo",
		OnStart: func(ctx context.Context) error {
			client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
			if err != nil {
				return err
			}
			if err := client.Ping(ctx, nil); err != nil {
				_ = client.Disconnect(ctx)
				return err
			}
			in.mongo = client
			return nil
		},
		OnStop: func(ctx context.Context) error { return in.mongo.Disconnect(ctx) },
	})
	sup.Append(lifecycle.Hook{
		Name: "redis",
		OnStart: func(ctx context.Context) error {
			client, err := platformredis.New(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			if client == nil {
				log.Info("redis not configured, redelivery dedup disabled")
			}
			in.redis = client
			return nil
		},
		OnStop: func(context.Context) error {
			if in.redis == nil {
				return nil
			}
			return in.redis.Close()
		},
	})
	sup.Append(lifecycle.Hook{
		Name: "kafka",
		OnStart: func(ctx context.Context) error {
			producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
			if err != nil {
				return err
			}
			if producer == nil {
				return nil
			}
			if err := producer.EnsureTopic(ctx, 1, 1); err != nil {
				log.Warn("kafka topic not ensured", "topic", cfg.Kafka.Topic, "error", err)
			}
			in.producer = producer
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if in.producer == nil {
				return nil
			}
			return in.producer.Close(ctx)
		},
	})
	sup.Append(lifecycle.Hook{
		Name: "rabbitmq",
		OnStart: func(ctx context.Context) error {
			t, err := dialBroker(ctx, cfg.RabbitMQ, log)
			if err != nil {
				return err
			}
			in.transport = t
			return declareTopology(t, cfg.RabbitMQ)
		},
		OnStop: func(context.Context) error { return in.transport.Close() },
	})
}

// dialBroker retries the initial connection with exponential backoff until
// cfg.ConnectTimeout elapses.
func dialBroker(ctx context.Context, cfg config.RabbitMQConfig, log *slog.Logger) (*rabbitmq.Transport, error) {
	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = cfg.ConnectTimeout
	return backoff.RetryNotifyWithData(
		func() (*rabbitmq.Transport, error) {
			return rabbitmq.Dial(ctx, cfg.URL, rabbitmq.WithLogger(log))
		},
		backoff.WithContext(eb, ctx),
		func(err error, next time.Duration) {
			log.Warn("broker unreachable, retrying", "error", err, "retry_in", next)
		},
	)
}

func declareTopology(t *rabbitmq.Transport, cfg config.RabbitMQConfig) error {
	if err := t.DeclareQueue(cfg.CommandQueue); err != nil {
		return err
	}
	if err := t.DeclareQueue(cfg.NotificationQueue); err != nil {
		return err
	}
	if err := t.DeclareExchange(cfg.OutcomeExchange, "direct"); err != nil {
		return err
	}
	for _, kind := range []models.OutcomeKind{models.KindCreated, models.KindUpdated} {
		if err := t.BindQueue(cfg.NotificationQueue, string(kind), cfg.OutcomeExchange); err != nil {
			return err
		}
	}
	return nil
}

func healthChecks(in infra, rows *structured.PostgresStore, docs *document.MongoStore) map[string]httptransport.CheckFunc {
	checks := map[string]httptransport.CheckFunc{
		"rabbitmq": in.transport.Ping,
		"postgres": rows.Ping,
		"mongo":    docs.Ping,
	}
	if in.redis != nil {
		checks["redis"] = in.redis.Health
	}
	if in.producer != nil {
		checks["kafka"] = in.producer.Ping
	}
	return checks
}
