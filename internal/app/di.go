package app

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/nikhildabhi034/assembly-inventory/internal/config"
	"github.com/nikhildabhi034/assembly-inventory/internal/converter"
	"github.com/nikhildabhi034/assembly-inventory/internal/migrator"
	"github.com/nikhildabhi034/assembly-inventory/internal/model"
	repository "github.com/nikhildabhi034/assembly-inventory/internal/repository/part"
	service "github.com/nikhildabhi034/assembly-inventory/internal/service/part"
	partproducer "github.com/nikhildabhi034/assembly-inventory/internal/service/producer/part"
	thttp "github.com/nikhildabhi034/assembly-inventory/internal/transport/http/part/v1"
	"github.com/nikhildabhi034/assembly-inventory/platform/closer"
	"github.com/nikhildabhi034/assembly-inventory/platform/kafka"
	"github.com/nikhildabhi034/assembly-inventory/platform/kafka/producer"
	"github.com/nikhildabhi034/assembly-inventory/platform/logger"
)

type Converter interface {
	BuiltPartToPayload(m model.BuiltPart) ([]byte, error)
}

type PartHandler interface {
	Register(r chi.Router)
}

type di struct {
	dbPool     *pgxpool.Pool
	migrator   *migrator.Migrator
	repository service.PartRepository

	syncProducer          sarama.SyncProducer
	partAssembledProducer kafka.Producer
	partProducer          service.PartAssembledSender

	conv Converter

	service thttp.PartService
	handler PartHandler

	router *chi.Mux
}

func NewDI() *di { return &di{} }

func (d *di) DBPool(ctx context.Context) *pgxpool.Pool {
	if d.dbPool == nil {
		pool, err := pgxpool.New(ctx, config.C().Postgres.DSN())
		if err != nil {
			panic(fmt.Sprintf("failed to create pg pool: %v\n", err))
		}

		closer.AddNamed("PGX Pool",
			func(ctx context.Context) error {
				pool.Close()
				return nil
			})

		if err := pool.Ping(ctx); err != nil {
			panic(fmt.Sprintf("failed to ping db: %v\n", err))
		}

		d.dbPool = pool
	}

	return d.dbPool
}

func (d *di) Migrator(ctx context.Context) *migrator.Migrator {
	if d.migrator == nil {
		d.migrator = migrator.NewMigrator(
			stdlib.OpenDBFromPool(d.DBPool(ctx)),
			config.C().Postgres.MigrationDirectory(),
		)

		closer.AddNamed("Migrator",
			func(ctx context.Context) error {
				return d.migrator.Close()
			})
	}

	return d.migrator
}

func (d *di) PartRepository(ctx context.Context) service.PartRepository {
	if d.repository == nil {
		d.repository = repository.NewPartRepository(d.DBPool(ctx))
	}

	return d.repository
}

func (d *di) KafkaConverter(ctx context.Context) Converter {
	if d.conv == nil {
		d.conv = converter.NewKafkaConverter()
	}

	return d.conv
}

func (d *di) SyncProducer(ctx context.Context) sarama.SyncProducer {
	if d.syncProducer == nil {
		cfg := config.C()

		p, err := sarama.NewSyncProducer(
			cfg.Kafka.Brokers(),
			cfg.Kafka.PartAssembledProducerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create sync producer: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka sync producer", func(ctx context.Context) error {
			return p.Close()
		})

		d.syncProducer = p
	}

	return d.syncProducer
}

func (d *di) PartAssembledProducer(ctx context.Context) kafka.Producer {
	if d.partAssembledProducer == nil {
		d.partAssembledProducer = producer.NewProducer(
			d.SyncProducer(ctx),
			config.C().Kafka.PartAssembledTopic(),
			logger.L(),
		)
	}

	return d.partAssembledProducer
}

func (d *di) PartProducer(ctx context.Context) service.PartAssembledSender {
	if d.partProducer == nil {
		d.partProducer = partproducer.NewPartProducer(
			d.PartAssembledProducer(ctx),
			d.KafkaConverter(ctx),
		)
	}

	return d.partProducer
}

func (d *di) PartService(ctx context.Context) thttp.PartService {
	if d.service == nil {
		d.service = service.NewPartService(
			d.PartRepository(ctx),
			d.PartProducer(ctx),
			config.C().Server.DBReadTimeout(),
			config.C().Server.DBWriteTimeout(),
		)
	}

	return d.service
}

func (d *di) PartHandler(ctx context.Context) PartHandler {
	if d.handler == nil {
		d.handler = thttp.NewPartHandler(d.PartService(ctx))
	}

	return d.handler
}

func (d *di) Router(_ context.Context) *chi.Mux {
	if d.router == nil {
		d.router = chi.NewRouter()
	}

	return d.router
}
