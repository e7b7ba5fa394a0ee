// Command archiver consumes lookup events from Kafka and writes each one to
// the object store as JSON.
package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"relocation/internal/enrich"
	"relocation/internal/env"
	"relocation/internal/logger"
	"relocation/internal/models"
	"relocation/internal/service"
	"relocation/internal/storage"
	"relocation/pkg/graceful"
	"relocation/pkg/kafkaclient"
)

func main() {
	cmd := &cobra.Command{
		Use:          "archiver",
		Short:        "Archive lookup events from Kafka to object storage",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env.LoadEnv()
			ctx, cancel := graceful.Context(cmd.Context())
			defer cancel()
			return run(ctx)
		},
	}
	if err := cmd.Execute(); err != nil {
		logger.GetLogger().Error(err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.GetLogger()

	cfg, err := env.Load()
	if err != nil {
		return err
	}
	cfg.KafkaBroker = env.MustGetEnv("KAFKA_BROKER")

	log.Infof("Connecting to Kafka broker: %s on topic: %s with group ID: %s", cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaGroupID)
	consumer, err := kafkaclient.NewKafkaConsumer(cfg.KafkaTopic, cfg.KafkaGroupID, cfg.KafkaBroker)
	if err != nil {
		return err
	}

	archive, err := storage.NewS3Service(cfg.ArchiveBucket, cfg.ArchivePrefix)
	if err != nil {
		return err
	}
	if err := archive.EnsureBucket(ctx, ""); err != nil {
		return err
	}

	consumer.StartConsuming(ctx)
	defer consumer.Stop()

	objects := service.NewLookupIterator(consumer).Objects(ctx)
	enriched := enrich.LookupPipeline(time.Now).Run(ctx, events(ctx, objects))
	stored := archive.StoreEventsFromChannel(ctx, enriched)

	log.Infof("Archiver finished, %d events stored", stored)
	return nil
}

// events unwraps iterator output into the pipeline's input.
func events(ctx context.Context, in <-chan *service.FetchedObject[*models.LookupEvent]) <-chan *models.LookupEvent {
	out := make(chan *models.LookupEvent)
	go func() {
		defer close(out)
		for obj := range in {
			select {
			case out <- obj.Data:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
