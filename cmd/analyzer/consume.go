package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/sentai/internal/clients"
	"github.com/spacesedan/sentai/internal/clients/kafka_client"
	"github.com/spacesedan/sentai/internal/clients/kafka_client/consumers"
	"github.com/spacesedan/sentai/internal/pipeline"
	"github.com/spf13/cobra"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Analyze comment batches from Kafka and publish the results",
	Long:  `consume reads comment batches from the comment-batches topic, analyzes each batch as one run and publishes the rows and totals to sentiment-results.`,
	Args:  cobra.NoArgs,
	RunE:  runConsume,
}

func init() {
	consumeCmd.Flags().Bool("persist", false, "also store result rows in DynamoDB")
}

func runConsume(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, err := selectionMode("", cfg)
	if err != nil {
		return err
	}

	c, release, err := buildClassifier(cfg)
	if err != nil {
		return err
	}
	defer release()

	p := pipeline.New(c, buildTranslator(cfg), pipeline.Options{
		Mode:     mode,
		DestLang: cfg.TranslateDest,
		Workers:  cfg.Workers,
	})

	kafkaCfg := kafka_client.NewKafkaConfig(cfg.KafkaBroker, cfg.KafkaGroupID)

	var producer *kafka_client.Producer
	for producer == nil {
		producer, err = kafka_client.NewProducer(ctx, kafkaCfg)
		if err == nil {
			break
		}
		slog.Warn("[Main] Kafka init failed, retrying...", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
		}
	}
	defer producer.Close()

	var tracker consumers.RunTracker
	if cfg.ValkeyAddress != "" {
		vc, err := clients.InitValkey(cfg.ValkeyAddress, cfg.ValkeyPassword, cfg.ValkeyTLS)
		if err != nil {
			slog.Warn("[Main] Run tracking disabled", slog.String("error", err.Error()))
		} else {
			tracker = vc
		}
	}

	var sink consumers.ResultSink
	if persist, _ := cmd.Flags().GetBool("persist"); persist {
		store, err := buildResultStore(ctx, cfg)
		if err != nil {
			return err
		}
		sink = store
	}

	handler := consumers.NewCommentBatchConsumer(p, producer, tracker, sink)
	kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_COMMENT_BATCHES, handler.Start)

	return kafka_client.StartConsumer(ctx, kafkaCfg)
}

