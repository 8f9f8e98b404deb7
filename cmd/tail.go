package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/group-load/internal/envelope"
	"github.com/jmehdipour/group-load/internal/kafka"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tailMax int

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Read published envelopes back from the environment topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.log.Sync() }()

		k := rt.provider.Kafka()
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:        k.Brokers(),
			Topic:          rt.provider.Topic(),
			GroupID:        k.Consumer.GroupID,
			ClientID:       k.ClientID,
			Security:       rt.security(),
			DialTimeout:    k.DialTimeout,
			MinBytes:       k.Consumer.MinBytes,
			MaxBytes:       k.Consumer.MaxBytes,
			CommitInterval: time.Duration(k.Consumer.CommitInterval) * time.Millisecond,
		})
		defer func() { _ = consumer.Close() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := rt.log.Named("tail")
		log.Info("tailing topic", zap.String("topic", rt.provider.Topic()), zap.String("group_id", k.Consumer.GroupID))

		seen := 0
		for tailMax <= 0 || seen < tailMax {
			m, err := consumer.Fetch(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					break
				}
				return fmt.Errorf("fetch: %w", err)
			}
			seen++

			msg, err := envelope.Decode(m.Value)
			if err != nil {
				log.Warn("undecodable message",
					zap.Int("partition", m.Partition),
					zap.Int64("offset", m.Offset),
					zap.Error(err),
				)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%d members\n",
					msg.Timestamp.Format(time.RFC3339), msg.Environment, msg.MessageID,
					msg.GroupDetails.GroupID, len(msg.GroupDetails.Members))
			}

			if err := consumer.Commit(ctx, m); err != nil {
				log.Warn("commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
			}
		}

		log.Info("tail stopped", zap.Int("messages", seen))
		return nil
	},
}

func init() {
	tailCmd.Flags().IntVar(&tailMax, "max", 0, "stop after this many messages (0 runs until interrupted)")
}
