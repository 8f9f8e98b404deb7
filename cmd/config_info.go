package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jmehdipour/group-load/internal/config"
	"github.com/labstack/gommon/color"
	"github.com/spf13/cobra"
)

var configInfoCmd = &cobra.Command{
	Use:   "config-info",
	Short: "Show the resolved configuration for the selected environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, env, err := loadBase()
		if err != nil {
			return err
		}

		_, perr := config.NewProvider(rt.cfg, env)
		writeConfigInfo(cmd.OutOrStdout(), rt.cfg, env, perr)

		// missing credentials is the normal state of a fresh checkout
		if perr != nil && !errors.Is(perr, config.ErrMissingCredentials) {
			return perr
		}
		return nil
	},
}

func writeConfigInfo(out io.Writer, cfg config.Config, env config.Environment, providerErr error) {
	topic := cfg.Topics.Dev
	if env == config.EnvQA {
		topic = cfg.Topics.QA
	}
	k := cfg.Kafka

	secret := "Not set"
	if k.APISecret != "" {
		secret = "********"
	}
	dsn := func(s string) string {
		if s == "" {
			return "Not set"
		}
		return "set"
	}
	apiKeys := "none"
	if n := len(cfg.HTTP.APIKeys); n > 0 {
		apiKeys = fmt.Sprintf("%d configured", n)
	}

	fmt.Fprintln(out, color.Bold("Group load configuration"))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Environment", env.String()},
		{"Topic", topic},
		{"Bootstrap servers", strings.Join(k.Brokers(), ", ")},
		{"Security protocol", k.SecurityProtocol},
		{"SASL mechanism", k.SASLMechanism},
		{"API key", config.MaskKey(k.APIKey)},
		{"API secret", secret},
		{"Client id", k.ClientID},
		{"Acks", k.Acks},
		{"Retries", fmt.Sprint(k.Retries)},
		{"Batch size", fmt.Sprintf("%d bytes", k.BatchSize)},
		{"Linger", k.Linger.String()},
		{"Buffer memory", fmt.Sprintf("%d bytes", k.BufferMemory)},
		{"Publish timeout", k.PublishTimeout.String()},
		{"Workers", fmt.Sprint(cfg.Streamer.Workers)},
		{"HTTP addr", cfg.HTTP.Addr},
		{"HTTP api keys", apiKeys},
		{"MySQL", dsn(cfg.MySQL.DSN)},
		{"ClickHouse", dsn(cfg.ClickHouse.DSN)},
		{"Redis", dsn(cfg.Redis.Addr)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s:\t%s\n", r[0], r[1])
	}
	_ = tw.Flush()

	if providerErr != nil {
		fmt.Fprintln(out, color.Red("Not ready: "+providerErr.Error()))
		return
	}
	fmt.Fprintln(out, color.Green("Ready"))
}
