package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/creastat/contractbot/conversation"
	"github.com/creastat/contractbot/form"
	"github.com/creastat/contractbot/render"
	"github.com/creastat/contractbot/telegram"
)

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBot(cmd)
		},
	}
}

func (c *cli) runBot(cmd *cobra.Command) error {
	cfg, logger := c.cfg, c.logger
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}

	if _, err := render.LoadTemplate(cfg.Document.TemplatePath, cfg.Document.LeftDelim, cfg.Document.RightDelim); err != nil {
		// The template is re-read on every attempt, so it may be fixed later.
		logger.Warn("contract template not usable yet", zap.Error(err))
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	counter, err := openCounter(cfg)
	if err != nil {
		return err
	}
	defer counter.Close()

	api, err := telegram.NewAPI(cfg.Telegram.Token, cfg.Telegram.Debug)
	if err != nil {
		return err
	}
	messenger := telegram.NewMessenger(api, cfg.Telegram.AdminChatID, logger.Named("telegram"))

	opts := []conversation.Option{
		conversation.WithLogger(logger.Named("conversation")),
		conversation.WithPrivacyPolicyURL(cfg.Telegram.PrivacyPolicyURL),
	}
	registry, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	if registry != nil {
		defer registry.Close()
		opts = append(opts, conversation.WithRegistry(registry))
	}

	machine, err := conversation.New(store, form.Contract(), newPipeline(cfg, counter, logger), messenger, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("contractbot started",
		zap.String("session_driver", cfg.Session.Driver),
		zap.String("sequence_driver", cfg.Sequence.Driver),
		zap.Bool("registry", registry != nil))

	poller := telegram.NewPoller(api, machine,
		telegram.WithPollerLogger(logger.Named("poller")),
		telegram.WithPollTimeout(cfg.Telegram.PollTimeout),
		telegram.WithMaxInFlight(cfg.Telegram.MaxInFlight))
	err = poller.Run(ctx)

	logger.Info("waiting for contract generations")
	machine.Wait()
	return err
}
