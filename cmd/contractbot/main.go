package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/creastat/contractbot/config"
	"github.com/creastat/contractbot/logging"
)

// execCommand starts latexmk. Tests swap it for a fake.
var execCommand = exec.CommandContext

type cli struct {
	configPath string
	envFile    string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "contractbot",
		Short: "Telegram bot that collects contract details and issues numbered PDF contracts",
		Long: `contractbot walks a customer through consent and a fixed questionnaire,
renders the tutoring contract template with the answers, compiles it with
latexmk and delivers the numbered PDF to the administrative chat.

Run without arguments to start the bot.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(c.envFile); err != nil {
				return err
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging, c.verbose)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBot(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "config.yaml", "Path to the YAML configuration")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Dotenv file with secrets; missing file is ignored")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(c.runCmd())
	root.AddCommand(c.renderCmd())
	root.AddCommand(c.sequenceCmd())
	root.AddCommand(c.contractsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
