package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/creastat/contractbot/form"
)

func (c *cli) renderCmd() *cobra.Command {
	var answersPath, outDir string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Generate one contract offline from a YAML answers file",
		Long: `Runs the full document pipeline without the messaging transport.
The answers file maps field names to values, for example:

  customer_full_name: Иванов Иван Иванович
  email: ivan@example.com
  telegram: "@ivan_petrov"

Every answer is validated as in the conversation. A successful run consumes
a contract number.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if outDir != "" {
				cfg.Document.OutputDir = outDir
			}
			if err := cfg.ValidateOffline(); err != nil {
				return err
			}

			answers, err := readAnswers(answersPath, form.Contract())
			if err != nil {
				return err
			}

			counter, err := openCounter(cfg)
			if err != nil {
				return err
			}
			defer counter.Close()

			art, err := newPipeline(cfg, counter, c.logger).Generate(cmd.Context(), answers)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "contract %s written to %s\n", art.ContractID, art.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&answersPath, "answers", "", "YAML file with questionnaire answers")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default: document.output_dir)")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

// readAnswers loads and validates answers for every field of catalog.
func readAnswers(path string, catalog form.Catalog) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}
	raw := make(map[string]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse answers: %w", err)
	}

	answers := make(map[string]string, catalog.Len())
	var bad []string
	for _, f := range catalog {
		v := strings.TrimSpace(raw[f.Name])
		if !f.Validate(v) {
			bad = append(bad, f.Name)
			continue
		}
		answers[f.Name] = v
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("missing or invalid answers: %s", strings.Join(bad, ", "))
	}
	return answers, nil
}
