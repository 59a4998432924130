package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/baditaflorin/go_compatibility/internal/adapters/httpapi"
	"github.com/baditaflorin/go_compatibility/internal/adapters/remote"
	"github.com/baditaflorin/go_compatibility/internal/adapters/tokenizer"
	"github.com/baditaflorin/go_compatibility/internal/core/compat"
	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/evaluator"
)

// answersFile is the YAML layout accepted by --file.
type answersFile struct {
	A domain.AnswerSet `yaml:"a"`
	B domain.AnswerSet `yaml:"b"`
}

func loadAnswersFile(path string) (answersFile, error) {
	var out answersFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read answers: %w", err)
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("parse answers: %w", err)
	}
	return out, nil
}

func newScoreCommand(ctx *commandContext) *cobra.Command {
	var (
		file      string
		a, b      domain.AnswerSet
		useRemote bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score two answer sets",
		Example: `  compatctl score --a-q1 "trust and honesty" --b-q1 "honesty" ...
  compatctl score --file answers.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				loaded, err := loadAnswersFile(file)
				if err != nil {
					return err
				}
				a, b = loaded.A, loaded.B
			}

			calc, err := compat.NewCalculator(compat.DefaultConfig(), ctx.logger(), tokenizer.NewDefaultTokenizer())
			if err != nil {
				return err
			}

			var opts []evaluator.Option
			if useRemote {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				scorer, err := remote.New(remote.Config{
					BaseURL: cfg.Remote.BaseURL,
					Model:   cfg.Remote.Model,
					APIKey:  cfg.Remote.APIKey,
					Timeout: cfg.Remote.Timeout,
				}, ctx.logger())
				if err != nil {
					return err
				}
				opts = append(opts, evaluator.WithPrimary(scorer), evaluator.WithTimeout(cfg.Remote.Timeout))
			}

			result := evaluator.New(calc, ctx.logger(), opts...).Evaluate(cmd.Context(), a, b)
			if asJSON {
				return writeResultJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderResult(a, b, result))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&file, "file", "f", "", "YAML file with answer sets under keys a and b")
	flags.StringVar(&a.Q1, "a-q1", "", "First participant, question 1")
	flags.StringVar(&a.Q2, "a-q2", "", "First participant, question 2")
	flags.StringVar(&a.Q3, "a-q3", "", "First participant, question 3")
	flags.StringVar(&b.Q1, "b-q1", "", "Second participant, question 1")
	flags.StringVar(&b.Q2, "b-q2", "", "Second participant, question 2")
	flags.StringVar(&b.Q3, "b-q3", "", "Second participant, question 3")
	flags.BoolVar(&useRemote, "remote", false, "Try the configured model first, falling back to the local scorer")
	flags.BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func writeResultJSON(w io.Writer, result domain.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(httpapi.NewResultResponse(result))
}

func renderResult(a, b domain.AnswerSet, result domain.Result) string {
	qa, qb := a.Questions(), b.Questions()
	rows := make([][]string, 0, len(qa))
	for i := range qa {
		sim := "-"
		if i < len(result.Breakdown) {
			sim = fmt.Sprintf("%.2f", result.Breakdown[i])
		}
		rows = append(rows, []string{fmt.Sprintf("Q%d", i+1), qa[i], qb[i], sim})
	}
	out := renderTable(
		[]string{"Question", "A", "B", "Similarity"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	)
	return fmt.Sprintf("%s\nScore: %d%% (%s)\n%s", out, result.Rounded(), result.Source, result.Message)
}
