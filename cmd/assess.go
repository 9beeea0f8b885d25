package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/riskpair/riskpair/internal/ai/gemini"
	"github.com/riskpair/riskpair/internal/applicant"
	"github.com/riskpair/riskpair/internal/assessment"
	"github.com/riskpair/riskpair/internal/evaluation"
	"github.com/riskpair/riskpair/internal/logger"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptApprove      = "Approve"
	PromptReject       = "Reject"
	PromptLeavePending = "Leave pending"
)

var decisionPrompt = promptui.Select{
	Label: "Final decision",
	Items: []string{PromptApprove, PromptReject, PromptLeavePending},
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Evaluate one loan application with both scoring methods",
	Run: func(cmd *cobra.Command, _ []string) {
		assess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringP("applicant", "a", "", "path to the applicant file (json or yaml)")
	assessCmd.Flags().StringP("output", "o", "", "write the final application record to this file")
	assessCmd.Flags().Bool("no-prompt", false, "skip the interactive decision prompt")
}

// assess is the main command for the cli.
func assess(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting riskpair", zap.String("version", version))

	applicantFile := strings.TrimSpace(cmd.Flag("applicant").Value.String())
	if applicantFile == "" {
		logger.Fatal("applicant file is required", zap.String("hint", "pass it with --applicant"))
	}

	app, err := loadApplicant(applicantFile)
	if err != nil {
		logger.Fatal("loading the applicant", zap.Error(err), zap.String("file", applicantFile))
	}

	logger.Info("evaluating application",
		zap.String("applicant_id", app.ID),
		zap.Float64("loan_amount", app.LoanAmount),
		zap.Int("loan_term_months", app.LoanTermMonths),
	)

	evaluator, err := evaluation.New(buildAssessor(config, logger), logger)
	if err != nil {
		logger.Fatal("building the evaluator", zap.Error(err))
	}

	record, err := evaluator.Evaluate(ctx, app)
	if err != nil {
		logger.Fatal("evaluating the application", zap.Error(err))
	}

	printComparison(record)

	if cmd.Flag("no-prompt").Value.String() == "false" {
		if err := recordDecision(record); err != nil {
			logger.Fatal("recording the decision", zap.Error(err))
		}
	}

	logger.Info("application processed",
		zap.String("applicant_id", record.Applicant.ID),
		zap.String("status", string(record.Status)),
	)

	outputFile := strings.TrimSpace(cmd.Flag("output").Value.String())
	if outputFile != "" {
		if err := writeRecord(record, outputFile); err != nil {
			logger.Fatal("writing the record", zap.Error(err), zap.String("file", outputFile))
		}
		logger.Info("record written", zap.String("file", outputFile))
	}
}

// loadApplicant reads the applicant file (json or yaml, routed through viper)
// into the typed input model.
func loadApplicant(path string) (*applicant.Applicant, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read applicant file: %w", err)
	}

	return applicant.FromMap(v.AllSettings())
}

func buildAssessor(config *Config, logger *zap.Logger) *gemini.Assessor {
	cfg := &gemini.Config{}

	if config != nil && config.AI != nil {
		cfg.DemoDelay = time.Duration(config.AI.DemoDelayMS) * time.Millisecond

		if config.AI.Gemini != nil {
			cfg.APIKey = config.AI.Gemini.APIKey
			cfg.APIKeyFile = config.AI.Gemini.APIKeyFile
			cfg.Model = config.AI.Gemini.Model
			cfg.MaxLogLength = config.AI.Gemini.MaxLogLength
		}
	}

	return gemini.NewAssessor(cfg, logger)
}

func printComparison(record *assessment.Record) {
	printCard("TRADITIONAL RULE ENGINE", record.Traditional)
	printCard("AI ASSESSMENT", record.AI)
}

func printCard(title string, result *assessment.Result) {
	// do not bother error since the result is a plain serializable struct
	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Printf("\n=== %s ===\n%s\n", title, pretty)
}

func recordDecision(record *assessment.Record) error {
	_, action, err := decisionPrompt.Run()
	if err != nil {
		return fmt.Errorf("decision prompt: %w", err)
	}

	if action == PromptLeavePending {
		return nil
	}

	notePrompt := promptui.Prompt{Label: "Decision note (optional)"}
	note, err := notePrompt.Run()
	if err != nil && !errors.Is(err, promptui.ErrInterrupt) {
		return fmt.Errorf("note prompt: %w", err)
	}

	switch action {
	case PromptApprove:
		record.Approve(note)
	case PromptReject:
		record.Reject(note)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}

	return nil
}

func writeRecord(record *assessment.Record, path string) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}
