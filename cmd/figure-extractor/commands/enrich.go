package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/figure-extractor/cmd/figure-extractor/ui"
	"github.com/spherical/figure-extractor/internal/domain"
)

var (
	enrichInput  string
	enrichOutput string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run a webhook batch from a JSON file",
	Long: `Process a custom-skill request body ({"values": [...]}) without the HTTP
server and write the response body. Figures are stored with the configured
storage driver.`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringVarP(&enrichInput, "input", "i", "", "request JSON file, - for stdin (required)")
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "-", "response JSON file, - for stdout")
	_ = enrichCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	req, err := readBatch(enrichInput)
	if err != nil {
		return err
	}

	bar := ui.NewProgressBar(len(req.Values), "Enriching records")
	svc, cleanup, err := buildService(cfg, logger, func(domain.OutputRecord) { bar.Add() })
	if err != nil {
		return err
	}
	defer cleanup()

	resp := svc.ProcessBatch(ctx, req)
	bar.Finish()

	if err := writeBatch(enrichOutput, resp); err != nil {
		return err
	}

	failed, figures := summarize(resp)
	if failed > 0 {
		ui.Warning("%d of %d records failed", failed, len(resp.Values))
		for _, rec := range resp.Values {
			for _, e := range rec.Errors {
				ui.Error("record %s: %s", rec.RecordID, e.Message)
			}
		}
	} else {
		ui.Success("Enriched %d records, %d figures", len(resp.Values), figures)
	}
	return nil
}

func readBatch(path string) (domain.BatchRequest, error) {
	var req domain.BatchRequest

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, domain.IOError("read request", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, domain.ValidationError("invalid request JSON", err)
	}
	if req.Values == nil {
		return req, domain.ValidationError(`request has no "values" array`, nil)
	}
	return req, nil
}

func writeBatch(path string, resp domain.BatchResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	data = append(data, '\n')
	if path == "-" || path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.IOError("write response", err)
	}
	return nil
}

func summarize(resp domain.BatchResponse) (failed, figures int) {
	for _, rec := range resp.Values {
		if len(rec.Errors) > 0 {
			failed++
		}
		if rec.Data != nil {
			figures += len(rec.Data.Figures)
		}
	}
	return failed, figures
}
