package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hennyi-ai/sales-engine/internal/catalog"
)

// newIngestCmd creates the ingest subcommand.
func newIngestCmd() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a vehicle inventory CSV into the database",
		Long: `Ingest parses an inventory feed CSV and replaces the stored catalog
wholesale. The first row must be a header naming the feed columns.

Rows missing required fields are stored as-is but will be skipped with a
warning when the catalog is loaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			records, err := readInventoryCSV(csvPath)
			if err != nil {
				return err
			}

			usable := 0
			for _, rec := range records {
				if _, err := catalog.Describe(rec); err == nil {
					usable++
				}
			}

			logger.Info().
				Str("csv", csvPath).
				Int("rows", len(records)).
				Int("usable", usable).
				Msg("Ingesting inventory")

			repo, err := openRepository(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer repo.Close()

			if err := repo.ReplaceAll(ctx, records); err != nil {
				return fmt.Errorf("store inventory: %w", err)
			}

			Success("Ingested %d vehicles (%d usable)", len(records), usable)
			if usable < len(records) {
				Error("%d rows are missing required fields and will be skipped at load", len(records)-usable)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to inventory CSV (required)")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

// newInventoryCmd creates the inventory subcommand.
func newInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Show the stored inventory size",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer repo.Close()

			n, err := repo.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count inventory: %w", err)
			}

			Info("Inventory holds %d vehicles", n)
			return nil
		},
	}
}

// readInventoryCSV parses the feed into records keyed by the header row.
func readInventoryCSV(path string) ([]catalog.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records []catalog.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		rec := make(catalog.Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
