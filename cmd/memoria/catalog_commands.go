package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"memoria/internal/catalog"
	"memoria/internal/config"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and manage the recording catalog",
	}

	catalogCmd.AddCommand(newCategoriesCommand(ctx))
	catalogCmd.AddCommand(newRecordingsCommand(ctx))
	catalogCmd.AddCommand(newReassignCommand(ctx))

	return catalogCmd
}

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				categories, err := store.ListCategories(cmd.Context())
				if err != nil {
					return fmt.Errorf("list categories: %w", err)
				}
				if len(categories) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No categories yet.")
					return nil
				}
				rows := make([][]string, 0, len(categories))
				for _, category := range categories {
					announcement := category.NameAudioPath
					if announcement == "" {
						announcement = "-"
					}
					rows = append(rows, []string{
						strconv.FormatInt(category.ID, 10),
						category.Name,
						announcement,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(),
					renderTable([]string{"ID", "Name", "Announcement"}, rows, 1))
				return nil
			})
		},
	}
}

func newRecordingsCommand(ctx *commandContext) *cobra.Command {
	var categoryID int64
	var year int

	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "List recordings, optionally filtered by category or year",
		RunE: func(cmd *cobra.Command, args []string) error {
			if categoryID > 0 && year > 0 {
				return fmt.Errorf("--category and --year are mutually exclusive")
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				var (
					recordings []catalog.Recording
					err        error
				)
				switch {
				case categoryID > 0:
					recordings, err = store.RecordingsByCategory(cmd.Context(), categoryID)
				case year > 0:
					recordings, err = store.RecordingsByYear(cmd.Context(), year)
				default:
					recordings, err = store.ListRecordings(cmd.Context())
				}
				if err != nil {
					return fmt.Errorf("list recordings: %w", err)
				}
				if len(recordings) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No recordings found.")
					return nil
				}
				rows := make([][]string, 0, len(recordings))
				for _, recording := range recordings {
					rows = append(rows, []string{
						strconv.FormatInt(recording.ID, 10),
						recording.CreationDate.Format("2006-01-02 15:04"),
						strconv.FormatInt(recording.CategoryID, 10),
						summarize(recording.Transcription, 60),
						recording.FilePath,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(),
					renderTable([]string{"ID", "Created", "Category", "Transcription", "File"}, rows, 1, 3))
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&categoryID, "category", 0, "Only recordings in this category id")
	cmd.Flags().IntVar(&year, "year", 0, "Only recordings created in this year")
	return cmd
}

func newReassignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reassign <recording-id> <category-id>",
		Short: "Move a recording into a different category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordingID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid recording id %q", args[0])
			}
			categoryID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category id %q", args[1])
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				if err := store.UpdateRecordingCategory(cmd.Context(), recordingID, categoryID); err != nil {
					return fmt.Errorf("reassign recording: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recording %d moved to category %d\n", recordingID, categoryID)
				return nil
			})
		},
	}
}

func summarize(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= limit {
		return text
	}
	return text[:limit-3] + "..."
}
