package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"

	"github.com/seorin-dev/moodlog/internal/color"
	"github.com/seorin-dev/moodlog/internal/config"
	"github.com/seorin-dev/moodlog/internal/models"
	"github.com/seorin-dev/moodlog/internal/store"
)

var (
	historyN    int
	historyDate string
	historyJSON bool
	historyToon bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent mood records",
	Long: `Show the most recent records, newest first.

Example:
  moodlog history            # the latest record
  moodlog history -n 7       # the last week of records
  moodlog history --date 2025-06-15
  moodlog history -n 7 --json`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyN, "number", "n", 0, "How many records to show (default from config)")
	historyCmd.Flags().StringVar(&historyDate, "date", "", "Show all records of one day (YYYY-MM-DD)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	historyCmd.Flags().BoolVar(&historyToon, "toon", false, "Output in LLM-friendly toon format")
}

func runHistory(cmd *cobra.Command, args []string) error {
	st := store.New(config.GetDataPath())

	var records []*models.MoodRecord
	var err error

	if historyDate != "" {
		if _, perr := time.Parse(models.DateLayout, historyDate); perr != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", historyDate)
		}
		records, err = st.ReadByDate(historyDate)
	} else {
		n := historyN
		if n == 0 {
			n = config.GetHistoryDefaultN()
		}
		if n < 1 {
			n = 1
		}
		if max := config.GetHistoryMaxN(); n > max {
			n = max
		}
		records, err = st.ReadLastN(n)
	}
	if err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}

	// Output JSON if requested
	if historyJSON {
		output, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	// Output Toon if requested
	if historyToon {
		output, err := gotoon.Encode(records)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No records found")
		return nil
	}

	for _, rec := range records {
		printRecord(rec)
		fmt.Println()
	}
	return nil
}

func printRecord(rec *models.MoodRecord) {
	fmt.Printf("%s  %s (%s)\n", rec.DateTime, rec.Color(), color.Label(rec.Color()))
	fmt.Printf("  Mood:  %s\n", rec.MoodText)
	fmt.Printf("  Mode:  %s\n", rec.Mode)

	switch rec.Mode {
	case models.ModeWrite:
		if rec.TextContent != nil && *rec.TextContent != "" {
			fmt.Printf("  Text:  %s\n", *rec.TextContent)
		}
	case models.ModeDraw:
		if rec.DrawNote != nil && *rec.DrawNote != "" {
			fmt.Printf("  Note:  %s\n", *rec.DrawNote)
		}
		if rec.ImageFilename != nil {
			fmt.Printf("  Image: %s\n", *rec.ImageFilename)
		}
	case models.ModeMusic:
		if rec.MusicKeywords != nil {
			fmt.Printf("  Music: %s\n", *rec.MusicKeywords)
		}
	}

	if rec.FinalColor != "" {
		fmt.Printf("  Color: %s (intensity %.2f)\n", rec.FinalColor, rec.ColorIntensity)
	}
	if rec.AIUsed {
		fmt.Printf("  AI:    %d interaction(s)\n", rec.AIInteractionCount)
	}
}
