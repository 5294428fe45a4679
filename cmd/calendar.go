package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"

	"github.com/seorin-dev/moodlog/internal/color"
	"github.com/seorin-dev/moodlog/internal/config"
	"github.com/seorin-dev/moodlog/internal/models"
	"github.com/seorin-dev/moodlog/internal/store"
)

var (
	calendarYear  int
	calendarMonth int
	calendarJSON  bool
	calendarToon  bool
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show a month of moods, grouped by day",
	Long: `Group one month's records by day, oldest day first.

Example:
  moodlog calendar                   # current month
  moodlog calendar --year 2025 --month 6
  moodlog calendar --toon`,
	RunE: runCalendar,
}

func init() {
	rootCmd.AddCommand(calendarCmd)

	now := time.Now()
	calendarCmd.Flags().IntVar(&calendarYear, "year", now.Year(), "Year to show")
	calendarCmd.Flags().IntVar(&calendarMonth, "month", int(now.Month()), "Month to show (1-12)")
	calendarCmd.Flags().BoolVar(&calendarJSON, "json", false, "Output as JSON")
	calendarCmd.Flags().BoolVar(&calendarToon, "toon", false, "Output in LLM-friendly toon format")
}

type calendarOutput struct {
	Year  int                             `json:"year"`
	Month int                             `json:"month"`
	Days  map[string][]*models.MoodRecord `json:"days"`
}

func runCalendar(cmd *cobra.Command, args []string) error {
	st := store.New(config.GetDataPath())

	days, err := st.CalendarAggregate(calendarYear, calendarMonth)
	if err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}

	// Output JSON if requested
	if calendarJSON {
		output, err := json.MarshalIndent(calendarOutput{calendarYear, calendarMonth, days}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	// Output Toon if requested
	if calendarToon {
		output, err := gotoon.Encode(calendarOutput{calendarYear, calendarMonth, days})
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	if len(days) == 0 {
		fmt.Printf("No records in %04d-%02d\n", calendarYear, calendarMonth)
		return nil
	}

	keys := make([]string, 0, len(days))
	for day := range days {
		keys = append(keys, day)
	}
	sort.Strings(keys)

	for _, day := range keys {
		records := days[day]
		fmt.Printf("%s  (%d record(s))\n", day, len(records))
		for _, rec := range records {
			hhmm := "--:--"
			if t, err := rec.Time(); err == nil {
				hhmm = t.Format("15:04")
			}
			fmt.Printf("  %s  %-12s %s\n", hhmm, color.Label(rec.Color()), rec.MoodText)
		}
		fmt.Println()
	}
	return nil
}
