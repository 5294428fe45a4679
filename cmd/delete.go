package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seorin-dev/moodlog/internal/config"
	"github.com/seorin-dev/moodlog/internal/store"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <timestamp>",
	Short: "Remove one record from the log",
	Long: `Remove the record with the given timestamp key.

Deleting is how the daily record limit is freed up again: once three
records exist in a 24-hour window, one must go before a new entry can
be recorded.

Without --force this only shows what would be removed.

Example:
  moodlog delete 2025-06-15T21:30:00
  moodlog delete 2025-06-15T21:30:00 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Actually delete the record")
}

func runDelete(cmd *cobra.Command, args []string) error {
	key := args[0]
	st := store.New(config.GetDataPath())

	recs, err := st.ReadByDate(keyDate(key))
	if err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}

	var found bool
	for _, rec := range recs {
		if rec.DateTime == key {
			found = true
			fmt.Printf("Record at %s:\n", key)
			printRecord(rec)
			fmt.Println()
			break
		}
	}
	if !found {
		return fmt.Errorf("no record at %s", key)
	}

	if !deleteForce {
		fmt.Println("This is a dry run. Use --force to actually delete the record.")
		return nil
	}

	deleted, err := st.DeleteByKey(key)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if !deleted {
		return fmt.Errorf("no record at %s", key)
	}

	fmt.Printf("✓ Deleted record at %s\n", key)
	return nil
}

// keyDate extracts the day part of a timestamp key.
func keyDate(key string) string {
	if len(key) >= 10 {
		return key[:10]
	}
	return key
}
