package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seorin-dev/moodlog/internal/testutil"
)

func TestHistoryMachineOutput(t *testing.T) {
	tl := testutil.NewTempLog(t)
	defer tl.Cleanup()
	tl.WriteRecord(testutil.Record("pink", time.Now()))

	viper.Set("storage.data_path", tl.Path)
	viper.Set("history.default_n", 1)
	viper.Set("history.max_n", 30)
	defer viper.Reset()

	// Reset flags
	historyN = 0
	historyDate = ""
	defer func() {
		historyJSON = false
		historyToon = false
	}()

	historyJSON = true
	historyToon = false
	if err := runHistory(nil, nil); err != nil {
		t.Fatalf("history --json failed: %v", err)
	}

	historyJSON = false
	historyToon = true
	if err := runHistory(nil, nil); err != nil {
		t.Fatalf("history --toon failed: %v", err)
	}
}

func TestPaletteMachineOutput(t *testing.T) {
	// Reset flags
	paletteSteps = 5
	defer func() {
		paletteJSON = false
		paletteToon = false
	}()

	paletteJSON = true
	paletteToon = false
	if err := runPalette(nil, nil); err != nil {
		t.Fatalf("palette --json failed: %v", err)
	}
	if err := runPalette(nil, []string{"pink"}); err != nil {
		t.Fatalf("palette pink --json failed: %v", err)
	}

	paletteJSON = false
	paletteToon = true
	if err := runPalette(nil, nil); err != nil {
		t.Fatalf("palette --toon failed: %v", err)
	}
}

func TestMachineOutputFlagsRegistered(t *testing.T) {
	for _, c := range []*cobra.Command{historyCmd, calendarCmd, paletteCmd} {
		for _, name := range []string{"json", "toon"} {
			if c.Flags().Lookup(name) == nil {
				t.Errorf("%s is missing --%s", c.Name(), name)
			}
		}
	}
}
