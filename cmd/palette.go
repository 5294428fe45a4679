package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"

	"github.com/seorin-dev/moodlog/internal/color"
)

var (
	paletteSteps int
	paletteJSON  bool
	paletteToon  bool
)

var paletteCmd = &cobra.Command{
	Use:   "palette [color]",
	Short: "Show the mood palette and intensity ramps",
	Long: `List every mood color, or show one color's intensity ramp from
its base tone up to the activity cap.

Example:
  moodlog palette
  moodlog palette pink --steps 5
  moodlog palette --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPalette,
}

func init() {
	rootCmd.AddCommand(paletteCmd)

	paletteCmd.Flags().IntVar(&paletteSteps, "steps", 5, "How many ramp steps to show")
	paletteCmd.Flags().BoolVar(&paletteJSON, "json", false, "Output as JSON")
	paletteCmd.Flags().BoolVar(&paletteToon, "toon", false, "Output in LLM-friendly toon format")
}

type paletteColor struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Hex   string `json:"hex"`
}

type paletteRamp struct {
	Name  string              `json:"name"`
	Label string              `json:"label"`
	Steps []color.PreviewStep `json:"steps"`
}

func runPalette(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		colors := make([]paletteColor, 0)
		for _, name := range color.Names() {
			colors = append(colors, paletteColor{name, color.Label(name), color.BaseHex(name)})
		}

		if paletteJSON || paletteToon {
			return printMachine(colors)
		}
		for _, c := range colors {
			fmt.Printf("  %-12s %-10s %s\n", c.Name, c.Label, c.Hex)
		}
		return nil
	}

	name := args[0]
	if !color.IsValid(name) {
		return fmt.Errorf("unknown mood color %q", name)
	}

	ramp := paletteRamp{name, color.Label(name), color.Preview(name, paletteSteps)}
	if paletteJSON || paletteToon {
		return printMachine(ramp)
	}

	fmt.Printf("%s (%s)\n", ramp.Name, ramp.Label)
	for _, step := range ramp.Steps {
		fmt.Printf("  %.2f  %s\n", step.Intensity, step.Hex)
	}
	return nil
}

// printMachine writes v in whichever machine format was requested.
func printMachine(v any) error {
	if paletteJSON {
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	output, err := gotoon.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode Toon: %w", err)
	}
	fmt.Println(output)
	return nil
}
