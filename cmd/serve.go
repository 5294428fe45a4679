package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/seorin-dev/moodlog/internal/ai"
	"github.com/seorin-dev/moodlog/internal/config"
	"github.com/seorin-dev/moodlog/internal/flow"
	"github.com/seorin-dev/moodlog/internal/server"
	"github.com/seorin-dev/moodlog/internal/session"
	"github.com/seorin-dev/moodlog/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mood journal HTTP server",
	Long: `Start the JSON API that drives the recording flow.

The server tracks each visitor's draft with a session cookie. Records
are appended to the JSONL log configured under [storage].

Example:
  moodlog serve
  moodlog serve --addr :9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = config.GetServerAddr()
	}

	var collab ai.Collaborator = ai.Disabled{}
	if config.GetAIEnabled() {
		if !ai.IsAvailable(config.GetOllamaURL()) {
			fmt.Fprintln(os.Stderr, "Warning: Ollama is not reachable, AI companion disabled")
		} else {
			client, err := ai.NewClient(
				config.GetOllamaURL(),
				config.GetAIModel(),
				config.GetAIVisionModel(),
				config.GetAITimeout(),
			)
			if err != nil {
				return fmt.Errorf("failed to create ai client: %w", err)
			}
			collab = client
		}
	}

	st := store.New(config.GetDataPath())
	f := flow.New(st, collab, session.NewManager(), config.GetDailyMax(), config.GetUploadDir())

	srv := server.New(server.Options{
		Flow:      f,
		Store:     st,
		UploadDir: config.GetUploadDir(),
		DefaultN:  config.GetHistoryDefaultN(),
		MaxN:      config.GetHistoryMaxN(),
	})

	fmt.Printf("Mood log: %s\n", st.Path())
	fmt.Printf("Listening on %s\n", addr)

	if err := http.ListenAndServe(addr, srv); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
