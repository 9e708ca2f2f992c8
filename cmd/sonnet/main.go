// Command sonnet plays a poem run against the sonnet API in the terminal
// and browses the poem archive.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PabloGalante/symbiotic-sonnet/internal/adapters/apiclient"
	"github.com/PabloGalante/symbiotic-sonnet/internal/config"
	"github.com/PabloGalante/symbiotic-sonnet/internal/observability"
)

var (
	// Global flags
	verbose bool
	apiURL  string
	timeout time.Duration

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sonnet",
	Short: "Co-write a four-line poem with a language model",
	Long: `sonnet asks the sonnet API for one line at a time, pacing the lines
like the browser client does, and prints each line tinted with the colors
the model chose for it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			observability.Init("debug")
		} else {
			observability.SetLogger(zap.NewNop())
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if apiURL != "" {
			cfg.Client.APIURL = apiURL
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Sonnet API base URL (or set SONNET_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "Per-request timeout")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(poemsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAPIClient() *apiclient.Client {
	return apiclient.New(cfg.Client.APIURL, &http.Client{Timeout: timeout})
}
