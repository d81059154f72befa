package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <namespace>",
	Short: "Watch a space for newly published content",
	Long: `Watch polls the ledger for content creation events in the given
space and prints each new item. Runs until interrupted.

Examples:
  veilstream watch 0x4f2a...`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, args []string) error {
	namespaceID := args[0]

	client, err := newClient(false)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	events, err := client.WatchNamespace(ctx, namespaceID)
	if err != nil {
		return err
	}

	for ev := range events {
		fmt.Printf("%s  %-24s blob=%s resource=%s\n",
			ev.CreatedAt.Format("2006-01-02 15:04:05"), ev.ContentType, ev.BlobID, ev.ResourceID)
	}
	return nil
}
