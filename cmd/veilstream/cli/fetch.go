package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veilstream/veilstream"
)

var (
	fetchResource    string
	fetchRole        string
	fetchAuthID      string
	fetchContentType string
	fetchOutput      string
	fetchLocked      bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <blob-id>",
	Short: "Fetch and decode content",
	Long: `Fetch downloads content by blob id. Public content is written as-is;
access-gated content is decrypted through the entitlement pipeline, which
requires a wallet key and a valid credential for the space.

Examples:
  veilstream fetch b1Abc... > article.md
  veilstream fetch --locked --resource 4f2a... --role subscriber --auth 0x9d... b1Abc... -o video.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchLocked, "locked", false, "Content is access-gated")
	fetchCmd.Flags().StringVar(&fetchResource, "resource", "", "Resource id (required for gated content)")
	fetchCmd.Flags().StringVar(&fetchRole, "role", "subscriber", "Access role: creator or subscriber")
	fetchCmd.Flags().StringVar(&fetchAuthID, "auth", "", "Credential object id backing the role")
	fetchCmd.Flags().StringVar(&fetchContentType, "content-type", "application/octet-stream", "Declared MIME type")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(_ *cobra.Command, args []string) error {
	blobID := args[0]

	role := veilstream.RoleSubscriber
	if fetchRole == "creator" {
		role = veilstream.RoleCreator
	}

	client, err := newClient(fetchLocked)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := client.LoadContent(ctx, veilstream.ContentRequest{
		BlobID:      blobID,
		ResourceID:  fetchResource,
		ContentType: fetchContentType,
		Locked:      fetchLocked,
		Role:        role,
		AuthID:      fetchAuthID,
	})
	if err != nil {
		return err
	}

	data := res.Data
	if res.Text != "" {
		data = []byte(res.Text)
	}

	if fetchOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(fetchOutput, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", len(data), fetchOutput)
	return nil
}
