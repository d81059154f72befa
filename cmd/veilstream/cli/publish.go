package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veilstream/veilstream"
)

var (
	publishNamespace string
	publishPlain     bool
	publishCompress  bool
	publishEpochs    int
)

var publishCmd = &cobra.Command{
	Use:   "publish <file>",
	Short: "Encrypt and store content for a space",
	Long: `Publish encrypts a file to the target space and stores it on the
blob network. Only holders of a valid entitlement for the space (its owner,
or an active subscriber) will be able to decrypt it.

Use --plain to store publicly readable content without encryption.

Examples:
  veilstream publish --namespace 0x4f2a... video.mp4
  veilstream publish --namespace 0x4f2a... --plain cover.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVarP(&publishNamespace, "namespace", "n", "", "Target space id (required)")
	publishCmd.Flags().BoolVar(&publishPlain, "plain", false, "Store without encryption (publicly readable)")
	publishCmd.Flags().BoolVar(&publishCompress, "compress", false, "Compress with zstd before encryption")
	publishCmd.Flags().IntVar(&publishEpochs, "epochs", 0, "Storage epochs (default from config)")
	//nolint:errcheck // flag exists
	publishCmd.MarkFlagRequired("namespace")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(_ *cobra.Command, args []string) error {
	path := args[0]

	client, err := newClient(false)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	epochs := publishEpochs
	if epochs == 0 {
		epochs = viper.GetInt("storage.epochs")
	}

	opts := []veilstream.UploadOption{
		veilstream.WithEncryption(!publishPlain),
		veilstream.WithUploadCompression(publishCompress),
		veilstream.WithStorageEpochs(epochs),
	}
	callback, finish := newUploadProgress(info.Size())
	if callback != nil {
		opts = append(opts, veilstream.WithUploadProgress(callback))
	}

	receipt, err := client.UploadContent(ctx, f, publishNamespace, opts...)
	finish()
	if err != nil {
		return err
	}

	fmt.Printf("Published %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
	fmt.Printf("  blob id:     %s\n", receipt.Blob.BlobID)
	if receipt.Blob.ObjectID != "" {
		fmt.Printf("  object id:   %s\n", receipt.Blob.ObjectID)
	}
	if receipt.Encrypted {
		fmt.Printf("  resource id: %s\n", receipt.ResourceID)
	} else {
		fmt.Println("  stored unencrypted")
	}
	return nil
}
