package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/internal/app"
	"github.com/nfrund/hermes/internal/storage"
)

var (
	playStream    bool
	playChunkSize int
	playWatch     string
)

var playCmd = &cobra.Command{
	Use:   "play [file.wav]",
	Short: "Play a WAV file on a site",
	Long: `Send a WAV file to the audio server of the configured site and wait until
it reports playFinished (or streamFinished with --stream).

With --watch, every WAV file written to the directory is played as it appears.

Examples:
  hermes-cli play ding.wav --site kitchen
  hermes-cli play announcement.wav --stream --chunk-size 8192
  hermes-cli play --watch ./outbox`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (playWatch == "") == (len(args) == 0) {
			return fmt.Errorf("pass either a file or --watch <dir>")
		}

		deps, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		out := cmd.OutOrStdout()
		if playWatch == "" {
			return playFile(cmd.Context(), deps, out, args[0])
		}

		fmt.Fprintf(out, "watching %s for WAV files\n", playWatch)
		return storage.WatchWAV(cmd.Context(), playWatch, storage.DefaultSettle, func(path string) {
			if err := playFile(cmd.Context(), deps, out, path); err != nil {
				slog.Error("failed to play file", "path", path, "error", err)
			}
		})
	},
}

func playFile(ctx context.Context, deps *app.Dependencies, out io.Writer, path string) error {
	wav, env, err := audioStore().LoadWAV(ctx, path)
	if err != nil {
		return err
	}
	site := deps.Config.SiteID
	audioServer := deps.Client.AudioServer

	if playStream {
		id := deps.Client.NewID()
		finished, err := audioServer.Stream(ctx, site, id, storage.Chunks(wav, playChunkSize), 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "streamed %s (%s) as %s\n", path, env.Duration(), finished.ID)
		return nil
	}

	finished, err := audioServer.PlayBytesAndWait(ctx, site, wav, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "played %s (%s) as %s\n", path, env.Duration(), finished.ID)
	return nil
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolVar(&playStream, "stream", false, "Send the file as playBytesStreaming chunks")
	playCmd.Flags().IntVar(&playChunkSize, "chunk-size", 16384, "Chunk size in bytes for --stream")
	playCmd.Flags().StringVar(&playWatch, "watch", "", "Play every WAV file written to this directory")
}
