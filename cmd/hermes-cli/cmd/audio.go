package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/internal/audio"
)

var (
	wrapOutput    string
	wrapRate      uint32
	wrapChannels  uint16
	wrapBits      uint16
	wrapStreaming bool
	wrapReplayID  string
	wrapStamp     bool
)

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Inspect and build audio envelopes",
}

var audioInspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Decode an audio envelope and print its header",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := afero.ReadFile(fs, args[0])
		if err != nil {
			return err
		}
		env, err := audio.Decode(b)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Channels:    %d\n", env.Channels)
		fmt.Fprintf(out, "Sample rate: %d Hz\n", env.SampleRate)
		fmt.Fprintf(out, "Bit depth:   %d\n", env.BitDepth)
		fmt.Fprintf(out, "Data:        %d bytes (%s)\n", len(env.Data), env.Duration())
		if env.Streaming {
			fmt.Fprintln(out, "Streaming:   yes")
		}
		if t, ok := env.Time(); ok {
			fmt.Fprintf(out, "Time:        %s\n", t.UTC().Format(time.RFC3339Nano))
		}
		if env.ReplayID != "" {
			fmt.Fprintf(out, "Replay id:   %s\n", env.ReplayID)
		}
		if env.RemainingFrames != nil {
			fmt.Fprintf(out, "Remaining:   %d frames\n", *env.RemainingFrames)
		}
		return nil
	},
}

var audioWrapCmd = &cobra.Command{
	Use:   "wrap <pcm-file>",
	Short: "Wrap raw PCM samples in an audio envelope",
	Long: `Wrap raw little-endian PCM samples in a WAV envelope, optionally with the
time, replay id and streaming markers used by audio frames.

Example:
  hermes-cli audio wrap capture.raw -o capture.wav --rate 16000 --channels 1 --bits 16 --stamp`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pcm, err := afero.ReadFile(fs, args[0])
		if err != nil {
			return err
		}

		opts := audio.Options{
			Channels:   wrapChannels,
			SampleRate: wrapRate,
			BitDepth:   wrapBits,
			ReplayID:   wrapReplayID,
			Streaming:  wrapStreaming,
		}
		if wrapStamp {
			opts.TimeMS = audio.Timestamp(time.Now())
		}

		b, err := audio.Encode(pcm, opts)
		if err != nil {
			return err
		}

		output := wrapOutput
		if output == "" {
			output = args[0] + ".wav"
		}
		if err := afero.WriteFile(fs, output, b, 0644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(audioCmd)
	audioCmd.AddCommand(audioInspectCmd, audioWrapCmd)

	def := audio.DefaultOptions()
	f := audioWrapCmd.Flags()
	f.StringVarP(&wrapOutput, "output", "o", "", "Output file (default <pcm-file>.wav)")
	f.Uint32Var(&wrapRate, "rate", def.SampleRate, "Sample rate in Hz")
	f.Uint16Var(&wrapChannels, "channels", def.Channels, "Channel count")
	f.Uint16Var(&wrapBits, "bits", def.BitDepth, "Bits per sample")
	f.BoolVar(&wrapStreaming, "streaming", false, "Write the unknown-length marker")
	f.StringVar(&wrapReplayID, "replay-id", "", "Replay id chunk")
	f.BoolVar(&wrapStamp, "stamp", false, "Add a time chunk with the current time")
}
