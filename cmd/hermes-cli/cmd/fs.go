package cmd

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/nfrund/hermes/internal/audio"
	"github.com/nfrund/hermes/internal/storage"
)

// fs is the filesystem commands read and write; tests swap in afero.NewMemMapFs.
var fs afero.Fs = afero.NewOsFs()

func audioStore() *storage.AudioStore {
	return storage.NewAudioStore(storage.NewAferoStore(fs))
}

// describePayload renders a payload for terminal output.
func describePayload(payload []byte) string {
	if audio.IsEnvelope(payload) {
		env, err := audio.Decode(payload)
		if err != nil {
			return fmt.Sprintf("<%d bytes, invalid audio: %v>", len(payload), err)
		}
		return fmt.Sprintf("<%d bytes audio, %d Hz, %d ch, %d bit, %s>",
			len(payload), env.SampleRate, env.Channels, env.BitDepth, env.Duration())
	}
	if len(payload) == 0 {
		return "<empty>"
	}
	for _, b := range payload {
		if b < 0x09 || (b > 0x0d && b < 0x20) {
			return fmt.Sprintf("<%d bytes>", len(payload))
		}
	}
	return string(payload)
}
