package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nfrund/hermes/internal/audio"
)

const framesDir = "frames"

// ErrInvalidSite is returned for site ids that cannot be used as a directory name.
var ErrInvalidSite = errors.New("invalid site id")

// AudioStore records audio frames and loads WAV files for playback.
type AudioStore struct {
	store Store
}

// NewAudioStore creates an AudioStore on top of store.
func NewAudioStore(store Store) *AudioStore {
	return &AudioStore{store: store}
}

func siteDir(siteID string) (string, error) {
	if siteID == "" || siteID == "." || strings.ContainsAny(siteID, `/\~`) || strings.Contains(siteID, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSite, siteID)
	}
	return filepath.Join(framesDir, siteID), nil
}

// SaveFrame validates frame as an audio envelope and stores it under the
// site's directory. Frames carrying a time chunk are named after it so that
// listing returns them in capture order; others get a random name.
func (s *AudioStore) SaveFrame(ctx context.Context, siteID string, frame []byte) (string, error) {
	dir, err := siteDir(siteID)
	if err != nil {
		return "", err
	}
	env, err := audio.Decode(frame)
	if err != nil {
		return "", fmt.Errorf("save frame: %w", err)
	}

	name := uuid.NewString()
	if env.TimeMS != nil {
		name = fmt.Sprintf("%020d-%s", *env.TimeMS, name[:8])
	}
	path := filepath.Join(dir, name+".wav")

	if _, err := s.store.Save(ctx, path, bytes.NewReader(frame)); err != nil {
		return "", fmt.Errorf("save frame %s: %w", path, err)
	}
	return path, nil
}

// Frames lists the stored frames of a site, oldest first for timestamped frames.
func (s *AudioStore) Frames(ctx context.Context, siteID string) ([]string, error) {
	dir, err := siteDir(siteID)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, dir)
}

// LoadWAV reads a WAV file and checks that it decodes as an audio envelope.
func (s *AudioStore) LoadWAV(ctx context.Context, path string) ([]byte, *audio.Envelope, error) {
	rc, err := s.store.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	env, err := audio.Decode(b)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	return b, env, nil
}

// Chunks splits a WAV file into playback chunks of at most size bytes.
func Chunks(wav []byte, size int) [][]byte {
	if size <= 0 || len(wav) <= size {
		return [][]byte{wav}
	}
	chunks := make([][]byte, 0, (len(wav)+size-1)/size)
	for len(wav) > 0 {
		n := min(size, len(wav))
		chunks = append(chunks, wav[:n])
		wav = wav[n:]
	}
	return chunks
}

// FrameName returns the base name of a stored frame without its extension.
func FrameName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".wav")
}

// FrameTime extracts the capture time encoded in a stored frame name.
func FrameTime(path string) (uint64, bool) {
	name := FrameName(path)
	prefix, _, ok := strings.Cut(name, "-")
	if !ok || len(prefix) != 20 {
		return 0, false
	}
	ms, err := strconv.ParseUint(prefix, 10, 64)
	return ms, err == nil
}
