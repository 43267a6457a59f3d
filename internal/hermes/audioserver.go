package hermes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nfrund/hermes/internal/audio"
	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
)

// AudioServer exchanges captured and played audio with a site.
type AudioServer struct {
	c *Client
}

func siteParams(siteID string) topicmgr.Params {
	if siteID == "" {
		return nil
	}
	return topicmgr.Params{"siteId": siteID}
}

func (a *AudioServer) Load(ctx context.Context, siteID string) error {
	return publishJSON(ctx, a.c, TopicAudioServerLoad, nil, SiteMessage{SiteID: siteID})
}

func (a *AudioServer) OnLoad(handler Handler[SiteMessage]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicAudioServerLoad, nil, handler)
}

// AudioFrame publishes an already encoded frame for siteID.
func (a *AudioServer) AudioFrame(ctx context.Context, siteID string, frame []byte) error {
	return publishRaw(ctx, a.c, TopicAudioFrame, siteParams(siteID), frame)
}

// SendAudio wraps pcm in an audio envelope and publishes it as a frame.
func (a *AudioServer) SendAudio(ctx context.Context, siteID string, pcm []byte, opts audio.Options) error {
	frame, err := audio.Encode(pcm, opts)
	if err != nil {
		return err
	}
	return a.AudioFrame(ctx, siteID, frame)
}

// OnAudioFrame subscribes to frames of siteID, or of every site when it is empty.
func (a *AudioServer) OnAudioFrame(siteID string, handler Handler[AudioFrame]) (*pubsub.Listener, error) {
	if handler == nil {
		return nil, errNilHandler
	}
	return onRaw(a.c, TopicAudioFrame, siteParams(siteID), func(ctx context.Context, params topicmgr.Params, payload []byte) error {
		return handler(ctx, AudioFrame{SiteID: params["siteId"], Audio: payload})
	})
}

// PlayBytes asks siteID to play a WAV file. An empty id is replaced by a
// fresh one, which is returned.
func (a *AudioServer) PlayBytes(ctx context.Context, siteID, id string, wav []byte) (string, error) {
	if id == "" {
		id = a.c.NewID()
	}
	a.c.logger.Debug("playing bytes", "id", id, "site_id", siteID, "bytes", len(wav))
	return id, publishRaw(ctx, a.c, TopicPlayBytes, topicmgr.Params{"siteId": siteID, "id": id}, wav)
}

// PlayBytesAndWait plays wav and blocks until siteID reports playFinished
// for it. A zero timeout uses the client default.
func (a *AudioServer) PlayBytesAndWait(ctx context.Context, siteID string, wav []byte, timeout time.Duration) (PlayFinished, error) {
	id := a.c.NewID()
	pattern, err := TopicPlayFinished.Format(siteParams(siteID))
	if err != nil {
		return PlayFinished{}, err
	}
	w, err := a.c.engine.Expect(pattern, pubsub.FieldEquals("id", id), a.c.requestTimeout(timeout))
	if err != nil {
		return PlayFinished{}, err
	}

	res, err := a.c.request(ctx, w, func() error {
		_, err := a.PlayBytes(ctx, siteID, id, wav)
		return err
	})
	if err != nil {
		return PlayFinished{}, fmt.Errorf("play %s on %s: %w", id, siteID, err)
	}
	return decodeJSON[PlayFinished](res)
}

// OnPlayBytes subscribes to play requests for siteID, or for every site when it is empty.
func (a *AudioServer) OnPlayBytes(siteID string, handler Handler[PlayBytes]) (*pubsub.Listener, error) {
	if handler == nil {
		return nil, errNilHandler
	}
	return onRaw(a.c, TopicPlayBytes, siteParams(siteID), func(ctx context.Context, params topicmgr.Params, payload []byte) error {
		return handler(ctx, PlayBytes{SiteID: params["siteId"], ID: params["id"], Audio: payload})
	})
}

func (a *AudioServer) PlayFinished(ctx context.Context, msg PlayFinished) error {
	return publishJSON(ctx, a.c, TopicPlayFinished, topicmgr.Params{"siteId": msg.SiteID}, msg)
}

func (a *AudioServer) OnPlayFinished(siteID string, handler Handler[PlayFinished]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicPlayFinished, siteParams(siteID), handler)
}

// PlayBytesStream publishes one chunk of a streamed playback.
func (a *AudioServer) PlayBytesStream(ctx context.Context, chunk PlayBytesChunk) error {
	if chunk.Index < 0 {
		return fmt.Errorf("stream %s: negative chunk index %d", chunk.ID, chunk.Index)
	}
	last := "0"
	if chunk.IsLastChunk {
		last = "1"
	}
	return publishRaw(ctx, a.c, TopicPlayBytesStreaming, topicmgr.Params{
		"siteId":      chunk.SiteID,
		"id":          chunk.ID,
		"index":       strconv.Itoa(chunk.Index),
		"isLastChunk": last,
	}, chunk.Audio)
}

// OnPlayBytesStream subscribes to streamed chunks for siteID, or for every
// site when it is empty. Chunks with a malformed index or last-chunk flag
// fail with a *DecodeError.
func (a *AudioServer) OnPlayBytesStream(siteID string, handler Handler[PlayBytesChunk]) (*pubsub.Listener, error) {
	if handler == nil {
		return nil, errNilHandler
	}
	return onRaw(a.c, TopicPlayBytesStreaming, siteParams(siteID), func(ctx context.Context, params topicmgr.Params, payload []byte) error {
		index, err := strconv.Atoi(params["index"])
		if err != nil || index < 0 {
			return &DecodeError{Topic: TopicPlayBytesStreaming.Name(), Err: fmt.Errorf("invalid chunk index %q", params["index"])}
		}
		var last bool
		switch params["isLastChunk"] {
		case "1":
			last = true
		case "0":
		default:
			return &DecodeError{Topic: TopicPlayBytesStreaming.Name(), Err: fmt.Errorf("invalid last chunk flag %q", params["isLastChunk"])}
		}
		return handler(ctx, PlayBytesChunk{
			SiteID:      params["siteId"],
			ID:          params["id"],
			Index:       index,
			IsLastChunk: last,
			Audio:       payload,
		})
	})
}

// Stream publishes chunks as one streamed playback and blocks until siteID
// reports streamFinished. An empty id is replaced by a fresh one.
func (a *AudioServer) Stream(ctx context.Context, siteID, id string, chunks [][]byte, timeout time.Duration) (PlayFinished, error) {
	if len(chunks) == 0 {
		return PlayFinished{}, fmt.Errorf("stream on %s: no chunks", siteID)
	}
	if id == "" {
		id = a.c.NewID()
	}
	w, err := a.ExpectStreamFinished(siteID, id, timeout)
	if err != nil {
		return PlayFinished{}, err
	}

	res, err := a.c.request(ctx, w, func() error {
		for i, data := range chunks {
			err := a.PlayBytesStream(ctx, PlayBytesChunk{
				SiteID:      siteID,
				ID:          id,
				Index:       i,
				IsLastChunk: i == len(chunks)-1,
				Audio:       data,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PlayFinished{}, fmt.Errorf("stream %s on %s: %w", id, siteID, err)
	}
	return decodeJSON[PlayFinished](res)
}

// ExpectStreamFinished starts waiting for the streamFinished of stream id on siteID.
func (a *AudioServer) ExpectStreamFinished(siteID, id string, timeout time.Duration) (*pubsub.Wait, error) {
	pattern, err := TopicStreamFinished.Format(siteParams(siteID))
	if err != nil {
		return nil, err
	}
	a.c.logger.Debug("waiting for stream finished", "id", id, "site_id", siteID)
	return a.c.engine.Expect(pattern, pubsub.FieldEquals("id", id), a.c.requestTimeout(timeout))
}

// WaitForStreamFinished blocks until siteID reports streamFinished for id.
func (a *AudioServer) WaitForStreamFinished(ctx context.Context, siteID, id string, timeout time.Duration) (PlayFinished, error) {
	w, err := a.ExpectStreamFinished(siteID, id, timeout)
	if err != nil {
		return PlayFinished{}, err
	}
	res, err := w.Result(ctx)
	if err != nil {
		return PlayFinished{}, err
	}
	return decodeJSON[PlayFinished](res)
}

func (a *AudioServer) StreamFinished(ctx context.Context, msg PlayFinished) error {
	return publishJSON(ctx, a.c, TopicStreamFinished, topicmgr.Params{"siteId": msg.SiteID}, msg)
}

func (a *AudioServer) OnStreamFinished(siteID string, handler Handler[PlayFinished]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicStreamFinished, siteParams(siteID), handler)
}

// ReplayRequest asks siteID to replay its captured frames from msg.StartAtMS.
// Replayed frames carry msg.RequestID in their rpid chunk.
func (a *AudioServer) ReplayRequest(ctx context.Context, msg ReplayRequest) error {
	if msg.RequestID == "" {
		msg.RequestID = a.c.NewID()
	}
	return publishJSON(ctx, a.c, TopicReplayRequest, topicmgr.Params{"siteId": msg.SiteID}, msg)
}

func (a *AudioServer) OnReplayRequest(siteID string, handler Handler[ReplayRequest]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicReplayRequest, siteParams(siteID), handler)
}

func (a *AudioServer) Error(ctx context.Context, msg ComponentError) error {
	a.c.logger.Error("audio server error", "site_id", msg.SiteID, "error", msg.Error)
	return publishJSON(ctx, a.c, TopicAudioServerError, nil, msg)
}

func (a *AudioServer) OnError(handler Handler[ComponentError]) (*pubsub.Listener, error) {
	return onJSON(a.c, TopicAudioServerError, nil, handler)
}
