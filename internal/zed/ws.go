package zed

import (
	"context"
	"time"

	"github.com/zedopen/zedcapture/internal/api/ws"
	"github.com/zedopen/zedcapture/pkg/mjpeg"
)

var statsInterval = time.Second

// wsStats sends session info every second until the client goes away
func wsStats(tr *ws.Transport, _ *ws.Message) error {
	ctx, cancel := context.WithCancel(context.Background())
	tr.OnClose(cancel)

	go func() {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()

		for {
			if err := tr.WriteErr(&ws.Message{Type: "zed/stats", Value: camera.info()}); err != nil {
				cancel()
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return nil
}

// wsFrames answers with a zed/frames message and then streams binary JPEG frames
func wsFrames(tr *ws.Transport, msg *ws.Message) error {
	var opts struct {
		Quality int `json:"quality"`
	}
	if msg.Raw != nil {
		_ = msg.Unmarshal(&opts)
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = camera.config().Quality
	}

	ctx, cancel := context.WithCancel(context.Background())
	tr.OnClose(cancel)

	tr.Write(&ws.Message{Type: "zed/frames", Value: camera.info()})

	go func() {
		defer cancel()

		for {
			f, err := camera.hub.Next(ctx)
			if err != nil {
				return
			}

			b, err := mjpeg.EncodeBytes(f.Data, f.Width, f.Height, f.ColorSpace, opts.Quality)
			if err != nil {
				log.Warn().Err(err).Msg("[zed] encode")
				return
			}

			if err = tr.WriteErr(b); err != nil {
				return
			}
		}
	}()

	return nil
}
