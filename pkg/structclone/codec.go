package structclone

import (
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/structclone-go/pkg/metrics"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// codecFor 返回 t 的负载语法。
func codecFor(t Tag) (*tokenCodec, error) {
	if !t.Valid() {
		return nil, merr.WrapErrInvalidTag("tag", byte(t))
	}
	c := codecs[t]
	if c == nil {
		return nil, merr.WrapErrNotImplemented(t.String())
	}
	return c, nil
}

// errorKind 返回编解码失败对应的监控标签。
func errorKind(err error) string {
	switch {
	case errors.Is(err, merr.ErrInvalidTag):
		return "invalid_tag"
	case errors.Is(err, merr.ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, merr.ErrNotImplemented):
		return "not_implemented"
	case errors.Is(err, merr.ErrShortRead):
		return "short_read"
	case errors.Is(err, merr.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, merr.ErrIoFailed):
		return "io_failed"
	default:
		return "unknown"
	}
}

func observeToken(enabled bool, direction string, tok Token) {
	if !enabled {
		return
	}
	metrics.CodecTokens.WithLabelValues(direction, tok.Tag.String()).Inc()
	if n := len(tok.Bytes); n > 0 {
		metrics.CodecPayloadBytes.WithLabelValues(direction).Add(float64(n))
	}
}

func observeError(enabled bool, direction string, err error) {
	if !enabled {
		return
	}
	metrics.CodecErrors.WithLabelValues(direction, errorKind(err)).Inc()
}
