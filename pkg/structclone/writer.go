package structclone

import (
	"go.uber.org/zap"

	"github.com/lk2023060901/structclone-go/pkg/log"
	"github.com/lk2023060901/structclone-go/pkg/metrics"
	"github.com/lk2023060901/structclone-go/pkg/structclone/stream"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// Writer 将 token 编码写入 Sink。
//
// WriteToken 在写出第一个字节前完成全部校验，被拒绝的 token 不会改动 sink。
// 标签字节写出后发生的传输错误不会回滚；目标不允许出现半个 token 时，
// 应通过 stream.Stage 写入并逐个 token 提交。
type Writer struct {
	log.Binder

	dst   stream.Sink
	opts  options
	state state
}

// NewWriter 创建向 dst 写出 token 的 Writer。
func NewWriter(dst stream.Sink, opts ...Option) *Writer {
	w := &Writer{
		dst:  dst,
		opts: newOptions(opts),
	}
	w.state.fixedLen = w.opts.fixedStringLength
	w.SetComponent("structclone.writer")
	if w.opts.logger != nil {
		w.SetLogger(w.opts.logger)
	}
	return w
}

// WriteTag 写出一个标签字节。
func (w *Writer) WriteTag(t Tag) error {
	if !t.Valid() {
		return merr.WrapErrInvalidTag("tag", byte(t))
	}
	return w.dst.WriteByte(byte(t))
}

// WriteVarint 以 base-128 varint 写出 v。
func (w *Writer) WriteVarint(v uint64) error {
	return writeVarint(w.dst, v)
}

// WriteToken 写出 tok 的标签及其负载。
func (w *Writer) WriteToken(tok Token) error {
	c, err := codecFor(tok.Tag)
	if err != nil {
		w.fail(err, tok)
		return err
	}
	if c.check != nil {
		if err := c.check(&w.state, tok); err != nil {
			w.fail(err, tok)
			return err
		}
	}
	if err := w.WriteTag(tok.Tag); err != nil {
		w.fail(err, tok)
		return err
	}
	if err := c.write(w.dst, &w.state, tok); err != nil {
		w.fail(err, tok)
		return err
	}

	observeToken(w.opts.metrics, metrics.WriteLabel, tok)
	w.Logger().Debug("token encoded", zap.Stringer("token", tok))
	return nil
}

// WriteTokens 依次写出 toks，遇到第一个错误即停止。
func (w *Writer) WriteTokens(toks ...Token) error {
	for _, tok := range toks {
		if err := w.WriteToken(tok); err != nil {
			return err
		}
	}
	return nil
}

// Version 返回最近一次写出的 VERSION 负载。
func (w *Writer) Version() (uint64, bool) {
	return w.state.version, w.state.hasVersion
}

func (w *Writer) fail(err error, tok Token) {
	observeError(w.opts.metrics, metrics.WriteLabel, err)
	w.Logger().RatedWarn(1, "failed to write token", log.FieldTag(tok.Tag), zap.Error(err))
}
