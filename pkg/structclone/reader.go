package structclone

import (
	"io"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/structclone-go/pkg/log"
	"github.com/lk2023060901/structclone-go/pkg/metrics"
	"github.com/lk2023060901/structclone-go/pkg/structclone/encoding"
	"github.com/lk2023060901/structclone-go/pkg/structclone/stream"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// Reader 从 Source 解码 token，非并发安全，每个 goroutine 应持有各自的 Reader。
type Reader struct {
	log.Binder

	src   stream.Source
	opts  options
	state state
}

// NewReader 创建从 src 读取 token 的 Reader。
func NewReader(src stream.Source, opts ...Option) *Reader {
	r := &Reader{
		src:  src,
		opts: newOptions(opts),
	}
	r.state.fixedLen = r.opts.fixedStringLength
	r.SetComponent("structclone.reader")
	if r.opts.logger != nil {
		r.SetLogger(r.opts.logger)
	}
	return r
}

// ReadTag 读取一个标签字节。读取前数据已耗尽时，返回的错误同时匹配
// io.EOF 与 merr.ErrShortRead，表示流正常结束。
func (r *Reader) ReadTag() (Tag, error) {
	b, err := r.src.ReadByte()
	if err != nil {
		if errors.Is(err, merr.ErrShortRead) {
			return 0, merr.Combine(io.EOF, err)
		}
		return 0, err
	}
	return ParseTag(b)
}

// ReadVarint 读取一个 base-128 varint。
func (r *Reader) ReadVarint() (uint64, error) {
	return encoding.DecodeVarint(r.src)
}

// ReadToken 读取一个标签及其负载。负载中的错误不会匹配 io.EOF，
// 在 token 中间截断的流不会被误认为正常结束。
func (r *Reader) ReadToken() (Token, error) {
	tag, err := r.ReadTag()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			r.fail(err)
		}
		return Token{}, err
	}

	c, err := codecFor(tag)
	if err != nil {
		r.fail(err, log.FieldTag(tag))
		return Token{}, err
	}
	tok := Token{Tag: tag}
	if err := c.read(r.src, &r.state, &tok); err != nil {
		r.fail(err, log.FieldTag(tag))
		return Token{}, err
	}

	observeToken(r.opts.metrics, metrics.ReadLabel, tok)
	r.Logger().Debug("token decoded", zap.Stringer("token", tok))
	return tok, nil
}

// Version 返回最近一次读到的 VERSION 负载。
func (r *Reader) Version() (uint64, bool) {
	return r.state.version, r.state.hasVersion
}

func (r *Reader) fail(err error, fields ...zap.Field) {
	observeError(r.opts.metrics, metrics.ReadLabel, err)
	r.Logger().RatedWarn(1, "failed to read token", append(fields, zap.Error(err))...)
}
