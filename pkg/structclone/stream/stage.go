package stream

import (
	"io"
	"math"

	"github.com/valyala/bytebufferpool"

	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// Stage 是一个先在池化缓冲区中拼装字节、Commit 时一次性写入目标的 Sink。
// 每个 token 写入 Stage 后仅在成功时提交，目标中就不会出现写了一半的 token。
//
// 不再使用时必须调用 Release。
type Stage struct {
	dst  io.Writer
	opts options
	buf  *bytebufferpool.ByteBuffer
}

var _ Sink = (*Stage)(nil)

// NewStage 返回一个提交到 dst 的 Stage。
func NewStage(dst io.Writer, opts ...Option) *Stage {
	return &Stage{
		dst:  dst,
		opts: newOptions("stage", opts),
		buf:  bytebufferpool.Get(),
	}
}

// Buffered 返回已暂存但未提交的字节数。
func (s *Stage) Buffered() int {
	if s.buf == nil {
		return 0
	}
	return s.buf.Len()
}

// Bytes 返回暂存的字节，仅在下一次 Commit、Discard 或 Release 之前有效。
func (s *Stage) Bytes() []byte {
	if s.buf == nil {
		return nil
	}
	return s.buf.B
}

func (s *Stage) WriteBytes(p []byte) error {
	if s.buf == nil {
		return merr.WrapErrOperationNotSupported("write", "stage released")
	}
	_, _ = s.buf.Write(p)
	return nil
}

func (s *Stage) WriteByte(b byte) error {
	if s.buf == nil {
		return merr.WrapErrOperationNotSupported("write", "stage released")
	}
	return s.buf.WriteByte(b)
}

func (s *Stage) WriteDouble(f float64) error {
	if s.buf == nil {
		return merr.WrapErrOperationNotSupported("write", "stage released")
	}
	var p [DoubleSize]byte
	s.opts.order.PutUint64(p[:], math.Float64bits(f))
	_, _ = s.buf.Write(p[:])
	return nil
}

// Commit 将暂存字节一次性写入目标并清空。
func (s *Stage) Commit() error {
	if s.buf == nil {
		return merr.WrapErrOperationNotSupported("commit", "stage released")
	}
	if s.buf.Len() == 0 {
		return nil
	}
	n, err := s.dst.Write(s.buf.B)
	if err == nil && n < s.buf.Len() {
		err = io.ErrShortWrite
	}
	s.buf.Reset()
	return merr.WrapErrIoFailed(s.opts.name, err)
}

// Discard 丢弃全部暂存字节。
func (s *Stage) Discard() {
	if s.buf != nil {
		s.buf.Reset()
	}
}

// Release 将缓冲区归还到池中，之后 Stage 不可再用。
func (s *Stage) Release() {
	if s.buf != nil {
		bytebufferpool.Put(s.buf)
		s.buf = nil
	}
}
