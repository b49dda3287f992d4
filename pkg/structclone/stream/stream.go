// Package stream 提供 structured-clone Reader/Writer 所依赖的字节流能力：
// 精确读取 n 个字节、写入字节、读写一个定宽浮点数。游标由实现自行维护。
package stream

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/valyala/bytebufferpool"

	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// Source 是字节流的读端。
//
// ReadFull 要么返回恰好 n 个字节，要么在数据耗尽时返回 merr.ErrShortRead。
// 返回的切片只在下一次调用前有效。
type Source interface {
	io.ByteReader
	ReadFull(n int) ([]byte, error)
	ReadDouble() (float64, error)
}

// Sink 是字节流的写端，每次调用要么写完全部字节，要么失败。
type Sink interface {
	io.ByteWriter
	WriteBytes(p []byte) error
	WriteDouble(f float64) error
}

// DoubleSize 为浮点值在线上的宽度。
const DoubleSize = 8

// scratchLimit 为 IOSource 常驻复用缓冲区的上限，更长的读取按实际到达的数据增长。
const scratchLimit = 4096

type options struct {
	order binary.ByteOrder
	name  string
}

// Option 配置 Source、Sink 或 Stage。
type Option func(*options)

// WithByteOrder 设置浮点值的字节序，默认小端。
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *options) {
		if order != nil {
			o.order = order
		}
	}
}

// WithName 为流命名，出现在错误信息中，例如输入文件名。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func newOptions(defaultName string, opts []Option) options {
	o := options{order: binary.LittleEndian, name: defaultName}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IOSource 将 io.Reader 适配为 Source。它从不预读：每次调用只拉取它返回的字节，
// 底层 reader 始终停在最后一个已消费字节之后。
type IOSource struct {
	r      io.Reader
	opts   options
	offset int64
	buf    [scratchLimit]byte
	// large 持有上一次长读取的缓冲区，下一次调用时归还到池中。
	large *bytebufferpool.ByteBuffer
}

var _ Source = (*IOSource)(nil)

// NewSource 包装 r。
func NewSource(r io.Reader, opts ...Option) *IOSource {
	return &IOSource{
		r:    r,
		opts: newOptions("source", opts),
	}
}

// Offset 返回已消费的字节数。
func (s *IOSource) Offset() int64 {
	return s.offset
}

// ReadFull 读取恰好 n 个字节。n 不超过 scratchLimit 时复用内部缓冲区；
// 更长的读取从池中取缓冲区并随数据到达逐步扩容，声明的长度本身不会触发分配。
func (s *IOSource) ReadFull(n int) ([]byte, error) {
	s.releaseLarge()
	if n < 0 {
		return nil, merr.WrapErrParameterInvalidMsg("negative read length %d", n)
	}
	if n <= scratchLimit {
		p := s.buf[:n]
		got, err := io.ReadFull(s.r, p)
		s.offset += int64(got)
		if err != nil {
			return nil, s.readErr(n, got, err)
		}
		return p, nil
	}

	bb := bytebufferpool.Get()
	got, err := io.CopyN(bb, s.r, int64(n))
	s.offset += got
	if err != nil {
		bytebufferpool.Put(bb)
		return nil, s.readErr(n, int(got), err)
	}
	s.large = bb
	return bb.B, nil
}

func (s *IOSource) releaseLarge() {
	if s.large != nil {
		bytebufferpool.Put(s.large)
		s.large = nil
	}
}

func (s *IOSource) readErr(want, got int, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return merr.WrapErrShortRead(want, got, s.opts.name)
	}
	return merr.WrapErrIoFailed(s.opts.name, err)
}

func (s *IOSource) ReadByte() (byte, error) {
	p, err := s.ReadFull(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (s *IOSource) ReadDouble() (float64, error) {
	p, err := s.ReadFull(DoubleSize)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(s.opts.order.Uint64(p)), nil
}

// IOSink 将 io.Writer 适配为 Sink。
type IOSink struct {
	w       io.Writer
	opts    options
	written int64
	scratch [DoubleSize]byte
}

var _ Sink = (*IOSink)(nil)

// NewSink 包装 w。
func NewSink(w io.Writer, opts ...Option) *IOSink {
	return &IOSink{
		w:    w,
		opts: newOptions("sink", opts),
	}
}

// Written 返回已写出的字节数。
func (s *IOSink) Written() int64 {
	return s.written
}

func (s *IOSink) WriteBytes(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := s.w.Write(p)
	s.written += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return merr.WrapErrIoFailed(s.opts.name, err)
}

func (s *IOSink) WriteByte(b byte) error {
	s.scratch[0] = b
	return s.WriteBytes(s.scratch[:1])
}

func (s *IOSink) WriteDouble(f float64) error {
	s.opts.order.PutUint64(s.scratch[:], math.Float64bits(f))
	return s.WriteBytes(s.scratch[:])
}
