package compressor

import (
	"github.com/klauspost/compress/zstd"

	"github.com/lk2023060901/structclone-go/pkg/util/hardware"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// ZstdCompressor 基于 github.com/klauspost/compress/zstd 的压缩实现。
// encoder/decoder 的 EncodeAll/DecodeAll 可以被多个 goroutine 并发调用。
type ZstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// 编译期断言：确保 ZstdCompressor 实现了 Compressor 接口。
var _ Compressor = (*ZstdCompressor)(nil)

// NewZstdCompressor 创建一个 ZstdCompressor，默认并发度为主机 CPU 核心数。
func NewZstdCompressor() (*ZstdCompressor, error) {
	return NewZstdCompressorWithConcurrency(0)
}

// NewZstdCompressorWithConcurrency 创建一个 ZstdCompressor，并允许显式指定 zstd 的并发数。
//
// 参数说明：
//   - concurrency <= 0：使用主机 CPU 核心数（hardware.GetCPUNum()）。
//   - concurrency > 0 ：使用指定并发度。
func NewZstdCompressorWithConcurrency(concurrency int) (*ZstdCompressor, error) {
	if concurrency <= 0 {
		concurrency = hardware.GetCPUNum()
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithZeroFrames(true),
		zstd.WithEncoderConcurrency(concurrency),
	)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(concurrency))
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &ZstdCompressor{
		enc: enc,
		dec: dec,
	}, nil
}

func (c *ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	if c == nil || c.enc == nil {
		return nil, zstd.ErrEncoderClosed
	}
	return c.enc.EncodeAll(src, dst[:0]), nil
}

func (c *ZstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	if c == nil || c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	out, err := c.dec.DecodeAll(src, dst[:0])
	if err != nil {
		return nil, merr.WrapErrInvalidPayload("zstd: " + err.Error())
	}
	return out, nil
}

func (c *ZstdCompressor) Name() string {
	return NameZstd
}

// Close 释放内部 encoder/decoder 持有的资源。
// 再次使用已关闭实例将返回 ErrEncoderClosed/ErrDecoderClosed。
func (c *ZstdCompressor) Close() {
	if c == nil {
		return
	}
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
}
