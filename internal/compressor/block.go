package compressor

import (
	"encoding/binary"

	"github.com/klauspost/compress/snappy"
	"github.com/pierrec/lz4/v4"

	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// SnappyCompressor 使用 snappy 块格式，与 IndexedDB 等宿主写入的块一致。
type SnappyCompressor struct{}

var _ Compressor = SnappyCompressor{}

func (SnappyCompressor) Compress(dst, src []byte) ([]byte, error) {
	return snappy.Encode(dst[:cap(dst)], src), nil
}

func (SnappyCompressor) Decompress(dst, src []byte) ([]byte, error) {
	out, err := snappy.Decode(dst[:cap(dst)], src)
	if err != nil {
		return nil, merr.WrapErrInvalidPayload("snappy: " + err.Error())
	}
	return out, nil
}

func (SnappyCompressor) Name() string {
	return NameSnappy
}

// LZ4 块格式本身不记录原始长度，也无法表示不可压缩的数据，
// 因此每个块前带一个头：4 字节小端原始长度加 1 字节模式。
const (
	lz4HeaderSize = 5

	lz4ModeRaw   byte = 0
	lz4ModeBlock byte = 1
)

// LZ4Compressor 使用带头部的 LZ4 块格式。
type LZ4Compressor struct{}

var _ Compressor = LZ4Compressor{}

func (LZ4Compressor) Compress(dst, src []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(src))
	if cap(dst) < lz4HeaderSize+bound {
		dst = make([]byte, lz4HeaderSize+bound)
	}
	dst = dst[:lz4HeaderSize+bound]
	binary.LittleEndian.PutUint32(dst, uint32(len(src)))

	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst[lz4HeaderSize:])
	if err != nil {
		return nil, err
	}
	// 0 表示不可压缩。
	if n == 0 || n >= len(src) {
		dst[4] = lz4ModeRaw
		return append(dst[:lz4HeaderSize], src...), nil
	}
	dst[4] = lz4ModeBlock
	return dst[:lz4HeaderSize+n], nil
}

func (LZ4Compressor) Decompress(dst, src []byte) ([]byte, error) {
	if len(src) < lz4HeaderSize {
		return nil, merr.WrapErrInvalidPayloadLength("lz4 block", len(src), "missing header")
	}
	size := int(binary.LittleEndian.Uint32(src))
	body := src[lz4HeaderSize:]
	switch src[4] {
	case lz4ModeRaw:
		if len(body) != size {
			return nil, merr.WrapErrInvalidPayloadLength("lz4 block", len(body), "size mismatch")
		}
		return append(dst[:0], body...), nil
	case lz4ModeBlock:
	default:
		return nil, merr.WrapErrInvalidPayload("lz4: unknown block mode")
	}

	if cap(dst) < size {
		dst = make([]byte, size)
	}
	n, err := lz4.UncompressBlock(body, dst[:size])
	if err != nil {
		return nil, merr.WrapErrInvalidPayload("lz4: " + err.Error())
	}
	if n != size {
		return nil, merr.WrapErrInvalidPayloadLength("lz4 block", n, "size mismatch")
	}
	return dst[:n], nil
}

func (LZ4Compressor) Name() string {
	return NameLZ4
}
