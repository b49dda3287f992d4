// Package compressor 提供输入文件的块解压能力。浏览器等宿主在持久化
// structured-clone 数据时经常对整块数据做压缩，dump 命令在解码前先按配置解压。
package compressor

import (
	"strings"

	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// Compressor 抽象了"单次压缩/解压"能力。
type Compressor interface {
	// Compress 将 src 压缩到 dst。
	//
	// dst 一般可以传入一个可复用的缓冲区（长度可为 0），实现可选择复用其底层容量；
	// 返回值 packet 为压缩后的完整数据。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将压缩数据 src 解压到 dst。src 必须是同一算法 Compress 的输出。
	Decompress(dst, src []byte) (plain []byte, err error)

	// Name 返回算法名称，与配置项 dump.compression 的取值一致。
	Name() string
}

// 支持的算法名称。
const (
	NameNone   = "none"
	NameZstd   = "zstd"
	NameSnappy = "snappy"
	NameLZ4    = "lz4"
)

// Names 返回全部支持的算法名称。
func Names() []string {
	return []string{NameNone, NameZstd, NameSnappy, NameLZ4}
}

// New 按名称创建压缩器，名称不区分大小写，空字符串等价于 none。
func New(name string) (Compressor, error) {
	switch strings.ToLower(name) {
	case "", NameNone:
		return NopCompressor{}, nil
	case NameZstd:
		return NewZstdCompressor()
	case NameSnappy:
		return SnappyCompressor{}, nil
	case NameLZ4:
		return LZ4Compressor{}, nil
	default:
		return nil, merr.WrapErrParameterInvalid(strings.Join(Names(), "|"), name, "compression")
	}
}

// NopCompressor 是一个空实现：不做任何压缩/解压，直接返回输入内容。
type NopCompressor struct{}

// 编译期断言：确保 NopCompressor 实现了 Compressor 接口。
var _ Compressor = NopCompressor{}

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Name() string {
	return NameNone
}
