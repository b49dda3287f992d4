package encoding

import (
	"io"

	"golang.org/x/exp/constraints"

	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// MaxVarintLen64 是 64 位整数 varint 编码的最大长度。
const MaxVarintLen64 = 10

// VarintLen 返回 AppendVarint 编码 v 所需的字节数。
func VarintLen[T constraints.Unsigned](v T) int {
	x := uint64(v)
	n := 1
	for x >= 0x80 {
		x >>= 7
		n++
	}
	return n
}

// AppendVarint 将 v 的 base-128 编码追加到 dst。低位组在前，除最后一个字节外最高位均为 1。
func AppendVarint[T constraints.Unsigned](dst []byte, v T) []byte {
	x := uint64(v)
	for x >= 0x80 {
		dst = append(dst, byte(x)|0x80)
		x >>= 7
	}
	return append(dst, byte(x))
}

// EncodeVarint 返回 v 的 base-128 编码。
func EncodeVarint[T constraints.Unsigned](v T) []byte {
	return AppendVarint(make([]byte, 0, VarintLen(v)), v)
}

// DecodeVarint 从 r 读取一个 varint，只消费属于它的字节。超出 64 位的编码会被拒绝。
func DecodeVarint(r io.ByteReader) (uint64, error) {
	var x uint64
	var s uint
	for i := 0; ; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if i == MaxVarintLen64-1 && b > 1 {
			return 0, merr.WrapErrInvalidPayload("varint overflows 64 bits")
		}
		if b < 0x80 {
			return x | uint64(b)<<s, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
}
