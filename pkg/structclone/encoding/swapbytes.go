package encoding

import (
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// PaddingByte 是 PADDING 标签的线上取值，SwapBytesEncode 用它补齐奇数长度的输入。
const PaddingByte byte = '@'

// SwapBytesEncode 交换 src 中每对相邻字节。src 长度为奇数时，
// 末尾字节以 (PaddingByte, last) 的形式输出，输出长度总是偶数。
func SwapBytesEncode(src []byte) []byte {
	out := make([]byte, 0, len(src)+len(src)%2)
	i := 0
	for ; i+1 < len(src); i += 2 {
		out = append(out, src[i+1], src[i])
	}
	if i < len(src) {
		out = append(out, PaddingByte, src[i])
	}
	return out
}

// SwapBytesDecode 还原字节对并去掉末尾的 PaddingByte。
// 恰好等于 PaddingByte 的真实末尾字节无法与补齐字节区分，同样会被去掉。
func SwapBytesDecode(src []byte) ([]byte, error) {
	if len(src)%2 != 0 {
		return nil, merr.WrapErrInvalidPayloadLength("swapped", len(src), "odd number of bytes")
	}
	out := make([]byte, len(src))
	for i := 0; i < len(src); i += 2 {
		out[i], out[i+1] = src[i+1], src[i]
	}
	if n := len(out); n > 0 && out[n-1] == PaddingByte {
		out = out[:n-1]
	}
	return out, nil
}
