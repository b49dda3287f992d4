// Package encoding 实现结构化克隆负载用到的数值编码：ZigZag 符号映射、
// base-128 varint，以及宽字符字符串使用的字节对交换。
package encoding

// ZigZagEncode 将有符号 32 位整数映射为无符号整数，绝对值小的数得到较短的 varint。
// 结果的第 0 位表示符号。
func ZigZagEncode(v int32) uint32 {
	u := uint32(v)
	if u&(1<<31) != 0 {
		return (^u << 1) | 1
	}
	return u << 1
}

// ZigZagDecode 是 ZigZagEncode 的逆运算。
func ZigZagDecode(v uint32) int32 {
	if v&1 != 0 {
		return int32(^(v >> 1))
	}
	return int32(v >> 1)
}
