// Package structclone 读写宿主对象结构化克隆线格式中的 token 流。
//
// 一条流由若干 token 组成。每个 token 以单字节 Tag 开头，由它决定其后负载的语法：
//
//	PADDING '@', GENERATE_FRESH_OBJECT 'o'   无负载
//	VERSION 0xFF                             varint，不超过 MaxVersion
//	REFERENCE_COUNT '?', OBJECT '{'          varint
//	ARRAY_BUFFER 'B', STRING 'S'             varint 长度 + 原始字节
//	DATE 'D'                                 8 字节浮点数
//	INT32 'I'                                zigzag varint
//	ARRAY_BUFFER_VIEW 'V'                    subtag 字节 + varint 偏移 + varint 长度
//
// 词表中的其他标签可以识别但没有负载语法，读写时返回 merr.ErrNotImplemented。
// 词表之外的字节返回 merr.ErrInvalidTag。
//
// 本包只负责 token 的编解码，由 token 重建对象图由调用方完成。
package structclone
