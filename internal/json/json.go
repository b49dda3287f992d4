// Package json 是基于 bytedance/sonic 的 JSON 编解码入口，
// 项目内所有 JSON 读写统一经过这里。
package json

import (
	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Valid 判断 data 是否为合法 JSON。
func Valid(data []byte) bool {
	return api.Valid(data)
}
