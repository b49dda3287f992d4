package viper

import (
	"path/filepath"
	"strings"

	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
// 所有设置过默认值的 key 都可以被带前缀的环境变量覆盖，
// 例如前缀为 STRUCTCLONE 时，dump.workers 对应 STRUCTCLONE_DUMP_WORKERS。
type Config struct {
	v *spfviper.Viper
}

// New 创建一个空的 Config，envPrefix 为空时不读取环境变量。
func New(envPrefix string) *Config {
	v := spfviper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	return &Config{v: v}
}

// SetDefault 设置 key 的默认值。
func (c *Config) SetDefault(key string, value any) {
	c.v.SetDefault(key, value)
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中。
// 文件类型通过扩展名（.yaml/.yml/.json）推断。
func (c *Config) LoadFile(path string) error {
	c.v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	default:
		// 让 viper 自行推断类型，或在读取时返回清晰的错误信息。
	}

	return c.v.ReadInConfig()
}

// ConfigFileUsed 返回已加载的配置文件路径。
func (c *Config) ConfigFileUsed() string {
	return c.v.ConfigFileUsed()
}

// IsSet 判断 key 是否被配置文件、环境变量或默认值设置。
func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// Unmarshal 将完整配置反序列化到 dst。
// dst 应为结构体或 map 的指针。环境变量覆盖只在完整反序列化时对嵌套 key 生效。
func (c *Config) Unmarshal(dst any) error {
	return c.v.Unmarshal(dst)
}
