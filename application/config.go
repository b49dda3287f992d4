package application

import (
	"encoding/binary"
	"strings"

	"github.com/blang/semver/v4"

	zlog "github.com/lk2023060901/structclone-go/pkg/log"
	"github.com/lk2023060901/structclone-go/pkg/structclone"
	"github.com/lk2023060901/structclone-go/pkg/util/hardware"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
	zviper "github.com/lk2023060901/structclone-go/pkg/util/viper"
)

const (
	envPrefix         = "STRUCTCLONE"
	envConfigFilePath = "STRUCTCLONE_CONFIG_FILE_PATH"
	defaultConfigPath = "./config.yaml"
)

// Compression names accepted by dump.compression.
const (
	CompressionNone   = "none"
	CompressionZstd   = "zstd"
	CompressionSnappy = "snappy"
	CompressionLZ4    = "lz4"
)

// Output formats accepted by dump.format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Config is the full configuration document.
//
//	log:
//	  level: info
//	logging:
//	  codec:
//	    level: debug
//	codec:
//	  dateByteOrder: little
//	  fixedStringLengthVersions: []
//	dump:
//	  workers: 4
//	  compression: none
//	  format: table
//	requires: ">=0.4.0"
type Config struct {
	Log      zlog.Config            `mapstructure:"log"`
	Logging  map[string]zlog.Config `mapstructure:"logging"`
	Codec    CodecConfig            `mapstructure:"codec"`
	Dump     DumpConfig             `mapstructure:"dump"`
	Requires string                 `mapstructure:"requires"`
}

type CodecConfig struct {
	// DateByteOrder 为 DATE 浮点值的字节序，可选 little 或 big。
	DateByteOrder string `mapstructure:"dateByteOrder"`
	// FixedStringLengthVersions 列出 STRING 使用 32 位定长长度前缀的 VERSION 值。
	FixedStringLengthVersions []uint64 `mapstructure:"fixedStringLengthVersions"`
}

type DumpConfig struct {
	// Workers 为并发解码的文件数，默认等于 CPU 核数。
	Workers int `mapstructure:"workers"`
	// Compression 为输入文件的块压缩格式。
	Compression string `mapstructure:"compression"`
	// Format 为输出格式。
	Format string `mapstructure:"format"`
}

func setDefaults(cfg *zviper.Config) {
	cfg.SetDefault("log.level", "info")
	cfg.SetDefault("log.format", "console")
	cfg.SetDefault("log.stderr", true)
	cfg.SetDefault("codec.dateByteOrder", "little")
	cfg.SetDefault("codec.fixedStringLengthVersions", []uint64{})
	cfg.SetDefault("dump.workers", hardware.GetCPUNum())
	cfg.SetDefault("dump.compression", CompressionNone)
	cfg.SetDefault("dump.format", FormatTable)
	cfg.SetDefault("requires", "")
}

// ByteOrder returns the configured DATE byte order.
func (c *CodecConfig) ByteOrder() binary.ByteOrder {
	if strings.EqualFold(c.DateByteOrder, "big") {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Validate checks every enumerated key and the version requirement.
func (c *Config) Validate(version semver.Version) error {
	switch strings.ToLower(c.Codec.DateByteOrder) {
	case "little", "big":
	default:
		return merr.WrapErrParameterInvalid("little|big", c.Codec.DateByteOrder, "codec.dateByteOrder")
	}
	for _, v := range c.Codec.FixedStringLengthVersions {
		if v > structclone.MaxVersion {
			return merr.WrapErrUnsupportedVersion(v, structclone.MaxVersion, "codec.fixedStringLengthVersions")
		}
	}
	if c.Dump.Workers <= 0 {
		return merr.WrapErrParameterInvalidMsg("dump.workers must be positive, got %d", c.Dump.Workers)
	}
	switch c.Dump.Compression {
	case CompressionNone, CompressionZstd, CompressionSnappy, CompressionLZ4:
	default:
		return merr.WrapErrParameterInvalid("none|zstd|snappy|lz4", c.Dump.Compression, "dump.compression")
	}
	switch c.Dump.Format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return merr.WrapErrParameterInvalid("table|json|yaml", c.Dump.Format, "dump.format")
	}
	if c.Requires != "" {
		expected, err := semver.ParseRange(c.Requires)
		if err != nil {
			return merr.WrapErrParameterInvalidMsg("requires %q: %s", c.Requires, err.Error())
		}
		if !expected(version) {
			return merr.WrapErrParameterInvalid(c.Requires, version.String(), "tool version does not satisfy requires")
		}
	}
	return nil
}
