package structclone

import (
	"github.com/lk2023060901/structclone-go/pkg/log"
	"github.com/lk2023060901/structclone-go/pkg/util/typeutil"
)

type options struct {
	logger            *log.MLogger
	fixedStringLength typeutil.Set[uint64]
	metrics           bool
}

// Option 用于配置 Reader 或 Writer。
type Option func(*options)

// WithLogger 替换组件 Logger。
func WithLogger(logger *log.MLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFixedStringLength 指定一组版本号：一旦经过的 VERSION token 属于其中之一，
// STRING 长度改用 32 位小端定长前缀。未设置时所有版本都使用 varint 前缀。
func WithFixedStringLength(versions ...uint64) Option {
	return func(o *options) {
		if o.fixedStringLength == nil {
			o.fixedStringLength = typeutil.NewSet[uint64]()
		}
		o.fixedStringLength.Insert(versions...)
	}
}

// WithMetrics 开关 prometheus 计数器，默认开启。
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metrics = enabled
	}
}

func newOptions(opts []Option) options {
	o := options{metrics: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// state 是同一条流内各 token 语法共享的上下文。
type state struct {
	version    uint64
	hasVersion bool
	fixedLen   typeutil.Set[uint64]
}

func (s *state) setVersion(v uint64) {
	s.version = v
	s.hasVersion = true
}

func (s *state) fixedStringLength() bool {
	return s.hasVersion && s.fixedLen.Contain(s.version)
}
