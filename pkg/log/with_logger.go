package log

import "go.uber.org/atomic"

var (
	_ WithLogger   = &Binder{}
	_ LoggerBinder = &Binder{}
)

// WithLogger 是一个用于访问本地 Logger 的接口。
type WithLogger interface {
	Logger() *MLogger
}

// LoggerBinder 是一个用于设置 Logger 的接口。
type LoggerBinder interface {
	SetLogger(logger *MLogger)
}

// Binder 嵌入到编解码组件中，统一管理组件自己的 Logger。
// 未设置时回退到带 component 字段的全局 Logger。
type Binder struct {
	logger    atomic.Pointer[MLogger]
	component string
}

// SetComponent 设置回退 Logger 上携带的 component 字段。
func (w *Binder) SetComponent(component string) {
	w.component = component
}

func (w *Binder) SetLogger(logger *MLogger) {
	w.logger.Store(logger)
}

func (w *Binder) Logger() *MLogger {
	if l := w.logger.Load(); l != nil {
		return l
	}
	if w.component == "" {
		return With()
	}
	return With(FieldComponent(w.component))
}
