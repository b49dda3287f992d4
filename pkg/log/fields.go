package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameTag       = "tag"
	FieldNameInput     = "input"
)

// FieldModule returns a zap field for the module name.
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent returns a zap field for the component name.
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldTag returns a zap field for a wire tag, rendered by its canonical name.
func FieldTag(tag interface{ String() string }) zap.Field {
	return zap.Stringer(FieldNameTag, tag)
}

// FieldInput returns a zap field naming the input a stream was opened from.
func FieldInput(name string) zap.Field {
	return zap.String(FieldNameInput, name)
}
