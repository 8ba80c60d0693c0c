package event

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

const (
	spanKeyEventID  = "event.id"
	spanKeyFireID   = "event.fire_id"
	spanKeyManager  = "event.manager"
	spanKeyHandler  = "event.handler"
	spanKeyHandlers = "event.handlers"
)

// NewID generates a new unique ID
func NewID() string {
	return uuid.NewString()
}

// funcName returns a short name for a handler function, e.g.
// "aspect.(*Component).onWindowResized".
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return "<nil>"
	}
	details := runtime.FuncForPC(v.Pointer())
	if details == nil {
		return "<unknown>"
	}
	name := details.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
