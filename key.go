package evtrack

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// KeySeparator joins the event name and the handler identity in a handler key.
const KeySeparator = "_"

// Keyer lets a handler supply its own identity.
// Handlers returning the same key are counted as the same registration.
type Keyer interface {
	HandlerKey() string
}

var canonicalizer = strings.NewReplacer(" ", "", "\r", "", "\n", "")

// Canonical strips spaces and line breaks from a textual handler form.
func Canonical(s string) string {
	return canonicalizer.Replace(s)
}

// HandlerIdentity returns the identity used to tell handlers apart.
//
// Identity is resolved in this order:
//   - Keyer: the handler's own key
//   - pointers, maps and channels: type and address (reference equality)
//   - funcs: the runtime symbol of the function code, so two closures
//     created by the same literal share an identity
//   - string and fmt.Stringer: canonical text
//   - anything else: canonical "%T:%v" text
//
// A nil handler has an empty identity.
func HandlerIdentity(handler any) string {
	if IsNilHandler(handler) {
		return ""
	}
	if k, ok := handler.(Keyer); ok {
		return Canonical(k.HandlerKey())
	}
	v := reflect.ValueOf(handler)
	switch v.Kind() {
	case reflect.Func:
		pc := v.Pointer()
		if fn := runtime.FuncForPC(pc); fn != nil {
			return fn.Name()
		}
		return fmt.Sprintf("func@%#x", pc)
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("%s@%#x", Canonical(v.Type().String()), v.Pointer())
	}
	switch h := handler.(type) {
	case string:
		return Canonical(h)
	case fmt.Stringer:
		return Canonical(h.String())
	}
	return Canonical(fmt.Sprintf("%T:%v", handler, handler))
}

// IsNilHandler reports whether handler is nil or a nil func, pointer,
// map or channel. Such a handler counts as not supplied.
func IsNilHandler(handler any) bool {
	return isNil(handler)
}

func isNil(x any) bool {
	if x == nil {
		return true
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

// HandlerKey returns the registry key for an event name and handler.
func HandlerKey(eventName string, handler any) string {
	return eventName + KeySeparator + HandlerIdentity(handler)
}
