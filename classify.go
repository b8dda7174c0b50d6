package evtrack

// Category classifies an event name.
// The category is only used to emit usage warnings; it never changes how
// a registration is counted.
type Category int

const (
	// CategoryCustom is any event that is not a known DOM event.
	CategoryCustom Category = iota
	// CategoryStructural covers document lifecycle and form events.
	CategoryStructural
	// CategoryPointer covers mouse events.
	CategoryPointer
)

var (
	structuralEvents = map[string]struct{}{
		"load": {}, "unload": {}, "abort": {}, "error": {},
		"select": {}, "change": {}, "submit": {}, "reset": {},
		"focus": {}, "blur": {}, "resize": {}, "scroll": {},
	}
	pointerEvents = map[string]struct{}{
		"click": {}, "mousedown": {}, "mouseup": {},
		"mouseover": {}, "mousemove": {}, "mouseout": {},
	}
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryStructural:
		return "structural"
	case CategoryPointer:
		return "pointer"
	case CategoryCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// IsDOM returns true for categories that only make sense on visual elements.
func (c Category) IsDOM() bool {
	return c == CategoryStructural || c == CategoryPointer
}

// Classify returns the category of an event name. Matching is exact and
// case sensitive.
func Classify(eventName string) Category {
	if _, ok := structuralEvents[eventName]; ok {
		return CategoryStructural
	}
	if _, ok := pointerEvents[eventName]; ok {
		return CategoryPointer
	}
	return CategoryCustom
}

// Element is implemented by targets that represent visual elements.
// A target is treated as an element when NodeType returns a non-zero value.
type Element interface {
	NodeType() int
}

// IsElement reports whether target is a visual element. Nil targets are not.
func IsElement(target any) bool {
	if isNil(target) {
		return false
	}
	el, ok := target.(Element)
	return ok && el.NodeType() != 0
}
