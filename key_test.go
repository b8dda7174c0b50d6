package evtrack

import (
	"strings"
	"testing"
)

type keyedHandler struct {
	key string
}

func (h keyedHandler) HandlerKey() string { return h.key }

type refKeyer struct {
	key string
}

func (k *refKeyer) HandlerKey() string { return k.key }

type listener struct {
	n int
}

func TestClassify(t *testing.T) {
	structural := []string{"load", "unload", "abort", "error", "select", "change",
		"submit", "reset", "focus", "blur", "resize", "scroll"}
	pointer := []string{"click", "mousedown", "mouseup", "mouseover", "mousemove", "mouseout"}
	custom := []string{"afterAnimate", "redraw", "Click", "mouse", "loaded", ""}

	for _, name := range structural {
		if c := Classify(name); c != CategoryStructural {
			t.Errorf("%q: expected structural, got %s", name, c)
		}
	}
	for _, name := range pointer {
		if c := Classify(name); c != CategoryPointer {
			t.Errorf("%q: expected pointer, got %s", name, c)
		}
	}
	for _, name := range custom {
		if c := Classify(name); c != CategoryCustom {
			t.Errorf("%q: expected custom, got %s", name, c)
		}
	}

	if CategoryCustom.IsDOM() {
		t.Error("custom events are not DOM events")
	}
	if Category(99).String() != "unknown" {
		t.Errorf("expected unknown, got %s", Category(99).String())
	}
}

func TestHandlerIdentity(t *testing.T) {
	t.Run("distinct funcs", func(t *testing.T) {
		if HandlerIdentity(onClick) == HandlerIdentity(onRedraw) {
			t.Error("expected distinct identities")
		}
		if HandlerIdentity(onClick) != HandlerIdentity(onClick) {
			t.Error("expected stable identity")
		}
		if !strings.HasSuffix(HandlerIdentity(onClick), "onClick") {
			t.Errorf("expected symbol name, got %q", HandlerIdentity(onClick))
		}
	})

	t.Run("closures of one literal collide", func(t *testing.T) {
		mk := func(n int) func() int {
			return func() int { return n }
		}
		if HandlerIdentity(mk(1)) != HandlerIdentity(mk(2)) {
			t.Error("expected closures of the same literal to share an identity")
		}
	})

	t.Run("pointers use reference equality", func(t *testing.T) {
		a := &listener{n: 1}
		b := &listener{n: 1}
		if HandlerIdentity(a) == HandlerIdentity(b) {
			t.Error("expected distinct pointers to differ")
		}
		if HandlerIdentity(a) != HandlerIdentity(a) {
			t.Error("expected same pointer to match")
		}
	})

	t.Run("text is canonical", func(t *testing.T) {
		a := "function () {\r\n  return 1;\n}"
		b := "function(){return1;}"
		if HandlerIdentity(a) != HandlerIdentity(b) {
			t.Errorf("expected %q and %q to collide", HandlerIdentity(a), HandlerIdentity(b))
		}
	})

	t.Run("keyer", func(t *testing.T) {
		if got := HandlerIdentity(keyedHandler{key: "tooltip refresh"}); got != "tooltiprefresh" {
			t.Errorf("expected tooltiprefresh, got %q", got)
		}
	})

	t.Run("nil", func(t *testing.T) {
		var fn func()
		if HandlerIdentity(nil) != "" || HandlerIdentity(fn) != "" {
			t.Error("expected empty identity for nil handlers")
		}
	})

	t.Run("typed nil keyer", func(t *testing.T) {
		var k *refKeyer
		if got := HandlerIdentity(k); got != "" {
			t.Errorf("expected empty identity, got %q", got)
		}
		if got := HandlerIdentity(&refKeyer{key: "legend item"}); got != "legenditem" {
			t.Errorf("expected legenditem, got %q", got)
		}
	})

	t.Run("key", func(t *testing.T) {
		if got := HandlerKey("redraw", "a b"); got != "redraw_ab" {
			t.Errorf("expected redraw_ab, got %q", got)
		}
	})
}

func TestObjectKey(t *testing.T) {
	a := &listener{}
	ka, ok := ObjectKey(a)
	if !ok || ka != any(a) {
		t.Errorf("expected pointer to be its own key, got %v %v", ka, ok)
	}

	m := map[string]int{}
	k1, _ := ObjectKey(m)
	k2, _ := ObjectKey(m)
	if k1 != k2 {
		t.Error("expected map keys to match")
	}

	s := make([]int, 4)
	ks1, _ := ObjectKey(s)
	ks2, _ := ObjectKey(s[:2])
	if ks1 == ks2 {
		t.Error("expected sub-slice to have a different key")
	}

	var nilPtr *listener
	if _, ok := ObjectKey(nilPtr); ok {
		t.Error("expected nil pointer to be untrackable")
	}
	if _, ok := ObjectKey(struct{ f func() }{}); ok {
		t.Error("expected non-comparable struct to be untrackable")
	}
}

func TestIsNilHandler(t *testing.T) {
	var (
		fn  func()
		ptr *listener
		k   *refKeyer
		m   map[string]int
		ch  chan int
	)
	tests := []struct {
		name    string
		handler any
		want    bool
	}{
		{"nil", nil, true},
		{"nil func", fn, true},
		{"nil pointer", ptr, true},
		{"nil keyer", k, true},
		{"nil map", m, true},
		{"nil chan", ch, true},
		{"func", onClick, false},
		{"blank string", " ", false},
		{"empty string", "", false},
		{"empty key", keyedHandler{}, false},
		{"zero value", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNilHandler(tt.handler); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIsElement(t *testing.T) {
	var el *node
	var iface Element
	tests := []struct {
		name   string
		target any
		want   bool
	}{
		{"element", &node{kind: 1}, true},
		{"zero node type", &node{}, false},
		{"typed nil element", el, false},
		{"nil interface", iface, false},
		{"plain object", &listener{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsElement(tt.target); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
