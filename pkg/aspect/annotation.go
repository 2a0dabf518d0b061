package aspect

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-park/weave/pkg/tools/collections"
)

type annotationKey struct {
	typ    reflect.Type
	method string
}

var annotations = struct {
	sync.RWMutex
	m map[annotationKey][]string
}{m: map[annotationKey][]string{}}

func normalizeAnnotation(a string) string {
	a = strings.TrimSpace(a)
	if !strings.HasPrefix(a, "@") {
		a = "@" + a
	}
	return a
}

// Annotate attaches annotations to a method of t. An empty method name
// annotates the type itself, which applies to all of its methods.
func Annotate(t reflect.Type, method string, list ...string) {
	annotations.Lock()
	defer annotations.Unlock()
	key := annotationKey{typ: t, method: method}
	for _, a := range list {
		a = normalizeAnnotation(a)
		if !collections.Contains(annotations.m[key], a) {
			annotations.m[key] = append(annotations.m[key], a)
		}
	}
}

// Annotations lists the annotations of a method, type level ones last.
func Annotations(t reflect.Type, method string) []string {
	annotations.RLock()
	defer annotations.RUnlock()
	var list []string
	list = append(list, annotations.m[annotationKey{typ: t, method: method}]...)
	if method != "" {
		list = append(list, annotations.m[annotationKey{typ: t}]...)
	}
	return list
}

func HasAnnotation(t reflect.Type, method, annotation string) bool {
	if t == nil {
		return false
	}
	return collections.Contains(Annotations(t, method), normalizeAnnotation(annotation))
}
