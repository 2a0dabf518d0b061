// Package aspectlib holds the model and template of generated proxies.
package aspectlib

import (
	"fmt"
	"strings"
)

const (
	AspectPkgPath = "github.com/go-park/weave/pkg/aspect"
	ErrorsPkgPath = "github.com/pkg/errors"

	DefaultProxySuffix = "Proxy"
)

// reserved names are used by generated method bodies.
var reserved = map[string]struct{}{"p": {}, "results": {}, "err": {}}

type (
	// ProxyFile is one generated file.
	ProxyFile struct {
		Package string
		Name    string
		Imports []*ProxyImport
		Proxies []*Proxy
		aliases map[string]string
	}

	ProxyImport struct {
		Alias string
		Path  string
	}

	// Proxy is a generated type implementing Interface through an AopProxy.
	Proxy struct {
		Interface   string
		Name        string
		Annotations []string
		Methods     []*ProxyMethod
	}

	ProxyMethod struct {
		Name         string
		Params       []*Var
		Results      []*Var
		Variadic     bool
		ReturnsError bool
		Annotations  []string
	}

	Var struct {
		Name string
		Type string
	}
)

func NewProxyFile(pkg, name string) *ProxyFile {
	f := &ProxyFile{Package: pkg, Name: name, aliases: map[string]string{}}
	f.AddImport(AspectPkgPath, "aspect")
	f.AddImport(ErrorsPkgPath, "errors")
	return f
}

// AddImport records path and returns the name to refer to it by, name
// itself unless another path already uses it.
func (f *ProxyFile) AddImport(path, name string) string {
	if alias, ok := f.aliases[path]; ok {
		return alias
	}
	alias := name
	for i := 2; f.aliasUsed(alias); i++ {
		alias = fmt.Sprintf("%s%d", name, i)
	}
	f.aliases[path] = alias
	imp := &ProxyImport{Path: path}
	if alias != lastElem(path) {
		imp.Alias = alias
	}
	f.Imports = append(f.Imports, imp)
	return alias
}

func (f *ProxyFile) aliasUsed(alias string) bool {
	for _, v := range f.aliases {
		if v == alias {
			return true
		}
	}
	return false
}

func lastElem(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

// HasAnnotations reports whether an init function is needed.
func (p *Proxy) HasAnnotations() bool {
	if len(p.Annotations) > 0 {
		return true
	}
	for _, m := range p.Methods {
		if len(m.Annotations) > 0 {
			return true
		}
	}
	return false
}

// NameVars gives params and results usable, unique names. Results are
// named r0, r1... and the error result err.
func (m *ProxyMethod) NameVars() {
	used := map[string]struct{}{}
	renamed := make([]bool, len(m.Params))
	for i, v := range m.Params {
		_, clash := reserved[v.Name]
		if _, dup := used[v.Name]; v.Name == "" || v.Name == "_" || clash || dup {
			renamed[i] = true
			continue
		}
		used[v.Name] = struct{}{}
	}
	for i, v := range m.Params {
		if !renamed[i] {
			continue
		}
		v.Name = fmt.Sprintf("a%d", i)
		for _, dup := used[v.Name]; dup; _, dup = used[v.Name] {
			v.Name = "_" + v.Name
		}
		used[v.Name] = struct{}{}
	}
	for i, v := range m.Results {
		v.Name = fmt.Sprintf("r%d", i)
		for _, dup := used[v.Name]; dup; _, dup = used[v.Name] {
			v.Name = "_" + v.Name
		}
		used[v.Name] = struct{}{}
	}
}

func (m *ProxyMethod) ParamList() string {
	list := make([]string, len(m.Params))
	for i, v := range m.Params {
		typ := v.Type
		if m.Variadic && i == len(m.Params)-1 {
			typ = "..." + strings.TrimPrefix(typ, "[]")
		}
		list[i] = v.Name + " " + typ
	}
	return strings.Join(list, ", ")
}

func (m *ProxyMethod) ResultList() string {
	list := make([]string, 0, len(m.Results)+1)
	for _, v := range m.Results {
		list = append(list, v.Name+" "+v.Type)
	}
	if m.ReturnsError {
		list = append(list, "err error")
	}
	if len(list) == 0 {
		return ""
	}
	return "(" + strings.Join(list, ", ") + ")"
}

// Args is the argument list passed to Invoke. Variadic arguments travel as
// one slice.
func (m *ProxyMethod) Args() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q", m.Name)
	for _, v := range m.Params {
		b.WriteString(", ")
		b.WriteString(v.Name)
	}
	return b.String()
}
