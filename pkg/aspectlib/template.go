package aspectlib

import (
	"io"
	"text/template"

	"github.com/pkg/errors"
)

const proxyTpl = `// Code generated by aspect generate. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}
)
{{range $p := .Proxies}}
{{- if $p.HasAnnotations}}
func init() {
	iface := aspect.InterfaceOf[{{$p.Interface}}]()
{{- if $p.Annotations}}
	aspect.Annotate(iface, ""{{range $p.Annotations}}, {{printf "%q" .}}{{end}})
{{- end}}
{{- range $p.Methods}}{{if .Annotations}}
	aspect.Annotate(iface, {{printf "%q" .Name}}{{range .Annotations}}, {{printf "%q" .}}{{end}})
{{- end}}{{end}}
}
{{end}}
// {{$p.Name}} implements {{$p.Interface}} on top of an aspect proxy.
type {{$p.Name}} struct {
	proxy *aspect.AopProxy
}

// New{{$p.Name}} wraps proxy, which must expose every method of {{$p.Interface}}.
func New{{$p.Name}}(proxy *aspect.AopProxy) (*{{$p.Name}}, error) {
	if !proxy.Implements(aspect.InterfaceOf[{{$p.Interface}}]()) {
		return nil, errors.Wrap(aspect.ErrNotImplemented, "{{$p.Interface}}")
	}
	return &{{$p.Name}}{proxy: proxy}, nil
}

func (p *{{$p.Name}}) AopProxy() *aspect.AopProxy { return p.proxy }
{{range $m := $p.Methods}}
func (p *{{$p.Name}}) {{$m.Name}}({{$m.ParamList}}) {{$m.ResultList}} {
{{- if $m.Results}}
	results, err := p.proxy.Invoke({{$m.Args}})
	if err != nil {
{{- if $m.ReturnsError}}
		return
{{- else}}
		panic(err)
{{- end}}
	}
{{- range $i, $r := $m.Results}}
	{{$r.Name}}, _ = results[{{$i}}].({{$r.Type}})
{{- end}}
	return
{{- else if $m.ReturnsError}}
	_, err = p.proxy.Invoke({{$m.Args}})
	return
{{- else}}
	if _, err := p.proxy.Invoke({{$m.Args}}); err != nil {
		panic(err)
	}
{{- end}}
}
{{end}}{{end}}`

var tpl = template.Must(template.New("proxy").Parse(proxyTpl))

// Render writes the Go source of f, unformatted.
func Render(w io.Writer, f *ProxyFile) error {
	return errors.Wrapf(tpl.Execute(w, f), "render %s", f.Name)
}
