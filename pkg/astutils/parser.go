package astutils

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"github.com/go-park/weave/pkg/aspectlib"
	"github.com/go-park/weave/pkg/tools/collections"
	"github.com/pkg/errors"
	"golang.org/x/tools/go/packages"
)

// ProxyInterceptor adjusts a parsed proxy before it is rendered.
type ProxyInterceptor func([]Annotation, *aspectlib.Proxy, *ast.TypeSpec)

var proxyInterceptors []ProxyInterceptor

func RegisterProxyInterceptors(opts ...ProxyInterceptor) {
	proxyInterceptors = append(proxyInterceptors, opts...)
}

// Package holds a loaded package and the proxy files found in it.
type Package struct {
	*packages.Package
	Files []*aspectlib.ProxyFile
}

// ParsePackage finds the interfaces annotated @Proxy in pkg, one proxy file
// each.
func ParsePackage(pkg *packages.Package) (*Package, error) {
	if pkg.Types == nil || pkg.TypesInfo == nil {
		return nil, errors.Errorf("package %s is not type checked", pkg.PkgPath)
	}
	p := &Package{Package: pkg}
	for _, file := range pkg.Syntax {
		var err error
		ast.Inspect(file, func(node ast.Node) bool {
			if err != nil {
				return false
			}
			decl, ok := node.(*ast.GenDecl)
			if !ok {
				return true
			}
			err = p.genDecl(decl)
			return false
		})
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// genDecl processes one type declaration clause.
func (p *Package) genDecl(decl *ast.GenDecl) error {
	if decl.Tok != token.TYPE {
		return nil
	}
	for _, s := range decl.Specs {
		spec, ok := s.(*ast.TypeSpec)
		if !ok {
			continue
		}
		doc := spec.Doc
		if doc == nil && len(decl.Specs) == 1 {
			doc = decl.Doc
		}
		annos := ParseAnnotations(doc)
		if !collections.Contains(annos, CommentProxy) {
			continue
		}
		if err := p.proxyDecl(spec, doc, annos); err != nil {
			return err
		}
	}
	return nil
}

func (p *Package) proxyDecl(spec *ast.TypeSpec, doc *ast.CommentGroup, annos []Annotation) error {
	name := spec.Name.Name
	pos := p.Fset.Position(spec.Pos())
	if !spec.Name.IsExported() {
		return errors.Errorf("%s: unexported interface %s cannot be proxied", pos, name)
	}
	if spec.TypeParams != nil && len(spec.TypeParams.List) > 0 {
		return errors.Errorf("%s: generic interface %s cannot be proxied", pos, name)
	}
	astIface, ok := spec.Type.(*ast.InterfaceType)
	if !ok {
		return errors.Errorf("%s: @Proxy type %s is not an interface", pos, name)
	}
	obj := p.TypesInfo.Defs[spec.Name]
	if obj == nil {
		return errors.Errorf("%s: no type information for %s", pos, name)
	}
	iface, ok := obj.Type().Underlying().(*types.Interface)
	if !ok {
		return errors.Errorf("%s: @Proxy type %s is not an interface", pos, name)
	}

	params := GetCommentParam(doc, CommentProxy)
	proxyName := name + aspectlib.DefaultProxySuffix
	if v, ok := params[CommentKeySuffix]; ok {
		proxyName = name + v
	}
	if v, ok := params[CommentKeyName]; ok {
		proxyName = v
	}

	file := aspectlib.NewProxyFile(p.Name, strings.ToLower(name))
	proxy := &aspectlib.Proxy{
		Interface:   name,
		Name:        proxyName,
		Annotations: customAnnotations(annos),
	}
	docs := methodDocs(astIface)
	qualifier := func(other *types.Package) string {
		if other == p.Types {
			return ""
		}
		return file.AddImport(other.Path(), other.Name())
	}
	for i := 0; i < iface.NumMethods(); i++ {
		fn := iface.Method(i)
		if !fn.Exported() {
			return errors.Errorf("%s: %s has unexported method %s", pos, name, fn.Name())
		}
		m := newMethod(fn, qualifier)
		m.Annotations = methodAnnotations(docs[fn.Name()])
		proxy.Methods = append(proxy.Methods, m)
	}
	for _, i := range proxyInterceptors {
		i(annos, proxy, spec)
	}
	file.Proxies = append(file.Proxies, proxy)
	p.Files = append(p.Files, file)
	return nil
}

func newMethod(fn *types.Func, qualifier types.Qualifier) *aspectlib.ProxyMethod {
	sig := fn.Type().(*types.Signature)
	m := &aspectlib.ProxyMethod{Name: fn.Name(), Variadic: sig.Variadic()}
	for i := 0; i < sig.Params().Len(); i++ {
		v := sig.Params().At(i)
		m.Params = append(m.Params, &aspectlib.Var{Name: v.Name(), Type: types.TypeString(v.Type(), qualifier)})
	}
	results := sig.Results()
	n := results.Len()
	if n > 0 && isError(results.At(n-1).Type()) {
		m.ReturnsError = true
		n--
	}
	for i := 0; i < n; i++ {
		m.Results = append(m.Results, &aspectlib.Var{Type: types.TypeString(results.At(i).Type(), qualifier)})
	}
	m.NameVars()
	return m
}

var errorType = types.Universe.Lookup("error").Type()

func isError(t types.Type) bool {
	return types.Identical(t, errorType)
}

func methodDocs(iface *ast.InterfaceType) map[string]*ast.CommentGroup {
	docs := map[string]*ast.CommentGroup{}
	if iface.Methods == nil {
		return docs
	}
	for _, field := range iface.Methods.List {
		for _, name := range field.Names {
			docs[name.Name] = field.Doc
		}
	}
	return docs
}

// customAnnotations drops generator directives.
func customAnnotations(annos []Annotation) []string {
	var list []string
	for _, a := range annos {
		if !IsSystemAnnotation(a) && !collections.Contains(list, a.String()) {
			list = append(list, a.String())
		}
	}
	return list
}

// methodAnnotations are the custom annotations of a method plus those listed
// by @Pointcut.
func methodAnnotations(doc *ast.CommentGroup) []string {
	list := customAnnotations(ParseAnnotations(doc))
	if v, ok := GetCommentParam(doc, CommentPointcut)[CommentKeyDefault]; ok {
		for _, name := range strings.Split(v, ",") {
			anno, ok := validCustomAnnotation(strings.TrimSpace(name))
			if ok && !collections.Contains(list, anno.String()) {
				list = append(list, anno.String())
			}
		}
	}
	return list
}
