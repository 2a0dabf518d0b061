package gen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-park/weave/pkg/aspectlib"
	"github.com/go-park/weave/pkg/astutils"
	"github.com/go-park/weave/pkg/tools/collections"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/imports"
)

// Generator holds the state of the analysis. Each step is skipped once an
// earlier one failed; Err reports the failure.
type Generator struct {
	options
	pkgList []*astutils.Package
	fileBuf map[string]*bytes.Buffer
	output  map[string][]byte
	err     error
}

func NewGenerator(opts ...Option) *Generator {
	ge := &Generator{
		options: DefaultOptions(),
		fileBuf: map[string]*bytes.Buffer{},
		output:  map[string][]byte{},
	}
	for _, opt := range opts {
		opt.apply(&ge.options)
	}
	return ge
}

// ParsePackage loads the packages matching the patterns and tags, plus the
// imported packages matching deps, and collects their @Proxy interfaces.
func (g *Generator) ParsePackage() *Generator {
	if g.err != nil {
		return g
	}
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedSyntax |
			packages.NeedImports |
			packages.NeedFiles,
		Dir:        g.dir,
		Tests:      false,
		BuildFlags: []string{fmt.Sprintf("-tags=%s", strings.Join(g.tags, ","))},
		Logf:       g.logger.Debugf,
	}
	if len(g.deps) > 0 {
		cfg.Mode |= packages.NeedDeps
	}
	patterns := g.patterns
	if g.recursive {
		patterns = getAllPathPatterns(g.dir, patterns)
	}
	pkgList, err := packages.Load(cfg, patterns...)
	if err != nil {
		g.err = errors.Wrap(err, "load packages")
		return g
	}
	var depPkgList []*packages.Package
	for _, dep := range g.deps {
		for _, pkg := range pkgList {
			for k, v := range pkg.Imports {
				if strings.HasPrefix(k, dep) {
					depPkgList = append(depPkgList, v)
				}
			}
		}
	}
	g.logger.WithFields(logrus.Fields{
		"patterns": patterns,
		"packages": len(pkgList),
		"deps":     len(depPkgList),
	}).Debug("packages loaded")
	g.err = g.addPackage(append(pkgList, depPkgList...)...)
	return g
}

// addPackage parses type checked packages, once each.
func (g *Generator) addPackage(list ...*packages.Package) error {
	seen := map[string]struct{}{}
	for _, pkg := range list {
		if _, ok := seen[pkg.PkgPath]; ok {
			continue
		}
		seen[pkg.PkgPath] = struct{}{}
		for _, e := range pkg.Errors {
			g.logger.WithField("package", pkg.PkgPath).Warn(e.Error())
		}
		if len(pkg.Syntax) == 0 {
			continue
		}
		item, err := astutils.ParsePackage(pkg)
		if err != nil {
			return err
		}
		g.pkgList = append(g.pkgList, item)
	}
	return nil
}

// Generate renders one proxy file per @Proxy interface.
func (g *Generator) Generate() *Generator {
	if g.err != nil {
		return g
	}
	for _, pkg := range g.pkgList {
		dir := packageDir(pkg.Package)
		for _, file := range pkg.Files {
			var buf bytes.Buffer
			if err := aspectlib.Render(&buf, file); err != nil {
				g.err = err
				return g
			}
			name := filepath.Join(dir, fmt.Sprintf("%s_proxy.gen.go", file.Name))
			g.fileBuf[name] = &buf
			g.logger.WithFields(logrus.Fields{
				"package": pkg.PkgPath,
				"file":    name,
			}).Debug("proxy generated")
		}
	}
	return g
}

// Format runs goimports over the generated sources.
func (g *Generator) Format() *Generator {
	if g.err != nil {
		return g
	}
	for name, buf := range g.fileBuf {
		src, err := imports.Process(name, buf.Bytes(), nil)
		if err != nil {
			// The unformatted source is kept so the compiler can point at the error.
			g.logger.WithError(err).WithField("file", name).Warn("invalid Go generated")
			src = buf.Bytes()
		}
		g.output[name] = src
	}
	return g
}

// Output writes the generated files.
func (g *Generator) Output() *Generator {
	if g.err != nil {
		return g
	}
	names := collections.Keys(g.output)
	sort.Strings(names)
	for _, name := range names {
		if err := os.WriteFile(name, g.output[name], 0o644); err != nil {
			g.err = errors.Wrap(err, "writing output")
			return g
		}
		g.logger.WithField("file", name).Info("wrote proxy")
	}
	return g
}

// Files returns the generated sources by output path.
func (g *Generator) Files() map[string][]byte { return g.output }

func (g *Generator) Err() error { return g.err }

func Do(opts ...Option) error {
	return NewGenerator(opts...).ParsePackage().Generate().Format().Output().Err()
}
