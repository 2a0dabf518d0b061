// Package config builds proxy configurations from YAML definitions.
package config

import (
	"io"
	"os"

	"github.com/go-park/weave/pkg/aspect"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Definition describes one proxy.
//
//	proxyTargetType: false
//	interfaces: [bank.Account]
//	advisors:
//	  - name: audit
//	    advice: logging
//	    order: 10
//	    pointcut:
//	      names: ["Deposit*"]
//	    properties:
//	      level: debug
type Definition struct {
	ProxyTargetType bool         `yaml:"proxyTargetType"`
	Interfaces      []string     `yaml:"interfaces"`
	Advisors        []AdvisorDef `yaml:"advisors"`
}

type AdvisorDef struct {
	Name        string         `yaml:"name"`
	Advice      string         `yaml:"advice"`
	Order       *int           `yaml:"order"`
	PerInstance bool           `yaml:"perInstance"`
	Pointcut    PointcutDef    `yaml:"pointcut"`
	Properties  map[string]any `yaml:"properties"`
}

// PointcutDef selects methods. Every non-empty criterion must match; an
// empty definition matches all methods.
type PointcutDef struct {
	Names      []string `yaml:"names"`
	Regexp     []string `yaml:"regexp"`
	Exclude    []string `yaml:"exclude"`
	Annotation string   `yaml:"annotation"`
	Expr       string   `yaml:"expr"`
}

func Load(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var d Definition
	if err := dec.Decode(&d); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decode proxy definition")
	}
	return &d, nil
}

func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	d, err := Load(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return d, nil
}

// Build creates the advisors of the definition, unsorted.
func (d *Definition) Build(registry *Registry) ([]aspect.Advisor, error) {
	list := make([]aspect.Advisor, 0, len(d.Advisors))
	for i, def := range d.Advisors {
		name := def.Name
		if name == "" {
			name = def.Advice
		}
		a, err := def.build(registry, name)
		if err != nil {
			return nil, errors.Wrapf(err, "advisor %d (%s)", i, name)
		}
		list = append(list, a)
	}
	return list, nil
}

func (def AdvisorDef) build(registry *Registry, name string) (aspect.Advisor, error) {
	advice, err := registry.Advice(def.Advice, def.Properties)
	if err != nil {
		return nil, err
	}
	pc, err := def.Pointcut.build()
	if err != nil {
		return nil, err
	}
	opts := []aspect.AdvisorOption{
		aspect.WithAdvisorName(name),
		aspect.WithPointcut(pc),
		aspect.WithPerInstance(def.PerInstance),
	}
	if def.Order != nil {
		opts = append(opts, aspect.WithOrder(*def.Order))
	}
	return aspect.NewAdvisor(advice, opts...), nil
}

func (p PointcutDef) build() (aspect.Pointcut, error) {
	var parts []aspect.Pointcut
	if len(p.Names) > 0 {
		pc, err := aspect.NameMatchPointcut(p.Names...)
		if err != nil {
			return nil, err
		}
		parts = append(parts, pc)
	}
	if len(p.Regexp) > 0 || len(p.Exclude) > 0 {
		patterns := p.Regexp
		if len(patterns) == 0 {
			patterns = []string{".*"}
		}
		pc, err := aspect.RegexpPointcut(patterns, p.Exclude...)
		if err != nil {
			return nil, err
		}
		parts = append(parts, pc)
	}
	if p.Annotation != "" {
		parts = append(parts, aspect.AnnotationPointcut(p.Annotation))
	}
	if p.Expr != "" {
		mm, err := aspect.ExprMethodMatcher(p.Expr)
		if err != nil {
			return nil, err
		}
		parts = append(parts, aspect.NewPointcut(nil, mm))
	}
	switch len(parts) {
	case 0:
		return aspect.TruePointcut, nil
	case 1:
		return parts[0], nil
	}
	return aspect.Intersection(parts...), nil
}

// Apply configures f from the definition. Interface names resolve through
// the registry.
func (d *Definition) Apply(f *aspect.ProxyFactory, registry *Registry) error {
	if err := f.SetProxyTargetType(d.ProxyTargetType); err != nil {
		return err
	}
	for _, name := range d.Interfaces {
		iface, err := registry.Interface(name)
		if err != nil {
			return err
		}
		if err := f.AddInterface(iface); err != nil {
			return errors.Wrap(err, name)
		}
	}
	advisors, err := d.Build(registry)
	if err != nil {
		return err
	}
	for _, a := range advisors {
		if err := f.AddAdvisor(a); err != nil {
			return errors.Wrapf(err, "advisor %s", a.Name())
		}
	}
	return nil
}
