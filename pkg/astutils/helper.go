package astutils

import (
	"go/ast"
	"regexp"
	"strings"
)

var regexAnnotation = regexp.MustCompile(`^\s*(@[A-Z][a-zA-Z0-9]*)(\(.*\))?\s*$`)

func trimQuotes(s string) string {
	return strings.TrimFunc(s, func(c rune) bool {
		return c == '"'
	})
}

func trimBrackets(s string) string {
	return strings.TrimFunc(s, func(c rune) bool {
		return c == '(' || c == ')'
	})
}

// ParseAnnotations returns the annotations of a comment group, one per line.
func ParseAnnotations(c *ast.CommentGroup) []Annotation {
	if c == nil {
		return nil
	}
	var result []Annotation
	for _, v := range commentLines(c) {
		if ss := regexAnnotation.FindStringSubmatch(v); len(ss) > 1 {
			result = append(result, Annotation(ss[1]))
		}
	}
	return result
}

// GetCommentParam parses the parameters of annotation a, e.g.
// @Proxy(suffix=Impl) or @Pointcut("Log, Retry"). Values without a key are
// joined under CommentKeyDefault.
func GetCommentParam(c *ast.CommentGroup, a Annotation) (ret map[AnnotationKey]string) {
	if c == nil {
		return
	}
	ret = make(map[AnnotationKey]string)
	var defaults []string
	for _, v := range commentLines(c) {
		ss := regexAnnotation.FindStringSubmatch(v)
		if len(ss) < 3 || ss[1] != a.String() {
			continue
		}
		str := strings.TrimSpace(trimBrackets(ss[2]))
		for _, v := range strings.Split(trimQuotes(str), ",") {
			v = strings.TrimSpace(v)
			if kv := strings.SplitN(v, "=", 2); len(kv) == 2 {
				key := AnnotationKey(strings.TrimSpace(kv[0]))
				if IsSystemAnnotationKey(key) {
					ret[key] = trimQuotes(strings.TrimSpace(kv[1]))
				}
				continue
			}
			if v = trimQuotes(v); v != "" {
				defaults = append(defaults, v)
			}
		}
	}
	if len(defaults) > 0 {
		ret[CommentKeyDefault] = strings.Join(defaults, ",")
	}
	return ret
}

// commentLines are the lines of c without comment markers. Unlike
// CommentGroup.Text it keeps //@Directive lines.
func commentLines(c *ast.CommentGroup) []string {
	var lines []string
	for _, cm := range c.List {
		text := cm.Text
		switch {
		case strings.HasPrefix(text, "//"):
			lines = append(lines, strings.TrimSpace(text[2:]))
		case strings.HasPrefix(text, "/*"):
			text = strings.TrimSuffix(text[2:], "*/")
			for _, l := range strings.Split(text, "\n") {
				lines = append(lines, strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(l), "*")))
			}
		}
	}
	return lines
}

func validCustomAnnotation(name string) (Annotation, bool) {
	full := name
	if !strings.HasPrefix(full, "@") {
		full = "@" + full
	}
	if regexAnnotation.MatchString(full) {
		anno := Annotation(full)
		if !IsSystemAnnotation(anno) {
			return anno, true
		}
	}
	return "", false
}
