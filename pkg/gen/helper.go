package gen

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

// getAllPathPatterns expands directory patterns to every directory below
// them, relative to base. Hidden and underscore directories are skipped, as
// the go tool does.
func getAllPathPatterns(base string, patterns []string) []string {
	var list []string
	for _, v := range patterns {
		if strings.HasSuffix(v, "...") {
			list = append(list, v)
			continue
		}
		root := v
		if base != "" && !filepath.IsAbs(root) {
			root = filepath.Join(base, v)
		}
		_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil || !info.IsDir() {
				return nil
			}
			name := info.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
				return filepath.SkipDir
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			p := filepath.Join(v, rel)
			if !filepath.IsAbs(p) && p != "." && !strings.HasPrefix(p, "..") {
				p = "." + string(filepath.Separator) + p
			}
			list = append(list, p)
			return nil
		})
	}
	return list
}

func packageDir(pkg *packages.Package) string {
	for _, files := range [][]string{pkg.GoFiles, pkg.CompiledGoFiles} {
		if len(files) > 0 {
			return filepath.Dir(files[0])
		}
	}
	return "."
}

func filterEmptyStr(ss ...string) []string {
	arr := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = strings.TrimSpace(s); len(s) > 0 {
			arr = append(arr, s)
		}
	}
	return arr
}
