package tui

import "strings"

// Paths may come from a peer on another OS, so they are handled by their
// own separator instead of this machine's.

func separator(p string) string {
	if strings.Contains(p, `\`) && !strings.Contains(p, "/") {
		return `\`
	}
	return "/"
}

func joinPath(base, name string) string {
	sep := separator(base)
	if base == "" {
		return name
	}
	if strings.HasSuffix(base, sep) {
		return base + name
	}
	return base + sep + name
}

// isRoot reports whether p is "/" or a drive root like "C:\".
func isRoot(p string) bool {
	if p == "/" || p == `\` {
		return true
	}
	if len(p) == 2 && p[1] == ':' {
		return true
	}
	return len(p) == 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

// parentPath returns the directory above p. ok is false at a root, where
// the parent is the drive list.
func parentPath(p string) (parent string, ok bool) {
	if p == "" || isRoot(p) {
		return "", false
	}
	sep := separator(p)
	trimmed := strings.TrimRight(p, sep)
	if trimmed == "" {
		return "", false
	}

	i := strings.LastIndex(trimmed, sep)
	switch {
	case i < 0:
		return "", false
	case i == 0:
		return sep, true
	}

	parent = trimmed[:i]
	if len(parent) == 2 && parent[1] == ':' {
		parent += sep
	}
	return parent, true
}
