package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Location is a parsed root argument
type Location struct {
	Host string
	User string
	Path string
}

// IsRemote returns true if the location refers to a remote host
func (l Location) IsRemote() bool {
	return l.Host != ""
}

func (l Location) String() string {
	if !l.IsRemote() {
		return l.Path
	}
	if l.User != "" {
		return fmt.Sprintf("%s@%s:%s", l.User, l.Host, l.Path)
	}
	return fmt.Sprintf("%s:%s", l.Host, l.Path)
}

// ParseLocation parses a root argument.
//
// Supported formats:
//   - /absolute/path or relative/path → local
//   - host:path                       → SFTP (current user)
//   - user@host:path                  → SFTP
//
// A path containing ":" is only remote if the part before the colon has no
// path separator, so "./host:path" and "/foo:bar" stay local. Single-letter
// hosts are read as Windows drive letters.
func ParseLocation(arg string) Location {
	if filepath.IsAbs(arg) || strings.HasPrefix(arg, "./") || strings.HasPrefix(arg, "../") {
		return Location{Path: arg}
	}

	colon := strings.Index(arg, ":")
	if colon <= 0 {
		return Location{Path: arg}
	}

	hostPart := arg[:colon]
	if strings.ContainsAny(hostPart, `/\`) || len(hostPart) == 1 {
		return Location{Path: arg}
	}

	loc := Location{Path: arg[colon+1:]}
	if at := strings.LastIndex(hostPart, "@"); at >= 0 {
		loc.User = hostPart[:at]
		loc.Host = hostPart[at+1:]
	} else {
		loc.Host = hostPart
	}
	if loc.Path == "" {
		loc.Path = "."
	}
	return loc
}
