// Package compileinfo reports which build of a tool produced a set of
// outputs, so that reference panels can be traced back to a commit.
package compileinfo

import (
	"fmt"
	"runtime/debug"
)

type CompileInfo struct {
	Package    string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	if c.Package == "" {
		return "Build information is not available for this binary."
	}

	mod := ""
	if c.Modified {
		mod = " Files in the repo were modified after that commit."
	}

	version := ""
	if c.Version != "" && c.Version != "(devel)" {
		version = " " + c.Version
	}

	commit := "an unknown commit"
	if c.Commit != "" {
		commit = fmt.Sprintf("commit %s (%s)", c.Commit, c.CommitTime)
	}

	return fmt.Sprintf("This %s%s binary was built with %s at %s.%s", c.Package, version, c.GoVersion, commit, mod)
}

func Get() CompileInfo {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return fromBuildInfo(z)
}

func fromBuildInfo(z *debug.BuildInfo) CompileInfo {
	out := CompileInfo{
		GoVersion: z.GoVersion,
		Package:   z.Path,
		Version:   z.Main.Version,
	}

	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}
