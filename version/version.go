package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags -X.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

const commitLen = 7

// Info describes the running binary.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit,omitempty"`
	BuildDate time.Time `json:"build_date"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	IsRelease bool      `json:"is_release"`
	IsDirty   bool      `json:"is_dirty"`
}

// Get merges the link-time variables with the embedded VCS stamp. Linker
// values win.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: abbrev(GitCommit),
		BuildDate: parseTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.applyVCS(bi.Settings)
	}
	info.IsRelease = info.Version != "dev" && !info.IsDirty && !strings.Contains(info.Version, "dirty")
	return info
}

func (i *Info) applyVCS(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch {
		case s.Key == "vcs.revision" && i.GitCommit == "":
			i.GitCommit = abbrev(s.Value)
		case s.Key == "vcs.modified":
			i.IsDirty = s.Value == "true"
		case s.Key == "vcs.time" && i.BuildDate.IsZero():
			i.BuildDate = parseTime(s.Value)
		}
	}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func abbrev(commit string) string {
	return commit[:min(len(commit), commitLen)]
}

// Short is version, then commit and a dirty marker when known, joined by
// dashes.
func (i Info) Short() string {
	var b strings.Builder
	b.WriteString(i.Version)
	if i.GitCommit != "" {
		b.WriteString("-" + i.GitCommit)
	}
	if i.IsDirty {
		b.WriteString("-dirty")
	}
	return b.String()
}

// String adds platform, toolchain and build date to Short.
func (i Info) String() string {
	s := strings.Join([]string{i.Short(), i.Platform, i.GoVersion}, " ")
	if i.BuildDate.IsZero() {
		return s
	}
	return s + " (built " + i.BuildDate.UTC().Format(time.RFC3339) + ")"
}

// UserAgent is sent to remote segmentation services.
func UserAgent() string {
	return "greenscreen/" + Get().Short()
}
