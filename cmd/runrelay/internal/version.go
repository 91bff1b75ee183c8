package internal

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the runrelay version",
		Run: func(cmd *cobra.Command, args []string) {
			v, err := deriveVersion()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
		},
	}
}

func deriveVersion() (string, error) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", fmt.Errorf("could not read build info")
	}
	return deriveVersionFromInfo(info)
}

// deriveVersionFromInfo prefers the module version stamped into a released
// build. A devel build falls back to a pseudo-version assembled from the
// embedded VCS metadata (https://go.dev/ref/mod#pseudo-versions), marked
// "+dirty" when the tree had uncommitted changes.
func deriveVersionFromInfo(info *debug.BuildInfo) (string, error) {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v, nil
	}

	var revision, at string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			at = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" && at == "" {
		return "", fmt.Errorf("version information is not available")
	}

	stamp := ""
	if at != "" {
		// vcs.time is of the form 2023-01-25T19:57:54Z
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			stamp = t.Format("20060102150405") + "-"
		}
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}

	v := "v0.0.0-" + stamp + revision
	if dirty {
		v += "+dirty"
	}
	return v, nil
}
