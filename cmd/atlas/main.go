package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"

	"atlas-cli/internal/cli"
	"atlas-cli/internal/model"
)

const version = "0.1.0"

var subcommands = map[string]bool{
	"entries": true, "entry": true, "ls": true,
	"upload": true, "config": true, "docs": true,
	"help": true, "completion": true,
}

func isUploadTarget(s string) bool {
	s = strings.TrimSpace(s)
	if subcommands[s] {
		return false
	}
	l := strings.ToLower(s)
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(l, scheme) {
			return len(l) > len(scheme)
		}
	}
	if !model.IsImagePath(s) {
		return false
	}
	fi, err := os.Stat(s)
	return err == nil && !fi.IsDir()
}

// rewriteDirectUploadArgs makes `atlas <file-or-url>...` behave like
// `atlas upload <file-or-url>...`. Cobra treats the first positional token as a
// subcommand, so argv is rewritten before parsing. Persistent flags may come
// first, so the first positional token is searched for rather than argv[1].
func rewriteDirectUploadArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--api":       true,
		"--timeout":   true,
		"--format":    true,
		"--log-file":  true,
		"--log-level": true,
	}

	insert := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "upload")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isUploadTarget(argv[i+1]) {
				return insert(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			// Unknown flags are skipped without consuming a value.
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isUploadTarget(a) {
			return insert(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectUploadArgs(os.Args)

	root := cli.NewRootCmd()
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(cli.ErrorHandler),
	); err != nil {
		os.Exit(1)
	}
}
