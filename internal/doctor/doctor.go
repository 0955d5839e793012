package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"aka/internal/alias"
	"aka/internal/config"
	"aka/internal/source"
)

// PrefMaxLength is the longest alias string chat clients accept in their
// preference box. Longer values still parse; they just cannot round-trip
// through such a UI.
const PrefMaxLength = 256

// Result represents a diagnostic check.
type Result struct {
	Name   string
	Pass   bool
	Warn   bool
	Detail string
}

// Run executes doctor checks.
func Run(cfg *config.Config) []Result {
	results := []Result{
		checkFile("config path", cfg.Paths.ConfigPath),
		checkAliases(cfg.Aliases.Raw),
		checkAliasLength(cfg.Aliases.Raw),
		checkSource(cfg.Source.Path, cfg.Source.Format),
	}
	if strings.TrimSpace(cfg.Hook.Command) != "" {
		results = append(results, checkHookExecutable(cfg.Hook.Command))
	}
	return results
}

func checkFile(label, path string) Result {
	if path == "" {
		return Result{Name: label, Pass: false, Detail: "not set"}
	}
	if _, err := os.Stat(os.ExpandEnv(path)); err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: path}
}

func checkAliases(raw string) Result {
	l := alias.Parse(raw)
	if l.Empty() {
		return Result{Name: "aliases", Pass: false, Detail: "no aliases configured; nothing will be flagged"}
	}
	if raw == config.DefaultAliases {
		return Result{Name: "aliases", Pass: true, Warn: true, Detail: "still the example list; run: aka aliases set \"..\""}
	}
	return Result{Name: "aliases", Pass: true, Detail: fmt.Sprintf("%d: %s", l.Len(), l.String())}
}

func checkAliasLength(raw string) Result {
	n := utf8.RuneCountInString(raw)
	if n > PrefMaxLength {
		return Result{Name: "aliases.raw", Pass: true, Warn: true, Detail: fmt.Sprintf("%d characters, longer than the %d a chat client preference box holds", n, PrefMaxLength)}
	}
	return Result{Name: "aliases.raw", Pass: true, Detail: fmt.Sprintf("%d characters", n)}
}

func checkSource(path, format string) Result {
	label := "source"
	if _, err := source.ParseFormat(format); err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	if path == "" || path == "-" {
		return Result{Name: label, Pass: true, Warn: true, Detail: `stdin; fine for "aka serve", but "aka start" needs a file or FIFO`}
	}
	return checkFile(label, path)
}

func checkHookExecutable(cmd string) Result {
	label := "hook.command"
	path := os.ExpandEnv(cmd)
	// If contains a path separator, treat as explicit path.
	if strings.Contains(path, "/") || strings.Contains(path, "\\") {
		info, err := os.Stat(path)
		if err != nil {
			return Result{Name: label, Pass: false, Detail: err.Error()}
		}
		if info.IsDir() {
			return Result{Name: label, Pass: false, Detail: "is a directory; set hook.command to an executable file"}
		}
		if info.Mode().Perm()&0o111 == 0 {
			return Result{Name: label, Pass: false, Detail: "not executable; chmod +x or choose another command"}
		}
		return Result{Name: label, Pass: true, Detail: path}
	}
	// Else search PATH.
	resolved, err := exec.LookPath(path)
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: resolved}
}
