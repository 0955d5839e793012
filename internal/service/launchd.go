// Package service provides launchd plist generation for macOS.
package service

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

const launchdTemplate = `<?xml version='1.0' encoding='UTF-8'?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
  <key>Label</key><string>{{.Label}}</string>
  <key>ProgramArguments</key>
  <array>
    <string>{{.Binary}}</string>
    <string>serve</string>
    <string>--config</string>
    <string>{{.Config}}</string>
  </array>
  <key>RunAtLoad</key><true/>
  <key>KeepAlive</key><dict><key>SuccessfulExit</key><false/></dict>
  <key>StandardOutPath</key><string>{{.Log}}</string>
  <key>StandardErrorPath</key><string>{{.Log}}</string>
  {{- if .Env }}
  <key>EnvironmentVariables</key>
  <dict>
    {{- range $k, $v := .Env }}
    <key>{{$k}}</key><string>{{$v}}</string>
    {{- end }}
  </dict>
  {{- end }}
</dict>
</plist>`

// DefaultLabel is the launchd label used by the service subcommands.
const DefaultLabel = "com.aka.agent"

var launchdTpl = template.Must(template.New("launchd").Parse(launchdTemplate))

// LaunchdParams fills the plist template.
type LaunchdParams struct {
	Label  string
	Binary string
	Config string
	Log    string
	Env    map[string]string
}

// LaunchdPath returns the plist path for a label.
func LaunchdPath(label string) string {
	return filepath.Join(launchAgentsDir(), fmt.Sprintf("%s.plist", label))
}

func launchAgentsDir() string {
	return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents")
}

// WritePlist writes a user-level launchd plist.
func WritePlist(params LaunchdParams) (string, error) {
	if err := os.MkdirAll(filepath.Dir(params.Config), 0o755); err != nil {
		return "", err
	}
	if err := os.MkdirAll(launchAgentsDir(), 0o755); err != nil {
		return "", err
	}
	path := LaunchdPath(params.Label)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := launchdTpl.Execute(f, params); err != nil {
		return "", err
	}
	return path, nil
}
