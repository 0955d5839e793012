package main

import (
	"fmt"
	"os"

	"aka/internal/alias"
	"aka/internal/config"
)

func main() {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}
	l := alias.Parse(cfg.Aliases.Raw)
	fmt.Printf("config=%s raw=%q aliases=%d\n", cfg.Paths.ConfigPath, cfg.Aliases.Raw, l.Len())
	for i, a := range l.Strings() {
		fmt.Printf("alias %d %q (%d bytes)\n", i, a, len(a))
	}
	fmt.Printf("source=%s format=%s hook.command=%q watch=%v\n", cfg.Source.Path, cfg.Source.Format, cfg.Hook.Command, cfg.Watch.Enabled)
}
