package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	facet "github.com/rokoss21/FACET"
)

var (
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// newWatchCmd re-runs canonicalization on every save using an fsnotify
// watch loop.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Recanonicalize a document every time it changes on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg, err := buildConfig(cmd, path)
			if err != nil {
				return err
			}
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()
			if err := watcher.Add(path); err != nil {
				return err
			}

			runOnce(path, cfg)
			fmt.Println(dimStyle.Render("watching " + path + " — ctrl-c to stop"))
			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
						runOnce(path, cfg)
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintln(os.Stderr, errStyle.Render(err.Error()))
				}
			}
		},
	}
}

func runOnce(path string, cfg facet.Config) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render(err.Error()))
		return
	}
	out, diags := facet.CanonizeToJSON(src, cfg)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, errStyle.Render(fmt.Sprintf("%s: %s at %d:%d", d.Code, d.Message, d.Line, d.Column)))
		}
		return
	}
	fmt.Println(okStyle.Render("✓ " + path))
	fmt.Println(out)
}
