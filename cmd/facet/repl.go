package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	facet "github.com/rokoss21/FACET"
)

const (
	replHistoryFile = ".facet_history"
	replPromptMain  = "facet> "
	replPromptCont  = "   ...> "
)

// newReplCmd offers an interactive canonicalization loop: each blank-line
// terminated block is canonicalized and its JSON printed, structured after
// a liner-based input loop, but driven by document completeness
// (blank line) rather than a parse probe, since FACET documents are
// indentation-delimited rather than expression-delimited.
func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactively canonicalize documents line by line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, "")
			if err != nil {
				return err
			}
			return runRepl(cfg)
		},
	}
}

func runRepl(cfg facet.Config) error {
	fmt.Println("FACET canonicalization REPL. Blank line submits, :quit exits.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, replHistoryFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		doc, ok := readUntilBlank(ln)
		if !ok {
			fmt.Println()
			return nil
		}
		trimmed := strings.TrimSpace(doc)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return nil
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		out, diags := facet.CanonizeToJSON([]byte(doc), cfg)
		if len(diags) > 0 {
			printDiagnostics(diags)
			continue
		}
		fmt.Println(okStyle.Render(out))
		ln.AppendHistory(strings.ReplaceAll(doc, "\n", " ⏎ "))
	}
}

func readUntilBlank(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(replPromptMain)
		} else {
			line, err = ln.Prompt(replPromptCont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if line == "" && b.Len() > 0 {
			return b.String(), true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
}
