package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	facet "github.com/rokoss21/FACET"
)

var (
	resolveMode string
	varFlags    []string
	importRoots []string
	strictMerge bool
	verbose     bool
	outFormat   string
	configFile  string
	varFile     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "facet",
		Short:         "Compile FACET markup documents to canonical JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&resolveMode, "resolve", "host", "variable resolve mode: host|all")
	root.PersistentFlags().StringArrayVar(&varFlags, "var", nil, "host variable as key=value (repeatable)")
	root.PersistentFlags().StringArrayVar(&importRoots, "import-root", nil, "allowlisted import root (repeatable)")
	root.PersistentFlags().BoolVar(&strictMerge, "strict-merge", false, "fail on mismatched shapes during import merge")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable engine trace logging")
	root.PersistentFlags().StringVar(&outFormat, "format", "json", "output format for to-json/canon: json|yaml")
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML project config supplying default resolve mode/import roots/vars")
	root.PersistentFlags().StringVar(&varFile, "var-file", "", "YAML file of host variables merged as defaults under --var")

	_ = viper.BindPFlag("resolve", root.PersistentFlags().Lookup("resolve"))

	root.AddCommand(
		newToJSONCmd(),
		newValidateCmd(),
		newFmtCmd(),
		newLintCmd(),
		newCanonCmd(),
		newWatchCmd(),
		newReplCmd(),
	)
	return root
}

func newLogger() zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// fileConfig is the shape of a `--config` YAML project file: layered
// defaults for repeated invocations, overridden by any flag the caller
// actually set (checked via cmd.Flags().Changed).
type fileConfig struct {
	Resolve     string         `yaml:"resolve"`
	ImportRoots []string       `yaml:"import_roots"`
	StrictMerge bool           `yaml:"strict_merge"`
	Vars        map[string]any `yaml:"vars"`
}

func loadConfigFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("reading config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	return fc, nil
}

func loadVarFile(path string) (map[string]any, error) {
	vars := map[string]any{}
	if path == "" {
		return vars, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading var file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("parsing var file %q: %w", path, err)
	}
	return vars, nil
}

// projectMarkers and rootSubdirs mirror the original prototype's
// _auto_detect_roots: walk up from the input file looking for a project
// marker, then seed import roots from whichever common subdirectories
// actually exist alongside it.
var projectMarkers = []string{
	"go.mod", ".git", ".gitignore", "package.json", "Cargo.toml", "facet.config.json",
}

var rootSubdirs = []string{"facets", "templates", "common", "shared", "configs", "samples"}

// autoDetectImportRoots walks up to 5 levels from startPath (a file or
// directory) looking for a project marker, returning that directory plus
// whichever of rootSubdirs exist under it. Returns nil if no marker is
// found within 5 levels.
func autoDetectImportRoots(startPath string) []string {
	dir := startPath
	if dir == "" {
		dir, _ = os.Getwd()
	} else if info, err := os.Stat(startPath); err == nil && !info.IsDir() {
		dir = filepath.Dir(startPath)
	}
	search := dir
	for i := 0; i < 5; i++ {
		hasMarker := false
		for _, m := range projectMarkers {
			if _, err := os.Stat(filepath.Join(search, m)); err == nil {
				hasMarker = true
				break
			}
		}
		if hasMarker {
			roots := []string{search}
			for _, sub := range rootSubdirs {
				p := filepath.Join(search, sub)
				if info, err := os.Stat(p); err == nil && info.IsDir() {
					roots = append(roots, p)
				}
			}
			return roots
		}
		parent := filepath.Dir(search)
		if parent == search {
			break
		}
		search = parent
	}
	return nil
}

// buildConfig assembles a facet.Config from, in increasing precedence:
// auto-detected import roots, --var-file, --config, and explicit flags.
// inputPath seeds import-root auto-detection ("" for REPL/stdin, where
// detection falls back to the working directory).
func buildConfig(cmd *cobra.Command, inputPath string) (facet.Config, error) {
	fc, err := loadConfigFile(configFile)
	if err != nil {
		return facet.Config{}, err
	}
	fileVars, err := loadVarFile(varFile)
	if err != nil {
		return facet.Config{}, err
	}
	vars := map[string]any{}
	for k, v := range fileVars {
		vars[k] = v
	}
	for k, v := range fc.Vars {
		vars[k] = v
	}
	flagVars, err := parseHostVars(varFlags)
	if err != nil {
		return facet.Config{}, err
	}
	for k, v := range flagVars {
		vars[k] = v
	}

	mode := resolveMode
	if !cmd.Flags().Changed("resolve") && fc.Resolve != "" {
		mode = fc.Resolve
	}

	roots := importRoots
	if !cmd.Flags().Changed("import-root") && len(fc.ImportRoots) > 0 {
		roots = fc.ImportRoots
	}
	if len(roots) == 0 {
		roots = autoDetectImportRoots(inputPath)
	}

	strict := strictMerge
	if !cmd.Flags().Changed("strict-merge") && fc.StrictMerge {
		strict = true
	}

	return facet.Config{
		ResolveMode: mode,
		HostVars:    vars,
		ImportRoots: roots,
		StrictMerge: strict,
		Logger:      newLogger(),
	}, nil
}

func parseHostVars(pairs []string) (map[string]any, error) {
	out := map[string]any{}
	for _, p := range pairs {
		eq := strings.IndexByte(p, '=')
		if eq < 0 {
			return nil, fmt.Errorf("--var must be key=value, got %q", p)
		}
		out[p[:eq]] = p[eq+1:]
	}
	return out, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return readAllStdin()
	}
	return os.ReadFile(path)
}

func readAllStdin() ([]byte, error) {
	var buf []byte
	tmp := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, nil
}

// exitCodeFor maps an error to the CLI's exit codes: 1 for a
// user-visible diagnostic (or batch of them), 2 for anything else
// (engine/internal error).
func exitCodeFor(err error) int {
	switch err.(type) {
	case facet.Diagnostic, facet.Diagnostics:
		return 1
	}
	return 2
}

// renderCanonical canonicalizes src and renders it in the requested
// output format (json, the default, or yaml).
func renderCanonical(src []byte, cfg facet.Config) (string, facet.Diagnostics) {
	if outFormat == "yaml" {
		result, diags := facet.Canonize(src, cfg)
		if len(diags) > 0 {
			return "", diags
		}
		out, err := facet.EncodeYAML(result)
		if err != nil {
			return "", facet.Diagnostics{{Code: "F999", Message: err.Error()}}
		}
		return out, nil
	}
	return facet.CanonizeToJSON(src, cfg)
}

func printDiagnostic(d facet.Diagnostic) {
	fmt.Fprintf(os.Stderr, "%s: %s at %d:%d\n", d.Code, d.Message, d.Line, d.Column)
	if d.Hint != "" {
		fmt.Fprintf(os.Stderr, "  hint: %s\n", d.Hint)
	}
	if d.Snippet != "" {
		fmt.Fprint(os.Stderr, d.Snippet)
	}
}

// printDiagnostics renders a batch of diagnostics, as YAML (mirroring the
// JSON serializer) when --format yaml is set, plain text otherwise.
func printDiagnostics(ds facet.Diagnostics) {
	if outFormat == "yaml" {
		if out, err := yaml.Marshal(ds); err == nil {
			fmt.Fprint(os.Stderr, string(out))
			return
		}
	}
	for _, d := range ds {
		printDiagnostic(d)
	}
}

func newToJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "to-json <file|->",
		Short: "Canonicalize a document and print its JSON value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			src, err := readInput(args[0])
			if err != nil {
				return err
			}
			out, diags := renderCanonical(src, cfg)
			if len(diags) > 0 {
				printDiagnostics(diags)
				return diags
			}
			fmt.Println(out)
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check that a document canonicalizes without error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			src, err := readInput(args[0])
			if err != nil {
				return err
			}
			if _, diags := facet.Canonize(src, cfg); len(diags) > 0 {
				printDiagnostics(diags)
				return diags
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <file|->",
		Short: "Lex and parse a document, reporting structural diagnostics only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(args[0])
			if err != nil {
				return err
			}
			diags := facet.Lint(src)
			for _, d := range diags {
				printDiagnostic(d)
			}
			if len(diags) > 0 {
				return diags[0]
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func newCanonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "canon <file|->",
		Short: "Canonicalize a document with full resolve/import/merge options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			src, err := readInput(args[0])
			if err != nil {
				return err
			}
			out, diags := renderCanonical(src, cfg)
			if len(diags) > 0 {
				printDiagnostics(diags)
				return diags
			}
			fmt.Println(out)
			return nil
		},
	}
}

func newFmtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt <file|->",
		Short: "Re-print a document in canonical source form, preserving its structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(args[0])
			if err != nil {
				return err
			}
			out, err := facet.FormatSource(src)
			if err != nil {
				if d, ok := err.(facet.Diagnostic); ok {
					printDiagnostic(d)
					return d
				}
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}
