// Command hfit turns an HTML file into a bilingual document: every source
// paragraph stays in place and its translation is inserted beneath it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/hfit"
	"github.com/ZaguanLabs/hfit/cache"
	"github.com/ZaguanLabs/hfit/config"
	"github.com/ZaguanLabs/hfit/processor"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// options holds the flag values.
type options struct {
	input       string
	output      string
	configPath  string
	service     string
	from        string
	to          string
	mode        string
	cacheKind   string
	cachePath   string
	context     string
	style       string
	exclude     []string
	sessionID   string
	importCache string
	exportCache string
	diffFile    string
	debug       bool
	dryRun      bool
	jsonOut     bool
	showVersion bool
}

func newRootCmd(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "hfit [input.html]",
		Short: "Insert translations beneath every paragraph of an HTML document",
		Long: `hfit segments an HTML document into paragraphs, translates each paragraph's
semantic blocks in one batch, and writes a bilingual document where every
translation sits right after its source block.

Services:
  google   public web endpoint (default)
  bing     web translator, session token scraped from the translator page
  yandex   website widget endpoint, sid scraped from the widget script
  openai   chat completion (OPENAI_API_KEY)
  mock     upper-cases text, for trying things out offline`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.showVersion {
				printVersion(stdout)
				return nil
			}
			if o.input == "" && len(args) == 1 {
				o.input = args[0]
			}
			return execute(ctx, cmd, o, stdin, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&o.input, "input-file", "i", "", "HTML file to translate (default: stdin)")
	f.StringVarP(&o.output, "output-file", "o", "", "Output file (default: <name>_translated<ext>, or stdout for stdin)")
	f.StringVarP(&o.service, "service", "s", "", "Translation service: google, bing, yandex, openai or mock")
	f.StringVar(&o.from, "from", "", "Source language (default en)")
	f.StringVar(&o.to, "to", "", "Target language (default zh-CN)")
	f.StringVar(&o.mode, "mode", "", "Rendering mode: simple (flattened) or advanced (structure preserving)")
	f.StringVar(&o.configPath, "config", "", "YAML configuration file")
	f.StringVar(&o.cacheKind, "cache", "", "Cache: none, memory, redis or sqlite")
	f.StringVar(&o.cachePath, "cache-path", "", "SQLite cache file")
	f.StringVar(&o.importCache, "import-cache", "", "Load cache entries from a JSON export (.zst for zstd) before translating")
	f.StringVar(&o.exportCache, "export-cache", "", "Write cache entries to a JSON export (.zst for zstd) after translating")
	f.StringVar(&o.context, "context", "", "Description of the document, passed to context-aware services")
	f.StringVar(&o.style, "style", "", "Register: formal, neutral, casual or technical")
	f.StringSliceVar(&o.exclude, "exclude", nil, "Terms that must not be translated")
	f.StringVar(&o.sessionID, "session-id", "", "Fixed session marker (default: random)")
	f.StringVar(&o.diffFile, "diff", "", "Compare with a previous version and list what needs translating")
	f.BoolVar(&o.debug, "debug", false, "Verbose logging")
	f.BoolVar(&o.dryRun, "dry-run", false, "List the strings that would be translated without calling a service")
	f.BoolVar(&o.jsonOut, "json", false, "Print results as JSON")
	f.BoolVar(&o.showVersion, "version", false, "Show version")

	return cmd
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd(ctx, stdin, stdout, stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", hfit.Name, hfit.FullVersion())
	if hfit.BuildDate != "unknown" && hfit.BuildDate != "" {
		fmt.Fprintf(w, "  built:   %s\n", hfit.BuildDate)
	}
}

// loadConfig merges the config file, the environment and the flags that
// were set explicitly.
func loadConfig(cmd *cobra.Command, o options) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}

	set := func(name string, dst *string, val string) {
		if cmd.Flags().Changed(name) {
			*dst = val
		}
	}
	set("service", &cfg.Service, o.service)
	set("from", &cfg.Source, o.from)
	set("to", &cfg.Target, o.to)
	set("mode", &cfg.Mode, o.mode)
	set("cache", &cfg.Cache.Kind, o.cacheKind)
	set("cache-path", &cfg.Cache.Path, o.cachePath)
	set("context", &cfg.Context, o.context)
	set("style", &cfg.Style, o.style)
	if cmd.Flags().Changed("exclude") {
		cfg.Exclude = o.exclude
	}
	if o.debug {
		cfg.Log.Level = "debug"
	}
	// Export and import need somewhere to keep entries.
	if (o.importCache != "" || o.exportCache != "") && cfg.Cache.Kind == cache.KindNone {
		cfg.Cache.Kind = cache.KindMemory
	}

	return cfg, cfg.Validate()
}

func execute(ctx context.Context, cmd *cobra.Command, o options, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	logger := config.SetupLogging(cfg.Log, stderr)

	input, inputName, err := readInput(o.input, stdin)
	if err != nil {
		return err
	}

	mode, _ := hfit.ParseMode(cfg.Mode)
	proc := processor.NewHTMLProcessor(processor.WithMode(mode), processor.WithLogger(logger))

	if o.diffFile != "" {
		return runDiff(proc, input, inputName, o.diffFile, cfg.Target, stdout, o.jsonOut)
	}
	if o.dryRun {
		return runDryRun(proc, input, inputName, cfg.Target, stdout, o.jsonOut)
	}

	tc, closeCache, err := cache.Open(cfg.CacheOptions())
	if err != nil {
		return err
	}
	defer func() {
		if err := closeCache(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close cache")
		}
	}()

	if o.importCache != "" {
		res, err := cache.ImportFile(o.importCache, tc)
		if err != nil {
			return fmt.Errorf("importing cache: %w", err)
		}
		logger.Info().Int("imported", res.Imported).Int("failed", res.Failed).Msg("Imported cache entries")
	}

	backend, err := cfg.Provider()
	if err != nil {
		return err
	}

	opts := []hfit.TranslatorOption{
		hfit.WithSourceLang(cfg.Source),
		hfit.WithProcessor(proc),
		hfit.WithLogger(logger),
		hfit.WithStyle(hfit.TranslationStyle(cfg.Style)),
	}
	if tc != nil {
		opts = append(opts, hfit.WithCache(tc))
	}
	if cfg.Context != "" {
		opts = append(opts, hfit.WithContext(cfg.Context))
	}
	if len(cfg.Exclude) > 0 {
		opts = append(opts, hfit.WithExcludedTerms(trimAll(cfg.Exclude)))
	}
	if len(cfg.Glossary) > 0 {
		opts = append(opts, hfit.WithGlossary(cfg.Glossary))
	}
	if o.sessionID != "" {
		opts = append(opts, hfit.WithSessionID(o.sessionID))
	}
	translator := hfit.NewTranslator(cfg.Target, backend, opts...)

	logger.Info().
		Str("input", inputName).
		Str("service", cfg.Service).
		Str("from", cfg.Source).
		Str("to", cfg.Target).
		Str("mode", string(mode)).
		Msg("Translating")

	start := time.Now()
	result, err := translator.ProcessHTML(ctx, input)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	outputPath := o.output
	if outputPath == "" && o.input != "" {
		outputPath = translatedPath(o.input)
	}
	if err := writeOutput(outputPath, result.Content, stdout, o.jsonOut); err != nil {
		return err
	}

	if o.exportCache != "" {
		if err := cache.ExportFile(o.exportCache, tc, map[string]string{"target": cfg.Target}); err != nil {
			return fmt.Errorf("exporting cache: %w", err)
		}
	}

	if o.jsonOut {
		return outputJSON(stdout, result, outputPath, elapsed)
	}
	logStats(logger, result, outputPath, elapsed)
	return nil
}

func readInput(path string, stdin io.Reader) (string, string, error) {
	if path == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), filepath.Base(path), nil
}

// translatedPath returns "<name>_translated<ext>" next to path.
func translatedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_translated" + ext
}

// writeOutput writes content to path, or to stdout when path is empty and
// the JSON summary is not requested there.
func writeOutput(path, content string, stdout io.Writer, jsonOut bool) error {
	if path == "" {
		if jsonOut {
			return nil
		}
		_, err := io.WriteString(stdout, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { // #nosec G306
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

func logStats(logger zerolog.Logger, r *hfit.ProcessedContent, outputPath string, elapsed time.Duration) {
	ev := logger.Info().
		Int("paragraphs", r.Paragraphs).
		Int("blocks", r.Blocks).
		Int("segments", r.TotalSegments).
		Int("translated", r.TranslatedCount).
		Int("cached", r.CachedCount).
		Dur("elapsed", elapsed.Round(time.Millisecond))
	if outputPath != "" {
		ev = ev.Str("output", outputPath)
	}
	ev.Msg("Done")
}

// JSONOutput is the --json summary of a translation run.
type JSONOutput struct {
	Output          string `json:"output,omitempty"`
	Content         string `json:"content,omitempty"`
	Paragraphs      int    `json:"paragraphs"`
	Blocks          int    `json:"blocks"`
	TotalSegments   int    `json:"total_segments"`
	TranslatedCount int    `json:"translated_count"`
	CachedCount     int    `json:"cached_count"`
	ElapsedMs       int64  `json:"elapsed_ms"`
}

func outputJSON(w io.Writer, r *hfit.ProcessedContent, outputPath string, elapsed time.Duration) error {
	out := JSONOutput{
		Output:          outputPath,
		Paragraphs:      r.Paragraphs,
		Blocks:          r.Blocks,
		TotalSegments:   r.TotalSegments,
		TranslatedCount: r.TranslatedCount,
		CachedCount:     r.CachedCount,
		ElapsedMs:       elapsed.Milliseconds(),
	}
	if outputPath == "" {
		out.Content = r.Content
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func extract(proc *processor.HTMLProcessor, content, target string) ([]hfit.Segment, error) {
	_, segments, err := proc.Extract(content, hfit.ExtractOptions{TargetLang: target, SessionID: "dry-run"})
	return segments, err
}

// runDryRun lists the batch a real run would send.
func runDryRun(proc *processor.HTMLProcessor, input, inputName, target string, stdout io.Writer, jsonOut bool) error {
	segments, err := extract(proc, input, target)
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}

	if jsonOut {
		type dryRunOutput struct {
			InputFile    string   `json:"input_file"`
			TargetLang   string   `json:"target_lang"`
			SegmentCount int      `json:"segment_count"`
			Texts        []string `json:"texts"`
		}
		out := dryRunOutput{InputFile: inputName, TargetLang: target, SegmentCount: len(segments), Texts: []string{}}
		for _, s := range segments {
			out.Texts = append(out.Texts, s.Text)
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(stdout, "Dry run: %s -> %s\n", inputName, target)
	fmt.Fprintf(stdout, "Found %d strings to translate:\n\n", len(segments))
	for i, s := range segments {
		fmt.Fprintf(stdout, "%3d. [p%d b%d] %q\n", i+1, s.Paragraph, s.Block, shorten(s.Text, 60))
		if s.Context != "" {
			fmt.Fprintf(stdout, "     Context: %s\n", s.Context)
		}
	}
	return nil
}

// runDiff compares the batch of input against a previous version.
func runDiff(proc *processor.HTMLProcessor, input, inputName, oldPath, target string, stdout io.Writer, jsonOut bool) error {
	oldData, err := os.ReadFile(oldPath) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return fmt.Errorf("reading previous version: %w", err)
	}
	oldSegs, err := extract(proc, string(oldData), target)
	if err != nil {
		return fmt.Errorf("parsing previous version: %w", err)
	}
	newSegs, err := extract(proc, input, target)
	if err != nil {
		return fmt.Errorf("parsing new version: %w", err)
	}

	diff := hfit.DiffSegmentsWithContext(oldSegs, newSegs)
	stats := diff.Stats()

	if jsonOut {
		type modified struct {
			Old string `json:"old"`
			New string `json:"new"`
		}
		type diffOutput struct {
			InputFile        string         `json:"input_file"`
			PreviousFile     string         `json:"previous_file"`
			Stats            hfit.DiffStats `json:"stats"`
			NeedsTranslation []string       `json:"needs_translation"`
			Removed          []string       `json:"removed,omitempty"`
			Modified         []modified     `json:"modified,omitempty"`
		}
		out := diffOutput{
			InputFile:        inputName,
			PreviousFile:     filepath.Base(oldPath),
			Stats:            stats,
			NeedsTranslation: []string{},
		}
		for _, s := range diff.NeedsTranslation() {
			out.NeedsTranslation = append(out.NeedsTranslation, s.Text)
		}
		for _, s := range diff.Removed {
			out.Removed = append(out.Removed, s.Text)
		}
		for _, m := range diff.Modified {
			out.Modified = append(out.Modified, modified{Old: m.Old.Text, New: m.New.Text})
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(stdout, "Diff: %s vs %s\n\n", inputName, filepath.Base(oldPath))
	fmt.Fprintf(stdout, "  Unchanged: %d\n  Added:     %d\n  Removed:   %d\n  Modified:  %d\n\n",
		stats.Unchanged, stats.Added, stats.Removed, stats.Modified)

	if !diff.HasChanges() {
		fmt.Fprintln(stdout, "No changes detected. Cached translations cover the whole document.")
		return nil
	}
	for _, s := range diff.Added {
		fmt.Fprintf(stdout, "  + %q\n", shorten(s.Text, 50))
	}
	for _, m := range diff.Modified {
		fmt.Fprintf(stdout, "  ~ %q -> %q\n", shorten(m.Old.Text, 30), shorten(m.New.Text, 30))
	}
	for _, s := range diff.Removed {
		fmt.Fprintf(stdout, "  - %q\n", shorten(s.Text, 50))
	}
	fmt.Fprintf(stdout, "\nNeeds translation: %d strings\n", len(diff.NeedsTranslation()))
	return nil
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func trimAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
