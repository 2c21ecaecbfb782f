package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abagames/algo-chip-sub000/internal/composer"
	"github.com/abagames/algo-chip-sub000/internal/motif"
	"github.com/abagames/algo-chip-sub000/internal/server"
)

var (
	version = "0.1.0"
)

func main() {
	// Optional .env for local defaults; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "algochip",
	Short: "Generate seed-reproducible chiptune background music",
	Long: `algochip composes looping 4-channel chiptune tracks from a motif
library. The same options and seed always produce the identical event
list, so tracks can be stored as a handful of parameters.

Pipeline: structure plan → motif selection → event realization →
technique post-processing → timeline finalization`,
	Version: version,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Compose a track and emit the event list as JSON",
	Long: `Compose one track from mood, tempo, and length options.

Examples:
  algochip generate --mood upbeat --tempo medium --length 16
  algochip generate -m calm -t slow -l 32 --seed 42 -o track.json
  algochip generate -m heroic -t fast -l 64 --preset action`,
	RunE: runGenerate,
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List available moods, tempos, and style presets",
	RunE:  runStyles,
}

var validateCmd = &cobra.Command{
	Use:   "validate [library.json]",
	Short: "Validate a motif library file",
	Long: `Check a motif library for structural defects: duplicate ids,
malformed drum patterns, unknown chord symbols, and dangling
variation links. With no argument the builtin library is checked.

Example:
  algochip validate motifs.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the composition HTTP API",
	Long: `Start the JSON API for composing tracks over HTTP.

Example:
  algochip serve --port 8080`,
	RunE: runServe,
}

var (
	// generate flags
	mood       string
	tempo      string
	length     int
	seed       uint32
	preset     string
	repeatBias float64
	libPath    string
	outputPath string
	pretty     bool
	verbose    bool

	// serve flags
	port int
)

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(stylesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)

	generateCmd.Flags().StringVarP(&mood, "mood", "m", "upbeat", "Mood (calm, upbeat, tense, melancholic, heroic, mysterious)")
	generateCmd.Flags().StringVarP(&tempo, "tempo", "t", "medium", "Tempo (slow, medium, fast)")
	generateCmd.Flags().IntVarP(&length, "length", "l", 16, "Length in measures")
	generateCmd.Flags().Uint32Var(&seed, "seed", 1, "Random seed (same seed, same track)")
	generateCmd.Flags().StringVar(&preset, "preset", "", "Style preset (chiptune, ambient, action, puzzle)")
	generateCmd.Flags().Float64Var(&repeatBias, "repeat-bias", -1, "Section repeat bias in [0,1]; negative uses the default")
	generateCmd.Flags().StringVar(&libPath, "library", "", "Motif library JSON (default: builtin)")
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file for the event list (default: stdout)")
	generateCmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	generateCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	validateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "")
	validateCmd.Flags().MarkHidden("output")

	serveCmd.Flags().IntVarP(&port, "port", "p", defaultPort(), "Port to listen on")
	serveCmd.Flags().StringVar(&libPath, "library", "", "Motif library JSON (default: builtin)")
}

func defaultPort() int {
	if v := os.Getenv("ALGOCHIP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			return p
		}
	}
	return 8080
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadLibrary() (*motif.Library, error) {
	if libPath == "" {
		return motif.Builtin(), nil
	}
	return motif.LoadFile(libPath)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	setupLogging()

	lib, err := loadLibrary()
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}

	opts := composer.Options{
		Mood:             mood,
		Tempo:            tempo,
		LengthInMeasures: length,
		Seed:             seed,
		StylePreset:      preset,
	}
	if repeatBias >= 0 {
		opts.SectionRepeatBias = &repeatBias
	}

	result, err := composer.New(lib).Compose(opts)
	if err != nil {
		return err
	}

	var payload []byte
	if pretty {
		payload, err = json.MarshalIndent(result, "", "  ")
	} else {
		payload, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, payload, 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else {
		fmt.Println(string(payload))
	}

	fmt.Fprintf(os.Stderr, "  %d events, %.0f BPM, %s, %.1fs loop\n",
		len(result.Events), result.Meta.BPM, result.Meta.Key,
		result.Meta.LoopInfo.TotalDuration)
	return nil
}

func runStyles(cmd *cobra.Command, args []string) error {
	fmt.Println("Moods:")
	for _, m := range composer.Moods() {
		fmt.Printf("  %s\n", m)
	}
	fmt.Println("Tempos:")
	for _, t := range composer.Tempos() {
		fmt.Printf("  %s\n", t)
	}
	fmt.Println("Style presets:")
	for _, p := range composer.StylePresets() {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	setupLogging()

	if len(args) == 0 {
		if err := motif.Builtin().Validate(); err != nil {
			return err
		}
		fmt.Println("builtin library: ok")
		return nil
	}

	if _, err := motif.LoadFile(args[0]); err != nil {
		return err
	}
	fmt.Printf("%s: ok\n", args[0])
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	setupLogging()

	lib, err := loadLibrary()
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}

	return server.New(server.Config{Port: port}, lib).Run()
}
