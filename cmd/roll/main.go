// Package main provides a CLI that rolls dice expressions and prints the results.
//
// Usage:
//
//	roll [-config d7.yaml] [-format text|json|yaml] [-max-reroll N] [-seed N] 4d6kh3 2d20rr<10
//	roll -presets ./presets attack stats
//	roll -script ./scripts -call attack
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/d7/internal/config"
	"github.com/cory-johannsen/d7/internal/game/dice"
	"github.com/cory-johannsen/d7/internal/game/preset"
	"github.com/cory-johannsen/d7/internal/observability"
	"github.com/cory-johannsen/d7/internal/report"
	"github.com/cory-johannsen/d7/internal/scripting"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults apply when empty)")
	format := flag.String("format", "text", "output format: text, json or yaml")
	maxReroll := flag.Int("max-reroll", -1, "per-die cap on rr rerolls (overrides config when >= 0)")
	seed := flag.Int64("seed", 0, "seed for a reproducible roll (overrides config when non-zero)")
	presetDir := flag.String("presets", "", "directory of YAML roll presets; arguments matching a preset id roll that preset")
	scriptDir := flag.String("script", "", "directory of Lua scripts to load")
	call := flag.String("call", "", "Lua function to call after loading -script")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *maxReroll >= 0 {
		cfg.Dice.MaxReroll = *maxReroll
	}
	if *seed != 0 {
		cfg.Dice.Source = "seeded"
		cfg.Dice.Seed = *seed
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	out, err := report.ParseFormat(*format)
	if err != nil {
		logger.Fatal("parsing output format", zap.Error(err))
	}

	roller := newRoller(cfg.Dice, logger)

	if *scriptDir != "" {
		if err := runScript(roller, logger, cfg.Scripting, *scriptDir, *call, os.Stdout); err != nil {
			logger.Fatal("running script", zap.Error(err))
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		exit(logger, 1)
	}

	var reg *preset.Registry
	if *presetDir != "" {
		reg, err = loadPresets(*presetDir)
		if err != nil {
			logger.Fatal("loading presets", zap.Error(err))
		}
		logger.Info("presets loaded", zap.Int("count", reg.Len()))
	}

	if failed := rollAll(roller, reg, flag.Args(), out, os.Stdout, logger); failed > 0 {
		exit(logger, 1)
	}
}

// osExit is replaced in tests.
var osExit = os.Exit

// exit flushes logger before terminating, since os.Exit skips deferred calls.
func exit(logger *zap.Logger, code int) {
	_ = logger.Sync()
	osExit(code)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// newRoller builds the logged roller described by cfg.
func newRoller(cfg config.DiceConfig, logger *zap.Logger) *dice.Roller {
	src := dice.NewCryptoSource()
	if cfg.Source == "seeded" {
		src = dice.NewSeededSource(cfg.Seed)
	}
	return dice.NewLoggedRoller(src, logger).WithLimits(dice.Limits{
		MaxReroll:        cfg.MaxReroll,
		MaxExplodeRounds: cfg.MaxExplodeRounds,
	})
}

func loadPresets(dir string) (*preset.Registry, error) {
	presets, err := preset.Load(dir)
	if err != nil {
		return nil, err
	}
	return preset.NewRegistry(presets)
}

// rollAll rolls each preset id or expression and writes it to w, returning
// how many failed. reg may be nil.
func rollAll(roller *dice.Roller, reg *preset.Registry, refs []string, f report.Format, w io.Writer, logger *zap.Logger) int {
	limits := roller.Limits()
	failed := 0
	for _, ref := range refs {
		expr, err := reg.Resolve(ref, limits.MaxReroll)
		if err != nil {
			logger.Error("parsing expression", zap.String("ref", ref), zap.Error(err))
			failed++
			continue
		}
		result, err := roller.Roll(expr.WithExplodeLimit(limits.MaxExplodeRounds))
		if err != nil {
			logger.Error("rolling expression", zap.String("ref", ref), zap.Error(err))
			failed++
			continue
		}
		if err := report.Write(w, f, result); err != nil {
			logger.Error("writing result", zap.String("ref", ref), zap.Error(err))
			failed++
		}
	}
	return failed
}

func runScript(roller *dice.Roller, logger *zap.Logger, cfg config.ScriptingConfig, dir, fn string, w io.Writer) error {
	if fn == "" {
		return fmt.Errorf("-call is required with -script")
	}
	mgr := scripting.NewManager(roller, logger, cfg.InstructionLimit)
	defer mgr.Close()

	if err := mgr.LoadDir("cli", dir); err != nil {
		return err
	}
	ret, err := mgr.Call("cli", fn)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, ret.String())
	return err
}
