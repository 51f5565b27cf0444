// Command staticlint runs the project's static checks in one multichecker:
// go vet passes, selected staticcheck analyzers, ineffassign, nilerr and the
// project analyzer deferunlock.
//
// The staticcheck analyzers to enable are listed in a JSON file, config.json
// next to the binary by default, or the file named by STATICLINT_CONFIG:
//
//	{"Staticcheck": ["SA1000", "SA4006"]}
//
// A missing file enables every SA analyzer.
package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	env "github.com/caarlos0/env/v6"
	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/greeter/cmd/staticlint/deferunlock"
)

// ConfigData describes the configuration file.
type ConfigData struct {
	Staticcheck []string
}

type settings struct {
	ConfigFile string `env:"STATICLINT_CONFIG"`
}

func loadConfig() (*ConfigData, error) {
	var s settings
	if err := env.Parse(&s); err != nil {
		return nil, err
	}
	if s.ConfigFile == "" {
		appfile, err := os.Executable()
		if err != nil {
			return nil, err
		}
		s.ConfigFile = filepath.Join(filepath.Dir(appfile), "config.json")
	}

	data, err := os.ReadFile(s.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg ConfigData
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func staticcheckAnalyzers(cfg *ConfigData) []*analysis.Analyzer {
	enabled := map[string]bool{}
	if cfg != nil {
		for _, name := range cfg.Staticcheck {
			enabled[name] = true
		}
	}

	var result []*analysis.Analyzer
	for _, v := range staticcheck.Analyzers {
		name := v.Analyzer.Name
		if (cfg == nil && strings.HasPrefix(name, "SA")) || enabled[name] {
			result = append(result, v.Analyzer)
		}
	}

	return result
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("staticlint: reading config: %v", err)
	}

	checks := []*analysis.Analyzer{
		copylock.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		deferunlock.Analyzer,
	}
	checks = append(checks, staticcheckAnalyzers(cfg)...)

	multichecker.Main(checks...)
}
