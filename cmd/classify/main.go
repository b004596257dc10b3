// Command classify runs the document pipeline over local image files and
// prints one result line per file, optionally emitting the full JSON records.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"iddoc-verify/internal/engine"
	"iddoc-verify/internal/evidence"
	"iddoc-verify/internal/textextract"
	"iddoc-verify/internal/textextract/tesseract"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

type fileResult struct {
	Path             string   `json:"path"`
	Label            string   `json:"label"`
	Confidence       float64  `json:"confidence"`
	TotalPoints      int      `json:"total_points"`
	Trace            []string `json:"trace,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	Error            string   `json:"error,omitempty"`
}

func main() {
	var (
		dirPath     = flag.String("dir", "", "Directory to scan for images (recursive)")
		weightsPath = flag.String("weights", "", "Optional JSON weight overrides")
		languages   = flag.String("languages", "eng,fra", "Comma-separated OCR languages")
		ocrTimeout  = flag.Duration("ocr-timeout", 20*time.Second, "Per-call OCR timeout")
		outputPath  = flag.String("output", "", "Optional path to write JSON results")
		showTrace   = flag.Bool("trace", false, "Print the evidence trace per file")
		verbose     = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	paths, err := collectPaths(*dirPath, flag.Args())
	if err != nil {
		logrus.Fatalf("collect inputs: %v", err)
	}
	if len(paths) == 0 {
		logrus.Fatal("no input images; pass file paths or -dir")
	}

	cfg := engine.DefaultConfig()
	if *weightsPath != "" {
		weights, err := evidence.LoadWeights(*weightsPath)
		if err != nil {
			logrus.Fatalf("load weights: %v", err)
		}
		cfg.Weights = weights
	}

	var langList []string
	for _, lang := range strings.Split(*languages, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			langList = append(langList, lang)
		}
	}
	textEngine := textextract.NewEngine(tesseract.New(langList...), *ocrTimeout)

	eng, err := engine.New(cfg, textEngine, nil, 0)
	if err != nil {
		logrus.Fatalf("assemble engine: %v", err)
	}

	ctx := context.Background()
	results := make([]fileResult, 0, len(paths))
	for _, path := range paths {
		results = append(results, classifyFile(ctx, eng, path, *showTrace))
	}

	for _, res := range results {
		if res.Error != "" {
			fmt.Printf("%-40s error: %s\n", res.Path, res.Error)
			continue
		}
		fmt.Printf("%-40s %-14s confidence=%.2f points=%d (%dms)\n",
			res.Path, res.Label, res.Confidence, res.TotalPoints, res.ProcessingTimeMs)
		if *showTrace {
			for _, line := range res.Trace {
				fmt.Printf("    %s\n", line)
			}
		}
	}

	if *outputPath != "" {
		payload, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			logrus.Fatalf("encode results: %v", err)
		}
		if err := os.WriteFile(*outputPath, payload, 0o644); err != nil {
			logrus.Fatalf("write results: %v", err)
		}
	}
}

func classifyFile(ctx context.Context, eng *engine.Engine, path string, keepTrace bool) fileResult {
	res := fileResult{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	outcome, err := eng.Classify(ctx, data)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Label = string(outcome.Result.Label)
	res.Confidence = outcome.Result.Confidence
	res.TotalPoints = outcome.TotalPoints
	res.ProcessingTimeMs = outcome.ProcessingMs
	if keepTrace {
		res.Trace = outcome.Result.Trace
	}
	return res
}

func collectPaths(dir string, args []string) ([]string, error) {
	seen := map[string]bool{}
	var paths []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}

	for _, arg := range args {
		add(arg)
	}
	if dir != "" {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(path))] {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(paths)
	return paths, nil
}
