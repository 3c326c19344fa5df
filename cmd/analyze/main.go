package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"confidence-engine/config"
	"confidence-engine/internal/engine"
	"confidence-engine/internal/ingest"

	"github.com/joho/godotenv"
)

type confidenceBucket struct {
	MinConf float64
	MaxConf float64
	Bars    int
}

// bucketIndex returns the bucket a confidence value falls into, or -1.
// Buckets are half-open except the last, which is closed at the top so
// absolute triggers at exactly 100 are counted.
func bucketIndex(buckets []confidenceBucket, conf float64) int {
	for j := range buckets {
		last := j == len(buckets)-1
		if conf >= buckets[j].MinConf && (conf < buckets[j].MaxConf || (last && conf <= buckets[j].MaxConf)) {
			return j
		}
	}
	return -1
}

func main() {
	csvPath := flag.String("csv", "", "path to OHLCV CSV file (required)")
	weightsPath := flag.String("weights", "", "optional YAML weights override file")
	threshold := flag.Float64("threshold", 50, "buy event confidence threshold")
	peakWindow := flag.Duration("peak-window", 24*time.Hour, "forward window for peak selection")
	cooldown := flag.Duration("cooldown", 72*time.Hour, "minimum gap between buy events")
	jsonOut := flag.Bool("json", false, "emit buy events as JSON instead of a report")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	data, err := ingest.LoadFile(*csvPath)
	if err != nil {
		fmt.Printf("Failed to load bars: %v\n", err)
		os.Exit(1)
	}

	cfg := engine.DefaultConfig()
	cfg.Extractor.Threshold = *threshold
	cfg.Extractor.PeakWindow = *peakWindow
	cfg.Extractor.Cooldown = *cooldown

	if *weightsPath != "" {
		wf, err := config.LoadWeightsFile(*weightsPath)
		if err != nil {
			fmt.Printf("Failed to load weights: %v\n", err)
			os.Exit(1)
		}
		cfg.VsaWeights = wf.Vsa
		cfg.ScoreWeights = wf.Score
	}

	res, err := engine.Run(data.Bars, data.MvrvZ, cfg)
	if err != nil {
		fmt.Printf("Analysis failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		out, err := json.MarshalIndent(res.Events, "", "  ")
		if err != nil {
			fmt.Printf("Failed to encode events: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Println("================================================================================")
	fmt.Println("CONFIDENCE ANALYSIS")
	fmt.Println("================================================================================")
	fmt.Printf("\nAnalyzed %d bars, %d daily rows\n\n", len(data.Bars), len(res.Daily))

	buckets := []confidenceBucket{
		{MinConf: 0, MaxConf: 10},
		{MinConf: 10, MaxConf: 25},
		{MinConf: 25, MaxConf: 50},
		{MinConf: 50, MaxConf: 75},
		{MinConf: 75, MaxConf: 100},
	}
	absolute := 0
	for i, conf := range res.Confidence {
		if res.Scores[i].Absolute {
			absolute++
		}
		if j := bucketIndex(buckets, conf); j >= 0 {
			buckets[j].Bars++
		}
	}

	fmt.Println("┌─────────────────┬────────┐")
	fmt.Println("│ Confidence      │ Bars   │")
	fmt.Println("├─────────────────┼────────┤")
	for _, b := range buckets {
		fmt.Printf("│ %5.0f%% - %5.0f%% │ %6d │\n", b.MinConf, b.MaxConf, b.Bars)
	}
	fmt.Println("└─────────────────┴────────┘")
	if absolute > 0 {
		fmt.Printf("\nAbsolute triggers: %d bars at 100%%\n", absolute)
	}

	fmt.Printf("\nBuy events (threshold %.1f, peak window %s, cooldown %s):\n",
		*threshold, *peakWindow, *cooldown)
	if len(res.Events) == 0 {
		fmt.Println("  none")
		return
	}
	for _, ev := range res.Events {
		t := time.UnixMilli(ev.Timestamp).UTC()
		fmt.Printf("  %s  confidence %.1f\n", t.Format("2006-01-02 15:04"), ev.Confidence)
		for name, w := range ev.Contributions {
			fmt.Printf("      %-10s %.2f\n", name, w)
		}
	}
}
