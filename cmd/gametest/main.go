// Command gametest runs every story file under a directory through the
// interpreter far enough to reach the first input prompt, recording
// whether each one loaded and ran cleanly. It's a smoke test, not a
// player: it stops at the first read/read_char request without
// answering it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/avocet-labs/ifvm/zmachine"
)

// TestResult captures the outcome of running a single game.
type TestResult struct {
	Filename     string   `json:"filename"`
	Version      uint8    `json:"version"`
	Success      bool     `json:"success"`
	PanicMessage string   `json:"panic_message,omitempty"`
	StackTrace   string   `json:"stack_trace,omitempty"`
	FirstScreen  []string `json:"first_screen,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

func main() {
	storiesDir := flag.String("stories", "stories", "directory containing Z-machine story files")
	outputDir := flag.String("output", "testdata", "directory to write results to")
	singleGame := flag.String("game", "", "test a single game file instead of all games")
	flag.Parse()

	if *singleGame != "" {
		runSingleGame(*singleGame)
		return
	}
	runAllGames(*storiesDir, *outputDir)
}

func runAllGames(storiesDir, outputDir string) {
	if _, err := os.Stat(storiesDir); os.IsNotExist(err) {
		fmt.Printf("stories directory not found: %s\n", storiesDir)
		fmt.Println("run 'go run ./cmd/fetchstory' first to download games.")
		os.Exit(1)
	}

	entries, err := os.ReadDir(storiesDir)
	if err != nil {
		fmt.Printf("failed to read stories directory: %v\n", err)
		os.Exit(1)
	}

	var games []string
	for _, entry := range entries {
		name := entry.Name()
		for v := '1'; v <= '8'; v++ {
			if strings.HasSuffix(name, ".z"+string(v)) {
				games = append(games, filepath.Join(storiesDir, name))
				break
			}
		}
	}

	if len(games) == 0 {
		fmt.Printf("no game files found in %s\n", storiesDir)
		os.Exit(1)
	}

	fmt.Printf("found %d games to test\n", len(games))

	var results []TestResult
	for i, gamePath := range games {
		result := runGameTest(gamePath)
		results = append(results, result)

		status := "PASS"
		if !result.Success {
			status = "FAIL"
		}
		fmt.Printf("[%d/%d] %s %s\n", i+1, len(games), status, result.Filename)
		if !result.Success && result.ErrorMessage != "" {
			fmt.Printf("        error: %s\n", result.ErrorMessage)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	resultsPath := filepath.Join(outputDir, "test_results.json")
	resultsJSON, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(resultsPath, resultsJSON, 0644); err != nil {
		fmt.Printf("failed to write results: %v\n", err)
	} else {
		fmt.Printf("\nresults written to %s\n", resultsPath)
	}

	passed, failed := 0, 0
	for _, r := range results {
		if r.Success {
			passed++
		} else {
			failed++
		}
	}
	fmt.Printf("\n=== SUMMARY ===\npassed: %d\nfailed: %d\ntotal: %d\n", passed, failed, len(results))

	screenshotsPath := filepath.Join(outputDir, "screenshots.txt")
	var screenshots strings.Builder
	for _, r := range results {
		fmt.Fprintf(&screenshots, "=== %s (v%d) ===\n", r.Filename, r.Version)
		if r.Success {
			for _, line := range r.FirstScreen {
				screenshots.WriteString(line + "\n")
			}
		} else {
			fmt.Fprintf(&screenshots, "ERROR: %s\n", r.ErrorMessage)
			if r.PanicMessage != "" {
				fmt.Fprintf(&screenshots, "PANIC: %s\n", r.PanicMessage)
			}
		}
		screenshots.WriteString("\n")
	}
	os.WriteFile(screenshotsPath, []byte(screenshots.String()), 0644) //nolint:errcheck
}

func runSingleGame(gamePath string) {
	if _, err := os.Stat(gamePath); os.IsNotExist(err) {
		fmt.Printf("game file not found: %s\n", gamePath)
		os.Exit(1)
	}

	result := runGameTest(gamePath)

	fmt.Printf("game: %s\n", result.Filename)
	fmt.Printf("version: %d\n", result.Version)
	fmt.Printf("success: %v\n", result.Success)
	if result.PanicMessage != "" {
		fmt.Printf("panic: %s\n", result.PanicMessage)
		fmt.Printf("stack: %s\n", result.StackTrace)
	}
	if result.ErrorMessage != "" {
		fmt.Printf("error: %s\n", result.ErrorMessage)
	}
	fmt.Printf("first screen:\n%s\n", strings.Join(result.FirstScreen, "\n"))
}

func runGameTest(gamePath string) (result TestResult) {
	result.Filename = filepath.Base(gamePath)

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.PanicMessage = fmt.Sprintf("%v", r)
			result.StackTrace = string(debug.Stack())
		}
	}()

	storyBytes, err := os.ReadFile(gamePath)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to read file: %v", err)
		return
	}
	if len(storyBytes) < 64 {
		result.ErrorMessage = "file too small to be a valid Z-machine file"
		return
	}
	result.Version = storyBytes[0]

	vm, err := zmachine.New(storyBytes, zmachine.Options{StatusCapable: true})
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to load: %v", err)
		return
	}

	var screenLines []string
	var current strings.Builder
	flush := func(events []zmachine.OutputEvent) {
		for _, e := range events {
			current.WriteString(e.Text)
		}
	}

	var resume *zmachine.ResumeValue
	for i := 0; i < 200_000; i++ {
		step, err := vm.Step(resume)
		if err != nil {
			result.ErrorMessage = fmt.Sprintf("step error: %v", err)
			return
		}
		flush(step.Output)

		switch step.Kind {
		case zmachine.KindDone:
			if step.Err != nil {
				result.ErrorMessage = step.Err.Error()
				return
			}
			result.Success = true
			screenLines = strings.Split(current.String(), "\n")
			result.FirstScreen = screenLines
			return

		case zmachine.KindNeedLine, zmachine.KindNeedChar:
			result.Success = true
			screenLines = strings.Split(current.String(), "\n")
			result.FirstScreen = screenLines
			return

		case zmachine.KindSave:
			resume = &zmachine.ResumeValue{SaveOK: false}

		case zmachine.KindRestore:
			resume = &zmachine.ResumeValue{}
		}
	}

	result.ErrorMessage = "exceeded step budget without reaching input or completion"
	return
}
