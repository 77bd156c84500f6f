// Command fetchstory mirrors the IF-Archive's zcode index and downloads
// every story file it links to, for use as fixtures by cmd/gametest.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const indexURL = "https://www.ifarchive.org/indexes/if-archive/games/zcode/"
const outputDir = "stories"

var zcodeSuffix = regexp.MustCompile(`\.z[12345678]$`)

func main() {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	c := &http.Client{Timeout: 30 * time.Second}
	res, err := c.Get(indexURL)
	if err != nil {
		fmt.Printf("failed to fetch index: %v\n", err)
		os.Exit(1)
	}
	defer res.Body.Close() //nolint:errcheck

	if res.StatusCode != http.StatusOK {
		fmt.Printf("bad status code: %d\n", res.StatusCode)
		os.Exit(1)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		fmt.Printf("failed to parse HTML: %v\n", err)
		os.Exit(1)
	}

	type game struct{ name, url string }
	var games []game

	doc.Find("dl dt").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Find("a").Attr("href")
		if !exists || !zcodeSuffix.MatchString(href) {
			return
		}
		games = append(games, game{
			name: filepath.Base(href),
			url:  "https://www.ifarchive.org" + href,
		})
	})

	fmt.Printf("found %d games to download\n", len(games))

	downloaded, skipped, failed := 0, 0, 0
	for i, g := range games {
		destPath := filepath.Join(outputDir, g.name)

		if _, err := os.Stat(destPath); err == nil {
			fmt.Printf("[%d/%d] skipping %s (already exists)\n", i+1, len(games), g.name)
			skipped++
			continue
		}

		fmt.Printf("[%d/%d] downloading %s... ", i+1, len(games), g.name)

		resp, err := c.Get(g.url)
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failed++
			continue
		}
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("FAILED: status %d\n", resp.StatusCode)
			resp.Body.Close() //nolint:errcheck
			failed++
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close() //nolint:errcheck
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failed++
			continue
		}

		if err := os.WriteFile(destPath, data, 0644); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failed++
			continue
		}

		fmt.Printf("OK (%d bytes)\n", len(data))
		downloaded++
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Printf("\ndone. downloaded: %d, skipped: %d, failed: %d\n", downloaded, skipped, failed)

	var manifest strings.Builder
	for _, g := range games {
		manifest.WriteString(g.name + "\n")
	}
	os.WriteFile(filepath.Join(outputDir, "manifest.txt"), []byte(manifest.String()), 0644) //nolint:errcheck
}
