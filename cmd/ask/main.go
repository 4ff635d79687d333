// Command ask sends a question to the API and prints every model's answer,
// or opens an interactive terminal UI when no question is given.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/josinaldojr/multi-llm-rag/internal/client"
	"github.com/josinaldojr/multi-llm-rag/internal/rag"
	"github.com/josinaldojr/multi-llm-rag/internal/tui"
)

func main() {
	if err := run(); err != nil {
		slog.Error("ask failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	apiURL := flag.String("url", envOrDefault("API_URL", "http://localhost:8080"), "API base URL")
	question := flag.String("q", "", "question to ask; opens the interactive UI when empty")
	timeout := flag.Duration("timeout", 2*time.Minute, "timeout for one question")
	asJSON := flag.Bool("json", false, "print the raw JSON response")
	flag.Parse()

	c := client.New(*apiURL, *timeout)

	if *question == "" {
		_, err := tea.NewProgram(tui.New(c, *timeout), tea.WithAltScreen()).Run()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := c.Ask(ctx, *question)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(resp)
	return nil
}

var (
	nameStyle = lipgloss.NewStyle().Bold(true)
	errStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printResponse(resp *rag.AskResponse) {
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d context chunks found", resp.ContextsFound)))
	for _, r := range resp.Responses {
		title := nameStyle.Render(r.Model)
		if r.Status == rag.StatusError {
			title = errStyle.Render(r.Model + " (error)")
		}
		fmt.Printf("\n%s\n%s\n", title, r.Answer)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
