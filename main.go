package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lotas/stimmung/internal/api"
	"github.com/lotas/stimmung/internal/applog"
	"github.com/lotas/stimmung/internal/archive"
	"github.com/lotas/stimmung/internal/config"
	"github.com/lotas/stimmung/internal/dash"
	"github.com/lotas/stimmung/internal/export"
	"github.com/lotas/stimmung/internal/storage"
	"github.com/lotas/stimmung/internal/stream"
	"github.com/lotas/stimmung/internal/tui"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "export":
			runExport(os.Args[2:])
			return
		case "sessions":
			runSessions(os.Args[2:])
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	fs := flag.NewFlagSet("stimmung", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/stimmung/config.toml)")
	apiBase := fs.String("api", "", "Backend REST base URL (overrides config)")
	wsURL := fs.String("ws", "", "Sentiment stream URL (overrides config)")
	record := fs.Bool("record", false, "Record this session to the local database")
	replay := fs.String("replay", "", "Open a saved .stz archive instead of connecting")
	fs.Parse(os.Args[1:])

	cfg := loadConfig(*configPath, *apiBase, *wsURL)

	if err := applog.Init(cfg.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer applog.Close()

	archiveDir := filepath.Join(config.DefaultDataDir(), "archives")

	var model tui.Model
	if *replay != "" {
		doc, err := archive.ReadFile(*replay)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading archive: %v\n", err)
			os.Exit(1)
		}
		model = tui.NewReplayModel(doc, archiveDir)
	} else {
		var rec *storage.Recorder
		if *record {
			db, err := storage.OpenDB(cfg.DBPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
				os.Exit(1)
			}
			defer db.Close()
			rec, err = storage.BeginSession(db, cfg.APIBase)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error starting session: %v\n", err)
				os.Exit(1)
			}
		}
		applog.Info("start", "api", cfg.APIBase, "ws", cfg.WSURL, "record", *record)
		if rec != nil {
			applog.Info("recording", "session", rec.SessionID())
		}
		model = tui.NewModel(dash.NewState(), api.New(cfg.APIBase), stream.New(cfg.WSURL), rec, cfg.APIBase, archiveDir)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Print(`stimmung — live sentiment dashboard

Usage:
  stimmung                                Start the dashboard (default)
    --config <file>      Config file path (default: ~/.config/stimmung/config.toml)
    --api <url>          Backend REST base URL (overrides config)
    --ws <url>           Sentiment stream URL (overrides config)
    --record             Record posts and metrics to the local database
    --replay <file>      Open a saved .stz archive instead of connecting

  stimmung export                         Fetch a snapshot and export it
    --config <file>      Config file path
    --api <url>          Backend REST base URL (overrides config)
    --json               Export as JSON instead of markdown
    --archive            Export as .stz archive instead of markdown
    --out <file>         Output file path (default: stdout; required for --archive)

  stimmung sessions                       List recorded sessions
  stimmung sessions <id>                  Show the posts of one session
    --config <file>      Config file path

Config file (~/.config/stimmung/config.toml):
  api_base  Backend REST base URL (default: http://localhost:8000/api)
  ws_url    Sentiment stream URL (default: derived from api_base)
  db_path   Recorder database path (default: ~/.local/share/stimmung/stimmung.db)
  log_dir   Log directory (default: ~/.local/share/stimmung)
`)
}

// loadConfig reads the config file and applies flag overrides. A --ws flag
// wins over config; absent both, the stream URL is derived from the API base.
func loadConfig(path, apiBase, wsURL string) *config.Config {
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if apiBase != "" {
		cfg.APIBase = apiBase
		if wsURL == "" {
			cfg.WSURL = config.DeriveWSURL(apiBase)
		}
	}
	if wsURL != "" {
		cfg.WSURL = wsURL
	}
	return cfg
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file path")
	apiBase := fs.String("api", "", "Backend REST base URL (overrides config)")
	jsonFlag := fs.Bool("json", false, "Export as JSON instead of markdown")
	archiveFlag := fs.Bool("archive", false, "Export as .stz archive instead of markdown")
	outFile := fs.String("out", "", "Output file path (default: stdout)")
	fs.Parse(args)

	cfg := loadConfig(*configPath, *apiBase, "")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap := api.New(cfg.APIBase).LoadSnapshot(ctx)
	doc := &archive.Document{
		SavedAt:     time.Now(),
		Backend:     cfg.APIBase,
		Metrics:     snap.Metrics,
		TopEmotions: snap.TopEmotions,
		Trend:       snap.Trend,
		Posts:       snap.Posts,
	}

	if *archiveFlag {
		if *outFile == "" {
			fmt.Fprintln(os.Stderr, "Error: --archive requires --out <file>")
			os.Exit(1)
		}
		if err := archive.WriteFile(*outFile, doc); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing archive: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Archive written to %s\n", *outFile)
		return
	}

	var output string
	if *jsonFlag {
		var err error
		output, err = export.JSON(doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating JSON: %v\n", err)
			os.Exit(1)
		}
	} else {
		output = export.Markdown(doc)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(output), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Print(output)
	}
}

func runSessions(args []string) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file path")
	fs.Parse(args)

	cfg := loadConfig(*configPath, "", "")

	db, err := storage.OpenDB(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if fs.NArg() > 0 {
		id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid session id: %s\n", fs.Arg(0))
			os.Exit(1)
		}
		posts, err := storage.SessionPosts(db, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading session posts: %v\n", err)
			os.Exit(1)
		}
		if len(posts) == 0 {
			fmt.Printf("No posts recorded in session %d.\n", id)
			return
		}
		for _, p := range posts {
			fmt.Printf("%s  %-8s %-10s @%-15s %s\n",
				p.CreatedAt.Format("2006-01-02 15:04"), p.Sentiment, p.Source, p.Author, p.Content)
		}
		return
	}

	sessions, err := storage.ListSessions(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing sessions: %v\n", err)
		os.Exit(1)
	}

	if len(sessions) == 0 {
		fmt.Println("No recorded sessions. Run with --record to start one.")
		return
	}

	fmt.Printf("%-5s %6s  %-30s  %-16s  %s\n", "ID", "POSTS", "BACKEND", "STARTED", "ENDED")
	for _, s := range sessions {
		ended := "-"
		if s.EndedAt != nil {
			ended = s.EndedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%5d %6d  %-30s  %-16s  %s\n",
			s.ID,
			s.PostCount,
			s.Backend,
			s.StartedAt.Format("2006-01-02 15:04"),
			ended,
		)
	}
}
