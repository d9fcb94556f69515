package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lotas/stimmung/internal/api"
	"github.com/lotas/stimmung/internal/applog"
	"github.com/lotas/stimmung/internal/archive"
	"github.com/lotas/stimmung/internal/article"
	"github.com/lotas/stimmung/internal/dash"
	"github.com/lotas/stimmung/internal/storage"
	"github.com/lotas/stimmung/internal/stream"
	"github.com/lotas/stimmung/internal/types"
)

// --- Messages ---

type snapshotMsg struct {
	snap *api.Snapshot
}

type streamEventMsg struct {
	ev stream.Event
}

type streamStatusMsg struct {
	status types.Status
}

type streamClosedMsg struct{}

type tickMsg time.Time

type articleMsg struct {
	url   string
	title string
	text  string
	err   error
}

type archiveSavedMsg struct {
	path string
	err  error
}

// Mode distinguishes live streaming from offline archive replay.
type Mode int

const (
	ModeLive Mode = iota
	ModeReplay
)

// --- Model ---

type Model struct {
	state  *dash.State
	loader *api.Client
	client *stream.Client
	rec    *storage.Recorder // nil when not recording
	mode   Mode

	apiBase    string
	archiveDir string

	// UI state
	spin       spinner.Model
	loading    bool
	cursor     int
	offset     int
	width      int
	height     int
	showDetail bool

	// Article fetch for the detail pane
	articleURL     string
	articleTitle   string
	articleText    string
	articleErr     error
	articleLoading bool

	notice string // transient status-bar message (archive saved etc.)
}

// NewModel creates the live-mode dashboard model.
func NewModel(state *dash.State, loader *api.Client, client *stream.Client, rec *storage.Recorder, apiBase, archiveDir string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		state:      state,
		loader:     loader,
		client:     client,
		rec:        rec,
		mode:       ModeLive,
		apiBase:    apiBase,
		archiveDir: archiveDir,
		spin:       sp,
		loading:    true,
	}
}

// NewReplayModel creates a model seeded from an archived view; no connection
// is made.
func NewReplayModel(doc *archive.Document, archiveDir string) Model {
	state := dash.NewState()
	state.SeedMetrics(doc.Metrics, doc.TopEmotions)
	state.SeedTrend(doc.Trend)
	state.SeedFeed(doc.Posts)
	state.SetStatus(types.StatusDisconnected)
	return Model{
		state:      state,
		mode:       ModeReplay,
		apiBase:    doc.Backend,
		archiveDir: archiveDir,
	}
}

func (m Model) Init() tea.Cmd {
	if m.mode == ModeReplay {
		return nil
	}
	m.client.Open()
	return tea.Batch(
		loadSnapshot(m.loader),
		listenEvents(m.client),
		listenStatus(m.client),
		m.spin.Tick,
		tick(),
	)
}

// --- Commands ---

func loadSnapshot(loader *api.Client) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: loader.LoadSnapshot(context.Background())}
	}
}

func listenEvents(c *stream.Client) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-c.Events()
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{ev: ev}
	}
}

func listenStatus(c *stream.Client) tea.Cmd {
	return func() tea.Msg {
		status, ok := <-c.Status()
		if !ok {
			return streamClosedMsg{}
		}
		return streamStatusMsg{status: status}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchArticle(url string) tea.Cmd {
	return func() tea.Msg {
		title, text, err := article.FetchReadable(url)
		return articleMsg{url: url, title: title, text: text, err: err}
	}
}

func saveArchive(dir string, doc *archive.Document) tea.Cmd {
	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return archiveSavedMsg{err: err}
		}
		path := filepath.Join(dir, doc.SavedAt.Format("2006-01-02T15-04-05")+".stz")
		if err := archive.WriteFile(path, doc); err != nil {
			return archiveSavedMsg{err: err}
		}
		return archiveSavedMsg{path: path}
	}
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		m.loading = false
		m.state.SeedMetrics(msg.snap.Metrics, msg.snap.TopEmotions)
		m.state.SeedTrend(msg.snap.Trend)
		m.state.SeedFeed(msg.snap.Posts)
		m.clampCursor()
		return m, nil

	case streamEventMsg:
		if m.state.Apply(msg.ev) {
			m.record(msg.ev)
			m.clampCursor()
		}
		return m, listenEvents(m.client)

	case streamStatusMsg:
		m.state.SetStatus(msg.status)
		return m, listenStatus(m.client)

	case streamClosedMsg:
		// Session teardown in progress; stop pumping.
		return m, nil

	case tickMsg:
		// Redraw so relative ages stay current.
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case articleMsg:
		m.articleLoading = false
		m.articleTitle = msg.title
		m.articleText = msg.text
		m.articleErr = msg.err
		return m, nil

	case archiveSavedMsg:
		if msg.err != nil {
			applog.Error("archive.save", msg.err)
			m.notice = fmt.Sprintf("archive failed: %v", msg.err)
		} else {
			applog.Info("archive.saved", "path", msg.path)
			m.notice = "saved " + msg.path
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showDetail {
		switch msg.String() {
		case "esc", "enter":
			m.showDetail = false
			m.resetArticle()
		case "o":
			return m.openArticle()
		case "q", "ctrl+c":
			return m, m.quit()
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.scrollToCursor()
	case "down", "j":
		if m.cursor < m.state.FeedLen()-1 {
			m.cursor++
		}
		m.scrollToCursor()
	case "g":
		m.cursor = 0
		m.offset = 0
	case "G":
		m.cursor = m.state.FeedLen() - 1
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.scrollToCursor()
	case "enter":
		if m.state.FeedLen() > 0 {
			m.showDetail = true
		}
	case "a":
		m.notice = ""
		return m, saveArchive(m.archiveDir, m.document())
	}
	return m, nil
}

// quit tears the session down: the stream stops synchronously, so no retry
// fires and no late event mutates the state after this point.
func (m Model) quit() tea.Cmd {
	if m.client != nil {
		m.client.Close()
	}
	if m.rec != nil {
		if err := m.rec.End(); err != nil {
			applog.Error("record.end", err)
		}
	}
	return tea.Quit
}

func (m Model) openArticle() (tea.Model, tea.Cmd) {
	feed := m.state.Feed()
	if m.cursor >= len(feed) {
		return m, nil
	}
	url, ok := article.FirstURL(feed[m.cursor].Content)
	if !ok {
		m.articleErr = fmt.Errorf("post has no link")
		return m, nil
	}
	m.resetArticle()
	m.articleURL = url
	m.articleLoading = true
	return m, fetchArticle(url)
}

func (m *Model) resetArticle() {
	m.articleURL = ""
	m.articleTitle = ""
	m.articleText = ""
	m.articleErr = nil
	m.articleLoading = false
}

func (m *Model) record(ev stream.Event) {
	if m.rec == nil {
		return
	}
	switch ev.Type {
	case "new_post":
		feed := m.state.Feed()
		if len(feed) == 0 {
			return
		}
		if err := m.rec.RecordPost(feed[0]); err != nil {
			applog.Error("record.post", err)
		}
	case "metrics_update":
		if err := m.rec.RecordMetrics(m.state.Metrics()); err != nil {
			applog.Error("record.metrics", err)
		}
	}
}

// document freezes the current view for archiving or export.
func (m Model) document() *archive.Document {
	return &archive.Document{
		SavedAt:     time.Now(),
		Backend:     m.apiBase,
		Metrics:     m.state.Metrics(),
		TopEmotions: m.state.TopEmotions(),
		Trend:       m.state.Trend(),
		Posts:       m.state.Feed(),
	}
}

// feedHeight is the number of feed rows that fit in the current layout.
func (m Model) feedHeight() int {
	h := m.height - chromeHeight
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) clampCursor() {
	if n := m.state.FeedLen(); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scrollToCursor()
}

func (m *Model) scrollToCursor() {
	h := m.feedHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}
