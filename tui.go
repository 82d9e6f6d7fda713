package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	markdown "github.com/vlanse/go-term-markdown"

	"github.com/kir-gadjello/ikoi/chat"
	"github.com/kir-gadjello/ikoi/kv"
	"github.com/kir-gadjello/ikoi/record"
)

var TEXTINPUT_PLACEHOLDER = "Type a message and press Enter to send..."

type chatTuiState struct {
	store  *chat.Store
	ledger *chat.Ledger
	client *AssistantClient
	cfg    *Config
	kvs    kv.Store
	theme  Theme

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	spin     bool // assistant reply in flight

	width          int
	renderMarkdown bool
	status         string

	// Search overlay
	inSearch    bool
	searchInput textinput.Model
	results     []chat.Result
	cursor      *chat.Cursor
	focusIndex  int // message highlighted by search navigation, -1 none

	// Recording overlay
	session *record.Session
	recErr  string

	pendingAttachments []chat.Attachment
}

type replyMsg struct {
	msg chat.Message
}

type recTickMsg time.Time

type transcribedMsg struct {
	err error
}

type statusExpiredMsg struct{}

func initialTuiState(cfg *Config, kvs kv.Store, store *chat.Store, ledger *chat.Ledger, client *AssistantClient) chatTuiState {
	ta := textarea.New()
	ta.Placeholder = TEXTINPUT_PLACEHOLDER
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 2000
	ta.MaxHeight = 8
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	si := textinput.New()
	si.Placeholder = "Search messages... (Enter to navigate)"
	si.Prompt = "🔍 "

	m := chatTuiState{
		store:          store,
		ledger:         ledger,
		client:         client,
		cfg:            cfg,
		kvs:            kvs,
		theme:          loadTheme(kvs, cfg.Theme),
		textarea:       ta,
		viewport:       vp,
		spinner:        spinner.New(),
		searchInput:    si,
		width:          80,
		renderMarkdown: true,
		focusIndex:     -1,
	}
	m.refreshViewport(true)
	return m
}

func (m chatTuiState) Init() tea.Cmd {
	return tea.Batch(textarea.Blink)
}

// refreshViewport re-renders the log into the viewport; gotoBottom keeps the
// view pinned to the newest message.
func (m *chatTuiState) refreshViewport(gotoBottom bool) {
	content, offsets := renderLog(m.store.Snapshot(), m.ledger, m.theme, m.width, m.renderMarkdown, m.focusIndex)
	m.viewport.SetContent(content)
	if gotoBottom {
		m.viewport.GotoBottom()
	} else if m.focusIndex >= 0 && m.focusIndex < len(offsets) {
		m.viewport.SetYOffset(offsets[m.focusIndex])
	}
}

func (m chatTuiState) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	if m.inSearch {
		return m.updateSearch(msg)
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.Type {

		case tea.KeyCtrlC:
			if m.session != nil {
				m.session.Discard()
			}
			return m, tea.Quit

		case tea.KeyCtrlF:
			m.inSearch = true
			m.searchInput.SetValue("")
			m.searchInput.Focus()
			m.results = nil
			m.cursor = chat.NewCursor(nil)
			return m, textinput.Blink

		case tea.KeyCtrlK:
			if err := chat.Reset(m.store, m.ledger); err != nil {
				m.status = "Failed to clear conversation: " + err.Error()
			} else {
				m.status = "Conversation cleared"
			}
			m.focusIndex = -1
			m.refreshViewport(true)
			return m, m.expireStatus()

		case tea.KeyCtrlT:
			m.theme = nextTheme(m.theme.Name)
			saveTheme(m.kvs, m.theme.Name)
			m.status = "Theme: " + m.theme.Name
			m.refreshViewport(true)
			return m, m.expireStatus()

		case tea.KeyCtrlE:
			if text, ok := lastAssistantText(m.store.Snapshot()); ok {
				clipboard.WriteAll(text)
				m.status = "Copied last reply to clipboard"
				return m, m.expireStatus()
			}
			return m, nil

		case tea.KeyCtrlR:
			return m.toggleRecording()

		case tea.KeyCtrlP:
			if m.session != nil {
				switch m.session.State() {
				case record.StateRecording:
					m.session.Pause()
				case record.StatePaused:
					m.session.Resume()
				}
			}
			return m, nil

		case tea.KeyCtrlD:
			if m.session != nil && !m.session.State().Terminal() {
				m.session.Discard()
				m.session = nil
				m.recErr = ""
				m.status = "Recording discarded"
				return m, m.expireStatus()
			}
			return m, nil

		case tea.KeyEnter:
			if msg.Alt {
				m.textarea.SetValue(m.textarea.Value() + "\n")
				return m, nil
			}
			if m.session != nil && m.session.State() == record.StateReady {
				return m.sendVoice()
			}
			return m.submitInput(tiCmd, vpCmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width - 2
		m.textarea.SetWidth(msg.Width - 2)
		m.searchInput.Width = msg.Width - 8
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = msg.Height - 3 - m.textarea.Height()
		m.refreshViewport(true)

	case replyMsg:
		m.spin = false
		if _, err := m.store.Append(msg.msg); err != nil {
			m.status = "Failed to save reply: " + err.Error()
		}
		m.refreshViewport(true)
		return m, tea.Batch(tiCmd, vpCmd)

	case recTickMsg:
		if m.session == nil || m.session.State().Terminal() {
			return m, tea.Batch(tiCmd, vpCmd)
		}
		m.session.Tick()
		return m, tea.Batch(tiCmd, vpCmd, recTick())

	case transcribedMsg:
		if msg.err != nil {
			m.recErr = "Failed to transcribe audio (ctrl+r retries, ctrl+d discards)"
		} else {
			m.recErr = ""
		}
		return m, tea.Batch(tiCmd, vpCmd)

	case statusExpiredMsg:
		m.status = ""
		return m, tea.Batch(tiCmd, vpCmd)
	}

	if m.spin || (m.session != nil && m.session.State() == record.StateTranscribing) {
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, spCmd)
	}

	return m, tea.Batch(tiCmd, vpCmd)
}

// updateSearch handles input while the search overlay is open. The result
// set is recomputed from a fresh snapshot on every keystroke.
func (m chatTuiState) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC, tea.KeyCtrlF:
			m.inSearch = false
			m.searchInput.SetValue("")
			m.results = nil
			m.cursor = chat.NewCursor(nil)
			m.focusIndex = -1
			m.refreshViewport(true)
			return m, nil

		case tea.KeyEnter, tea.KeyDown:
			if r, ok := m.cursor.Next(); ok {
				m.focusIndex = r.MessageIndex
				m.refreshViewport(false)
			}
			return m, nil

		case tea.KeyUp:
			if r, ok := m.cursor.Prev(); ok {
				m.focusIndex = r.MessageIndex
				m.refreshViewport(false)
			}
			return m, nil
		}
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	if m.searchInput.Value() != before {
		m.results = chat.Search(m.store.Snapshot(), m.searchInput.Value())
		m.cursor = chat.NewCursor(m.results)
		m.focusIndex = -1
		m.refreshViewport(len(m.results) == 0)
	}
	return m, cmd
}

// submitInput routes the textarea content: slash commands or a plain send.
func (m chatTuiState) submitInput(tiCmd, vpCmd tea.Cmd) (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}

	if strings.HasPrefix(input, "/") {
		m.textarea.Reset()
		return m.runCommand(input)
	}

	if m.spin {
		m.status = "Still waiting for the assistant..."
		return m, m.expireStatus()
	}

	userMsg := chat.NewMessage(chat.AuthorUser, input)
	userMsg.Attachments = m.pendingAttachments
	m.pendingAttachments = nil

	return m.send(userMsg, tiCmd, vpCmd)
}

// send appends the user message and fires the remote inference call. The
// assistant reply (or error message) is appended when it arrives.
func (m chatTuiState) send(userMsg chat.Message, cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	if _, err := m.store.Append(userMsg); err != nil {
		m.status = "Failed to save message: " + err.Error()
		return m, m.expireStatus()
	}

	m.spin = true
	m.spinner.Spinner = spinner.Pulse
	m.spinner.Spinner.FPS = time.Second / 10
	m.spinner.Style = m.theme.Accent

	m.textarea.Reset()
	m.textarea.Placeholder = TEXTINPUT_PLACEHOLDER
	m.textarea.Focus()
	m.refreshViewport(true)

	client := m.client
	text := userMsg.Text
	ask := func() tea.Msg {
		return replyMsg{msg: client.Ask(context.Background(), text)}
	}
	return m, tea.Batch(append(cmds, m.spinner.Tick, ask)...)
}

func (m chatTuiState) runCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	switch fields[0] {

	case "/edit":
		if len(fields) < 3 {
			m.status = "Usage: /edit <message#> <new text>"
			return m, m.expireStatus()
		}
		index, err := strconv.Atoi(fields[1])
		if err != nil {
			m.status = "Usage: /edit <message#> <new text>"
			return m, m.expireStatus()
		}
		newText := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(input, fields[0]), " "+fields[1]))
		if err := m.store.ApplyEdit(index, newText); err != nil {
			m.status = "Can't edit that message"
			return m, m.expireStatus()
		}
		m.refreshViewport(true)
		return m, nil

	case "/react":
		if len(fields) != 3 {
			m.status = "Usage: /react <message#> <emoji>"
			return m, m.expireStatus()
		}
		index, err := strconv.Atoi(fields[1])
		if err != nil || index < 0 || index >= m.store.Len() {
			m.status = "No such message"
			return m, m.expireStatus()
		}
		if err := m.ledger.Add(index, fields[2]); err != nil {
			m.status = "Failed to save reaction: " + err.Error()
			return m, m.expireStatus()
		}
		m.refreshViewport(true)
		return m, nil

	case "/attach":
		if len(fields) != 2 {
			m.status = "Usage: /attach <path>"
			return m, m.expireStatus()
		}
		att, err := stageAttachment(m.cfg.filesDir(), fields[1])
		if err != nil {
			m.status = err.Error()
			return m, m.expireStatus()
		}
		m.pendingAttachments = append(m.pendingAttachments, att)
		m.status = fmt.Sprintf("Attached %s (%s), sent with your next message", att.Name, formatFileSize(att.SizeBytes))
		return m, m.expireStatus()

	case "/theme":
		if len(fields) == 2 {
			if t, ok := themes[fields[1]]; ok {
				m.theme = t
				saveTheme(m.kvs, t.Name)
				m.refreshViewport(true)
				return m, nil
			}
			m.status = "Unknown theme; have: " + strings.Join(themeOrder, ", ")
			return m, m.expireStatus()
		}
		m.status = "Usage: /theme <" + strings.Join(themeOrder, "|") + ">"
		return m, m.expireStatus()

	case "/clear":
		chat.Reset(m.store, m.ledger)
		m.refreshViewport(true)
		return m, nil

	case "/help":
		m.status = "Commands: /edit /react /attach /theme /clear · keys: ctrl+f search, ctrl+r record, ctrl+k clear, ctrl+t theme, ctrl+e copy"
		return m, m.expireStatus()
	}

	m.status = "Unknown command " + fields[0]
	return m, m.expireStatus()
}

// toggleRecording drives the session forward from the record key: start a
// fresh capture, stop an active one (which kicks off transcription), or
// retry a failed transcription.
func (m chatTuiState) toggleRecording() (tea.Model, tea.Cmd) {
	if m.session == nil || m.session.State().Terminal() {
		rec := record.NewExecRecorder(m.cfg.Recorder.Command, m.cfg.Recorder.Args, m.cfg.capturesDir())
		m.session = record.NewSession(rec, m.transcriber())
		if err := m.session.Start(context.Background()); err != nil {
			m.session = nil
			m.status = "Microphone access denied or unavailable"
			return m, m.expireStatus()
		}
		m.recErr = ""
		return m, recTick()
	}

	session := m.session
	switch session.State() {
	case record.StateRecording, record.StatePaused:
		if err := session.Stop(context.Background()); err != nil {
			m.session = nil
			m.status = "Recording failed"
			return m, m.expireStatus()
		}
		return m, tea.Batch(m.spinner.Tick, transcribe(session))
	case record.StateStopped:
		// Retry after a failed transcription.
		m.recErr = ""
		return m, tea.Batch(m.spinner.Tick, transcribe(session))
	}
	return m, nil
}

func (m chatTuiState) transcriber() record.Transcriber {
	if m.cfg.Transcriber.Endpoint != "" {
		return &record.HTTPTranscriber{Endpoint: m.cfg.Transcriber.Endpoint, APIKey: m.cfg.Transcriber.APIKey}
	}
	return &record.StaticTranscriber{}
}

// sendVoice packages the finished session into a voice message and sends it
// through the same path as typed text.
func (m chatTuiState) sendVoice() (tea.Model, tea.Cmd) {
	if m.spin {
		m.status = "Still waiting for the assistant..."
		return m, m.expireStatus()
	}

	v, err := m.session.Send()
	if err != nil {
		return m, nil
	}
	m.session = nil

	msg := chat.NewMessage(chat.AuthorUser, v.Transcript)
	msg.Voice = &chat.Voice{AudioRef: v.AudioRef, DurationSeconds: v.DurationSeconds}
	return m.send(msg)
}

func transcribe(session *record.Session) tea.Cmd {
	return func() tea.Msg {
		return transcribedMsg{err: session.Transcribe(context.Background())}
	}
}

func recTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return recTickMsg(t)
	})
}

func (m chatTuiState) expireStatus() tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusExpiredMsg{}
	})
}

func (m chatTuiState) View() string {
	var b strings.Builder

	if m.inSearch {
		b.WriteString(m.searchBarView())
		b.WriteString("\n")
	}

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.session != nil && !m.session.State().Terminal() {
		b.WriteString(m.recordingView())
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.theme.Dim.Render(m.status))
		b.WriteString("\n")
	} else if m.spin {
		b.WriteString(m.spinner.View() + m.theme.Dim.Render(" thinking..."))
		b.WriteString("\n")
	}

	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	return b.String()
}

func (m chatTuiState) searchBarView() string {
	bar := m.searchInput.View()
	pos, total := m.cursor.Pos()
	if total > 0 {
		bar += m.theme.Dim.Render(fmt.Sprintf("  %d / %d", pos, total))
		if r, ok := m.cursor.Current(); ok {
			bar += "\n" + highlightExcerpt(r, m.theme)
		}
	} else if strings.TrimSpace(m.searchInput.Value()) != "" {
		bar += m.theme.Dim.Render("  no matches")
	}
	return bar
}

func (m chatTuiState) recordingView() string {
	state := m.session.State()
	elapsed := formatDuration(m.session.Elapsed())

	switch state {
	case record.StateRecording:
		return m.theme.Error.Render("● Recording ") + elapsed + m.theme.Dim.Render("  ctrl+r stop · ctrl+p pause · ctrl+d discard")
	case record.StatePaused:
		return m.theme.Accent.Render("‖ Paused ") + elapsed + m.theme.Dim.Render("  ctrl+p resume · ctrl+r stop · ctrl+d discard")
	case record.StateTranscribing:
		return m.spinner.View() + m.theme.Dim.Render(" Transcribing audio...")
	case record.StateStopped:
		if m.recErr != "" {
			return m.theme.Error.Render(m.recErr)
		}
		return m.theme.Dim.Render("Processing recording...")
	case record.StateReady:
		return m.theme.Accent.Render("🎤 "+m.session.Transcript()) + m.theme.Dim.Render("  Enter send · ctrl+d discard")
	}
	return ""
}

// highlightExcerpt renders a search excerpt with the matched range styled.
func highlightExcerpt(r chat.Result, theme Theme) string {
	runes := []rune(r.Excerpt)
	if r.MatchOffset < 0 || r.MatchOffset+r.MatchLen > len(runes) {
		return r.Excerpt
	}
	return string(runes[:r.MatchOffset]) +
		theme.Highlight.Render(string(runes[r.MatchOffset:r.MatchOffset+r.MatchLen])) +
		string(runes[r.MatchOffset+r.MatchLen:])
}

var markdownCache = struct {
	sync.Mutex
	cache map[string]string
}{cache: make(map[string]string)}

func renderMarkdownCached(content string, width int) string {
	key := fmt.Sprintf("%s__%d", content, width)
	markdownCache.Lock()
	defer markdownCache.Unlock()
	if cached, ok := markdownCache.cache[key]; ok {
		return cached
	}
	rendered := strings.TrimRight(string(markdown.Render(content, width, 0)), " \t\r\n")
	markdownCache.cache[key] = rendered
	return rendered
}

// renderLog renders the whole message log and returns the starting line of
// each message so search navigation can scroll to a hit.
func renderLog(msgs []chat.Message, ledger *chat.Ledger, theme Theme, width int, renderMd bool, focusIndex int) (string, []int) {
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	offsets := make([]int, len(msgs))
	line := 0

	for i, msg := range msgs {
		offsets[i] = line

		header := renderHeader(i, msg, theme)
		if i == focusIndex {
			header = theme.Highlight.Render(fmt.Sprintf("#%d %s", i, headerLabel(msg))) + " " + theme.Dim.Render(headerMeta(msg))
		}

		content := strings.TrimRight(msg.Text, " \t\r\n")
		if msg.Author == chat.AuthorAssistant && !msg.IsError && renderMd {
			content = renderMarkdownCached(content, width)
		} else if msg.IsError {
			content = theme.Error.Render(content)
		}

		b.WriteString(header)
		b.WriteString("\n")
		line++

		if content != "" {
			b.WriteString(content)
			b.WriteString("\n")
			line += strings.Count(content, "\n") + 1
		}

		for _, att := range msg.Attachments {
			attLine := theme.Dim.Render(fmt.Sprintf("📎 %s (%s)", att.Name, formatFileSize(att.SizeBytes)))
			b.WriteString(attLine)
			b.WriteString("\n")
			line++
		}

		if rs := ledger.For(i); len(rs) > 0 {
			var parts []string
			for _, r := range rs {
				parts = append(parts, fmt.Sprintf("%s %d", r.Emoji, r.Count))
			}
			b.WriteString(theme.Dim.Render(strings.Join(parts, "  ")))
			b.WriteString("\n")
			line++
		}

		b.WriteString("\n")
		line++
	}

	if len(msgs) == 0 {
		return "<conversation is empty>", offsets
	}
	return b.String(), offsets
}

func renderHeader(i int, msg chat.Message, theme Theme) string {
	style := theme.Assistant
	if msg.Author == chat.AuthorUser {
		style = theme.User
	}
	if msg.IsError {
		style = theme.Error
	}
	return style.Render(fmt.Sprintf("#%d %s", i, headerLabel(msg))) + " " + theme.Dim.Render(headerMeta(msg))
}

func headerLabel(msg chat.Message) string {
	if msg.Author == chat.AuthorUser {
		return "YOU"
	}
	return "IKOI"
}

func headerMeta(msg chat.Message) string {
	meta := msg.CreatedAt.Format("15:04")
	if msg.Voice != nil {
		meta += " · 🎤 " + formatDuration(msg.Voice.DurationSeconds)
	}
	if msg.Edited {
		meta += " · edited"
	}
	return meta
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func lastAssistantText(msgs []chat.Message) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Author == chat.AuthorAssistant && !msgs[i].IsError {
			return msgs[i].Text, true
		}
	}
	return "", false
}
