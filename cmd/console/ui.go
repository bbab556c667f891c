package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/npc-memory/internal/services"
	"github.com/jwebster45206/npc-memory/pkg/memory"
)

const (
	PlayerName      = "You"
	PlaceHolderText = "Say something..."

	// Each exchange moves the game clock forward so memories age between
	// messages.
	clockStep int64 = 2000
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	mem      *memory.System
	dialogue services.DialogueService

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	status       string

	// NPC selection state
	showNPCModal bool
	npcIDs       []string
	selectedNPC  int

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	current    *memory.Relationship
	transcript []exchange
	clock      int64 // game milliseconds
}

type exchange struct {
	speaker string
	text    string
}

type dialogueResponseMsg struct {
	response *services.DialogueResponse
	err      error
}

type snapshotSavedMsg struct {
	err error
}

type transcriptCopiedMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	npcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(mem *memory.System, dialogue services.DialogueService) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	// Start the clock a minute past the newest memory so everything in
	// the snapshot has a positive age.
	var latest int64
	for _, id := range mem.NPCIDs() {
		for _, ev := range mem.Relationship(id).Memories() {
			if ev.Timestamp > latest {
				latest = ev.Timestamp
			}
		}
	}

	return ConsoleUI{
		mem:          mem,
		dialogue:     dialogue,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		ready:        false,
		showNPCModal: true,
		npcIDs:       mem.NPCIDs(),
		selectedNPC:  0,
		clock:        latest + 60000,
	}
}

// selectNPC opens a conversation with the chosen NPC. The greeting counts
// as an interaction, so the relationship's own bookkeeping advances.
func (m *ConsoleUI) selectNPC(npcID string) {
	m.current = m.mem.Relationship(npcID)
	m.transcript = nil
	m.clock += clockStep

	greeting := m.current.Greeting(m.clock)
	m.transcript = append(m.transcript, exchange{speaker: m.current.DisplayName(), text: greeting})

	if topics := m.current.ConversationTopics(m.clock); len(topics) > 0 {
		var sb strings.Builder
		sb.WriteString("They might bring up: ")
		for i, topic := range topics {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(topic.Text)
		}
		m.transcript = append(m.transcript, exchange{speaker: "", text: sb.String()})
	}
}

// writeChatContent builds the chat content from the transcript for the
// current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("NPC MEMORY CONSOLE") + "\n\n")
	content.WriteString("Type your messages below to talk to " + m.current.DisplayName() + ".\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, ex := range m.transcript {
		switch ex.speaker {
		case "":
			content.WriteString(promptStyle.Render(wordwrap.String(ex.text, chatWidth-6)) + "\n\n")
		case PlayerName:
			content.WriteString(userStyle.Render(PlayerName+": ") + wordwrap.String(ex.text, chatWidth-6) + "\n\n")
		default:
			wrapped := wordwrap.String(ex.text, chatWidth-len(ex.speaker)-2)
			content.WriteString(speakerStyle.Render(ex.speaker+": ") + npcStyle.Render(wrapped) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func writeMetadata(rel *memory.Relationship, clock int64) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("RELATIONSHIP") + "\n\n")

	content.WriteString(rel.DisplayName() + "\n")
	content.WriteString(fmt.Sprintf("%s\n\n", rel.Level()))

	content.WriteString(fmt.Sprintf("Friendship: %.1f\n", rel.Friendship()))
	content.WriteString(fmt.Sprintf("Trust:      %.1f\n", rel.Trust()))
	content.WriteString(fmt.Sprintf("Respect:    %.1f\n", rel.Respect()))
	content.WriteString(fmt.Sprintf("Fear:       %.1f\n\n", rel.Fear()))

	content.WriteString(fmt.Sprintf("Interactions: %d\n", rel.InteractionsCount()))
	content.WriteString(fmt.Sprintf("Memories: %d\n\n", rel.MemoryCount()))

	if top := rel.ImportantMemories(clock, 5); len(top) > 0 {
		content.WriteString("Remembers:\n")
		for _, ev := range top {
			content.WriteString("• " + describeMemory(ev) + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• Ctrl+S: Save\n")
	content.WriteString("• Ctrl+Y: Copy chat\n")
	content.WriteString("• /npc: Switch NPC\n")
	content.WriteString("• /help: Help\n")

	return content.String()
}

// describeMemory renders an event as a short phrase for the side panel.
func describeMemory(ev memory.Event) string {
	switch ev.Kind {
	case memory.EventFirstMeeting:
		return "meeting you for the first time"
	case memory.EventConversation:
		return "a conversation about " + ev.Details.String("topic", "this and that")
	case memory.EventQuestCompleted:
		return "you finishing " + memory.Humanize(ev.Details.String("quest_name", "a quest"))
	case memory.EventQuestFailed:
		return "you failing " + memory.Humanize(ev.Details.String("quest_name", "a quest"))
	case memory.EventQuestAccepted:
		return "you taking on " + memory.Humanize(ev.Details.String("quest_name", "a quest"))
	case memory.EventItemGifted:
		return "your gift of " + ev.Details.String("item_name", "something")
	case memory.EventObservedCombat:
		if ev.Details.Bool("player_won") {
			return "watching you beat a " + ev.Details.String("enemy_type", "foe")
		}
		return "watching you fight a " + ev.Details.String("enemy_type", "foe")
	case memory.EventHelpedInDanger:
		return "you helping someone in danger"
	case memory.EventBetrayal:
		return "being betrayed by you"
	case memory.EventVisitedLocation:
		if name := ev.Details.String("item_name", ""); name != "" {
			return "seeing your " + name
		}
		return "seeing you at " + memory.Humanize(ev.LocationID)
	case memory.EventSharedSecret:
		return "a secret you shared"
	default:
		return memory.Humanize(string(ev.Kind))
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle NPC modal first
	if m.showNPCModal {
		return m.updateNPCModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlS:
			m.status = "Saving..."
			return m, m.saveSnapshot()
		case tea.KeyCtrlY:
			return m, m.copyTranscript()
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.status = ""

			m.transcript = append(m.transcript, exchange{speaker: PlayerName, text: input})
			m.writeChatContent()

			return m, tea.Batch(m.sendMessage(input), progressTick())
		}

	case dialogueResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.transcript = append(m.transcript, exchange{speaker: "", text: errorStyle.Render("Error: " + msg.err.Error())})
		} else {
			m.transcript = append(m.transcript, exchange{speaker: m.current.DisplayName(), text: msg.response.Text})
			m.recordExchange(msg.response)
			if msg.response.IsFarewell {
				m.transcript = append(m.transcript, exchange{speaker: "", text: "The conversation winds down. /npc to talk to someone else."})
			}
		}
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.current, m.clock))
		return m, nil

	case snapshotSavedMsg:
		if msg.err != nil {
			m.status = "Save failed: " + msg.err.Error()
		} else {
			m.status = "Snapshot saved."
		}

	case transcriptCopiedMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Transcript copied to clipboard."
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	// Update components for non-mouse events
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) layout() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)

	if m.current != nil {
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.current, m.clock))
	}
}

// recordExchange turns a finished exchange into a conversation memory.
// Warm replies weigh a little more.
func (m *ConsoleUI) recordExchange(resp *services.DialogueResponse) {
	m.clock += clockStep

	importance := 1.0
	if resp.FriendshipDelta > 0 {
		importance += 0.5 * float64(resp.FriendshipDelta)
	}

	details := memory.Details{"topic": "small_talk"}
	err := m.mem.RecordEvent(memory.EventConversation, details, "console", m.clock,
		memory.WithTarget(m.current.NPCID()),
		memory.WithImportance(importance))
	if err != nil {
		m.err = err
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /npc - Talk to a different NPC
• /memories - Everything this NPC remembers
• Ctrl+S - Save the snapshot
• Ctrl+Y - Copy the transcript
• Ctrl+C - Quit

Conversations become memories: what you say here
changes how they greet you next time.
`
		m.transcript = append(m.transcript, exchange{speaker: "", text: helpText})
		m.writeChatContent()

	case "/npc":
		m.textarea.Reset()
		m.showNPCModal = true
		m.npcIDs = m.mem.NPCIDs()
		m.selectedNPC = 0
		return m, nil

	case "/memories":
		var sb strings.Builder
		memories := m.current.Memories()
		if len(memories) == 0 {
			sb.WriteString("They remember nothing about you.")
		} else {
			sb.WriteString(fmt.Sprintf("%s remembers:\n", m.current.DisplayName()))
			for _, ev := range memories {
				sb.WriteString(fmt.Sprintf("• %s (weight %.2f)\n", describeMemory(ev), ev.EffectiveImportance(m.clock, m.current.HalfLife())))
			}
		}
		m.transcript = append(m.transcript, exchange{speaker: "", text: sb.String()})
		m.writeChatContent()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) sendMessage(message string) tea.Cmd {
	persona := services.Persona{Name: m.current.DisplayName()}
	env := services.Environment{LocationID: "console"}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resp, err := m.dialogue.GenerateResponse(ctx, persona, env, message)
		return dialogueResponseMsg{resp, err}
	}
}

func (m ConsoleUI) saveSnapshot() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return snapshotSavedMsg{err: m.mem.Save(ctx)}
	}
}

func (m ConsoleUI) copyTranscript() tea.Cmd {
	var sb strings.Builder
	for _, ex := range m.transcript {
		if ex.speaker == "" {
			continue
		}
		sb.WriteString(ex.speaker + ": " + ex.text + "\n")
	}
	text := sb.String()
	return func() tea.Msg {
		return transcriptCopiedMsg{err: clipboard.WriteAll(text)}
	}
}

func (m ConsoleUI) updateNPCModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedNPC > 0 {
				m.selectedNPC--
			}
		case tea.KeyDown:
			if m.selectedNPC < len(m.npcIDs)-1 {
				m.selectedNPC++
			}
		case tea.KeyEnter:
			if len(m.npcIDs) > 0 {
				m.selectNPC(m.npcIDs[m.selectedNPC])
				m.showNPCModal = false
				if m.width > 0 && m.height > 0 {
					m.layout()
					m.ready = true
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showNPCModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Console?"))
	content.WriteString("\n\n")
	content.WriteString("Unsaved conversations are lost. Save with Ctrl+S first.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(56).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderNPCModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Who do you want to talk to?"))
	content.WriteString("\n\n")

	for i, id := range m.npcIDs {
		rel := m.mem.Relationship(id)
		label := fmt.Sprintf("%s (%s, %d memories)", rel.DisplayName(), rel.Level(), rel.MemoryCount())
		if i == m.selectedNPC {
			content.WriteString(modalSelectedItemStyle.Render("▶ " + label))
		} else {
			content.WriteString(modalItemStyle.Render("  " + label))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))

	modal := modalStyle.Width(60).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showNPCModal {
		return m.renderNPCModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	statusLine := ""
	if m.status != "" {
		statusLine = statusStyle.Render(m.status)
	}

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			statusLine,
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
