package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	youStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0a84ff"))

	botStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#30d158"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

const maxTranscript = 200

type speaker int

const (
	speakerYou speaker = iota
	speakerBot
	speakerInfo
	speakerError
)

type line struct {
	who  speaker
	text string
}

// Model defines the application state
type Model struct {
	client     *ApiClient
	textInput  textinput.Model
	spinner    spinner.Model
	transcript []line
	loading    bool
	height     int
}

// Messages produced by commands
type (
	replyMsg struct {
		reply *ChatReply
	}
	infoMsg struct {
		text string
	}
	errorMsg struct {
		err string
	}
)

func initialModel(client *ApiClient) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Ask about the menu or place an order..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	return Model{
		client:    client,
		textInput: ti,
		spinner:   s,
		transcript: []line{{
			who:  speakerInfo,
			text: "Commands: /menu, /status <order id>, /token <jwt>, /reset, /quit",
		}},
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textInput.Value())
			m.textInput.SetValue("")
			if input == "" {
				return m, nil
			}
			return m.submit(input)
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil
	case replyMsg:
		m.loading = false
		text := msg.reply.Reply
		if msg.reply.RequireLogin {
			text += "\n(log in with /token <jwt> to continue)"
		}
		m = m.appendLine(speakerBot, text)
		return m, nil
	case infoMsg:
		m.loading = false
		m = m.appendLine(speakerInfo, msg.text)
		return m, nil
	case errorMsg:
		m.loading = false
		m = m.appendLine(speakerError, msg.err)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// submit handles one line typed by the user
func (m Model) submit(input string) (tea.Model, tea.Cmd) {
	if !strings.HasPrefix(input, "/") {
		m = m.appendLine(speakerYou, input)
		m.loading = true
		return m, sendMessage(m.client, input)
	}

	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/reset":
		m.loading = true
		return m, resetConversation(m.client)
	case "/menu":
		m.loading = true
		return m, fetchMenu(m.client)
	case "/token":
		if len(fields) != 2 {
			m = m.appendLine(speakerError, "usage: /token <jwt>")
			return m, nil
		}
		m.client.Token = fields[1]
		m = m.appendLine(speakerInfo, "Token set; your next message is sent as a logged-in customer.")
		return m, nil
	case "/status":
		id, err := parseOrderID(fields)
		if err != nil {
			m = m.appendLine(speakerError, err.Error())
			return m, nil
		}
		m.loading = true
		return m, fetchOrderStatus(m.client, id)
	default:
		m = m.appendLine(speakerError, "unknown command "+fields[0])
		return m, nil
	}
}

func (m Model) appendLine(who speaker, text string) Model {
	m.transcript = append(m.transcript, line{who: who, text: text})
	if len(m.transcript) > maxTranscript {
		m.transcript = m.transcript[len(m.transcript)-maxTranscript:]
	}
	return m
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Cafe Assistant") + "\n\n")

	lines := m.transcript
	if m.height > 8 && len(lines) > m.height-8 {
		lines = lines[len(lines)-(m.height-8):]
	}
	for _, l := range lines {
		b.WriteString(renderLine(l) + "\n")
	}

	b.WriteString("\n")
	if m.loading {
		b.WriteString(m.spinner.View() + " thinking...\n")
	}
	b.WriteString(m.textInput.View())
	b.WriteString("\n\nenter to send, esc to quit")
	return docStyle.Render(b.String())
}

func renderLine(l line) string {
	switch l.who {
	case speakerYou:
		return youStyle.Render("you: ") + l.text
	case speakerBot:
		return botStyle.Render("cafe: ") + l.text
	case speakerError:
		return errorStyle.Render(l.text)
	default:
		return infoStyle.Render(l.text)
	}
}

func parseOrderID(fields []string) (uint, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("usage: /status <order id>")
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "#"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid order id %q", fields[1])
	}
	return uint(id), nil
}

func sendMessage(client *ApiClient, message string) tea.Cmd {
	return func() tea.Msg {
		reply, err := client.Chat(message)
		if err != nil {
			return errorMsg{err: err.Error()}
		}
		return replyMsg{reply: reply}
	}
}

func resetConversation(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		if err := client.Reset(); err != nil {
			return errorMsg{err: err.Error()}
		}
		return infoMsg{text: "Conversation reset."}
	}
}

func fetchMenu(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		menu, err := client.GetMenu()
		if err != nil {
			return errorMsg{err: err.Error()}
		}
		return infoMsg{text: menuView(menu)}
	}
}

func fetchOrderStatus(client *ApiClient, id uint) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetOrderStatus(id)
		if err != nil {
			return errorMsg{err: err.Error()}
		}
		return infoMsg{text: fmt.Sprintf("Order #%d: %s", id, status)}
	}
}

// menuView groups entries under their category in the order received
func menuView(menu []MenuEntry) string {
	var b strings.Builder
	current := ""
	for i, entry := range menu {
		category := "Others"
		if entry.CategoryName != nil && *entry.CategoryName != "" {
			category = *entry.CategoryName
		}
		if i == 0 || category != current {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(category + ":")
			current = category
		}
		fmt.Fprintf(&b, "\n  %s  %s", entry.Name, entry.Price)
	}
	if b.Len() == 0 {
		return "The menu is empty."
	}
	return b.String()
}

func main() {
	baseURL := flag.String("api", "", "Cafe assistant API URL (default $CAFE_API_URL or "+defaultBaseURL+")")
	flag.Parse()

	client := NewApiClient(*baseURL)
	if _, err := client.CheckHealth(); err != nil {
		fmt.Printf("Warning: API server at %s is not available: %v\n", client.BaseURL, err)
	}

	p := tea.NewProgram(initialModel(client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
