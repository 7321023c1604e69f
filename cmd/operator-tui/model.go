package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"droneops-gateway/internal/telemetry"
)

const maxLogLines = 200

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type model struct {
	client *client

	table  table.Model
	vp     viewport.Model
	input  textinput.Model
	typing bool

	drones map[string]telemetry.Telemetry
	logs   []string
	width  int
	height int
	gone   bool
}

func newModel(c *client) model {
	cols := []table.Column{
		{Title: "Drone", Width: 12},
		{Title: "Model", Width: 12},
		{Title: "Lat", Width: 10},
		{Title: "Lng", Width: 10},
		{Title: "Alt", Width: 7},
		{Title: "Batt", Width: 6},
		{Title: "RFT", Width: 6},
		{Title: "Flying", Width: 6},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(8))

	in := textinput.New()
	in.Placeholder = "<drone> <command> [args]   e.g. drone-01 takeoff"

	return model{
		client: c,
		table:  t,
		vp:     viewport.New(0, 0),
		input:  in,
		drones: make(map[string]telemetry.Telemetry),
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.vp.Height = max(3, msg.Height-m.table.Height()-6)
		m.refreshLog()

	case tea.KeyMsg:
		if m.typing {
			switch msg.Type {
			case tea.KeyEnter:
				m.submitInput()
				m.typing = false
				m.input.Blur()
			case tea.KeyEsc:
				m.typing = false
				m.input.Blur()
			default:
				var cmd tea.Cmd
				m.input, cmd = m.input.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case ":", "i":
			m.typing = true
			m.input.Focus()
			m.input.SetValue("")
		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case eventMsg:
		m.applyEvent(msg)

	case disconnectMsg:
		m.gone = true
		m.appendLog(errStyle.Render(fmt.Sprintf("gateway connection lost: %v", msg.err)))
	}
	return m, nil
}

// applyEvent folds one gateway event into the fleet view and the log.
func (m *model) applyEvent(msg eventMsg) {
	ts := msg.TimeStamp.Format(time.TimeOnly)

	switch msg.EventType {
	case "DroneTelemetryReceived", "DroneConnected":
		var t telemetry.Telemetry
		if err := json.Unmarshal(msg.Payload, &t); err != nil {
			return
		}
		m.drones[t.ID] = t
		if msg.EventType == "DroneConnected" {
			m.appendLog(fmt.Sprintf("%s %s %s", dimStyle.Render(ts),
				okStyle.Render("CONNECTED"), t.ID))
		}
		m.refreshTable()

	case "DroneDisconnected":
		var id string
		if err := json.Unmarshal(msg.Payload, &id); err != nil {
			return
		}
		delete(m.drones, id)
		m.appendLog(fmt.Sprintf("%s %s %s", dimStyle.Render(ts),
			errStyle.Render("DISCONNECTED"), id))
		m.refreshTable()

	case "CommandStatusChanged":
		var status struct {
			DroneID string `json:"droneId"`
			State   string `json:"state"`
		}
		if err := json.Unmarshal(msg.Payload, &status); err != nil {
			return
		}
		m.appendLog(fmt.Sprintf("%s %s %s mission %s", dimStyle.Render(ts),
			titleStyle.Render("STATUS"), status.DroneID, status.State))
	}
}

func (m *model) submitInput() {
	line := m.input.Value()
	droneID, cmd, err := parseInput(line)
	if err != nil {
		m.appendLog(errStyle.Render(fmt.Sprintf("invalid input %q: %v", line, err)))
		return
	}
	if err := m.client.sendCommand(droneID, cmd); err != nil {
		m.appendLog(errStyle.Render(fmt.Sprintf("send failed: %v", err)))
		return
	}
	m.appendLog(fmt.Sprintf("%s %s -> %s", dimStyle.Render(time.Now().Format(time.TimeOnly)),
		cmd.Name(), droneID))
}

func (m *model) appendLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.refreshLog()
}

func (m *model) refreshLog() {
	var content string
	for _, l := range m.logs {
		content += wordwrap.String(l, max(20, m.vp.Width)) + "\n"
	}
	m.vp.SetContent(content)
	m.vp.GotoBottom()
}

func (m *model) refreshTable() {
	ids := make([]string, 0, len(m.drones))
	for id := range m.drones {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		t := m.drones[id]
		rows = append(rows, table.Row{
			t.ID,
			t.Model,
			fmt.Sprintf("%.5f", t.Lat),
			fmt.Sprintf("%.5f", t.Lng),
			fmt.Sprintf("%.1f", t.Alt),
			fmt.Sprintf("%.0f%%", t.BatteryLevel),
			fmt.Sprintf("%ds", t.RemainingFlightTime),
			fmt.Sprintf("%v", t.IsFlying),
		})
	}
	m.table.SetRows(rows)
}

func (m model) View() string {
	status := okStyle.Render("connected")
	if m.gone {
		status = errStyle.Render("disconnected")
	}
	header := titleStyle.Render("DroneOps Gateway") + " " + status +
		dimStyle.Render(fmt.Sprintf("  %d drones", len(m.drones)))

	help := dimStyle.Render("i: command  q: quit")
	if m.typing {
		help = m.input.View()
	}

	return header + "\n\n" + m.table.View() + "\n" + m.vp.View() + "\n" + help
}
