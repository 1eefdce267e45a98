package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/models"
)

// clientStep is the current step in the client wizard
type clientStep int

const (
	stepName clientStep = iota
	stepRate
	stepCurrency
	stepNotes
)

var clientStepLabels = []string{"Name", "Hourly rate", "Currency", "Notes"}

// ClientWizardModel is the interactive add-client wizard.
type ClientWizardModel struct {
	clients *db.ClientStore

	step   clientStep
	inputs []textinput.Model
	width  int
	height int

	validationErr string
	err           error
	created       *models.Client
	cancelled     bool
}

// NewClientWizardModel creates the wizard model
func NewClientWizardModel(clients *db.ClientStore) ClientWizardModel {
	inputs := make([]textinput.Model, 4)
	placeholders := []string{"Baker St Bakery", "65.00", "EUR", "keys under the mat"}

	for i := range inputs {
		input := textinput.New()
		input.Placeholder = placeholders[i]
		input.CharLimit = 120
		input.Width = 40
		inputs[i] = input
	}
	inputs[stepCurrency].SetValue("EUR")
	inputs[stepName].Focus()

	return ClientWizardModel{
		clients: clients,
		inputs:  inputs,
	}
}

// Init initializes the wizard
func (m ClientWizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m ClientWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			if errMsg := m.validateStep(); errMsg != "" {
				m.validationErr = errMsg
				return m, nil
			}
			m.validationErr = ""

			if m.step == stepNotes {
				return m.save()
			}

			m.inputs[m.step].Blur()
			m.step++
			m.inputs[m.step].Focus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.step], cmd = m.inputs[m.step].Update(msg)
	return m, cmd
}

func (m ClientWizardModel) validateStep() string {
	value := strings.TrimSpace(m.inputs[m.step].Value())
	switch m.step {
	case stepName:
		if value == "" {
			return "Name is required"
		}
	case stepRate:
		if value == "" {
			return ""
		}
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return "Rate must be a number, e.g. 65 or 65.50"
		}
	}
	return ""
}

func (m ClientWizardModel) save() (tea.Model, tea.Cmd) {
	rate := 0.0
	if v := strings.TrimSpace(m.inputs[stepRate].Value()); v != "" {
		rate, _ = strconv.ParseFloat(v, 64)
	}

	client, err := m.clients.CreateClient(db.CreateClientRequest{
		Name:       strings.TrimSpace(m.inputs[stepName].Value()),
		HourlyRate: rate,
		Currency:   strings.TrimSpace(m.inputs[stepCurrency].Value()),
		Notes:      strings.TrimSpace(m.inputs[stepNotes].Value()),
	})
	if err != nil {
		m.err = err
	} else {
		m.created = client
	}
	return m, tea.Quit
}

// View renders the wizard
func (m ClientWizardModel) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true)
	b.WriteString(titleStyle.Render("Add client"))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	activeLabelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentMain)).Bold(true)
	doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText))

	for i := range m.inputs {
		step := clientStep(i)
		switch {
		case step < m.step:
			b.WriteString(doneStyle.Render(fmt.Sprintf("✓ %s: %s", clientStepLabels[i], m.inputs[i].Value())))
			b.WriteString("\n")
		case step == m.step:
			b.WriteString(activeLabelStyle.Render(clientStepLabels[i]))
			b.WriteString("\n")
			b.WriteString(m.inputs[i].View())
			b.WriteString("\n")
		default:
			b.WriteString(labelStyle.Render(clientStepLabels[i]))
			b.WriteString("\n")
		}
	}

	if m.validationErr != "" {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
		b.WriteString("\n")
		b.WriteString(errStyle.Render(m.validationErr))
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true)
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter next · esc cancel"))

	return b.String()
}
