package components

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/laptophub/internal/tui/styles"
)

// PromptKind selects what the input modal accepts
type PromptKind int

const (
	PromptFilter   PromptKind = iota // Free text, applied as it is typed
	PromptQuantity                   // Digits only, applied on enter
)

const (
	promptWidth       = 36
	maxQuantityDigits = 4
	maxFilterLength   = 40
)

// InputModal is the single-line prompt used for the cart filter and for
// typing a line quantity
type InputModal struct {
	kind    PromptKind
	visible bool
	title   string
	hint    string
	input   textinput.Model
}

// NewInputModal creates a hidden input modal
func NewInputModal() InputModal {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Width = promptWidth - 6
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle
	return InputModal{input: ti}
}

// ShowFilter opens the prompt for filtering cart lines by name
func (m *InputModal) ShowFilter(query string) {
	m.open(PromptFilter, "Filter cart", "product name", "enter keeps the filter · esc clears it", maxFilterLength)
	m.input.SetValue(query)
	m.input.CursorEnd()
}

// ShowQuantity opens the prompt for a line's quantity
func (m *InputModal) ShowQuantity(itemName string, current int) {
	title := fmt.Sprintf("Quantity for %s", styles.Truncate(itemName, promptWidth-14))
	m.open(PromptQuantity, title, "0 removes the item", "enter saves · esc cancels", maxQuantityDigits)
	m.input.SetValue(strconv.Itoa(current))
	m.input.CursorEnd()
}

func (m *InputModal) open(kind PromptKind, title, placeholder, hint string, limit int) {
	m.kind = kind
	m.visible = true
	m.title = title
	m.hint = hint
	m.input.Placeholder = placeholder
	m.input.CharLimit = limit
	m.input.Focus()
}

// Hide dismisses the modal
func (m *InputModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Kind returns what the open prompt is for
func (m InputModal) Kind() PromptKind {
	return m.kind
}

// Title returns the modal title
func (m InputModal) Title() string {
	return m.title
}

// Value returns the current input value
func (m InputModal) Value() string {
	return m.input.Value()
}

// Quantity parses the value of a quantity prompt
func (m InputModal) Quantity() (int, error) {
	v := strings.TrimSpace(m.input.Value())
	if v == "" {
		return 0, fmt.Errorf("no quantity entered")
	}
	return strconv.Atoi(v)
}

// Update handles input events, returns (modal, cmd, submitted).
// Esc hides the modal; a quantity prompt ignores anything but digits.
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			return m, nil, true
		case tea.KeyEsc:
			m.Hide()
			return m, nil, false
		case tea.KeyRunes:
			if m.kind == PromptQuantity && !allDigits(keyMsg.Runes) {
				return m, nil, false
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

func allDigits(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// View renders the input modal
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	row := lipgloss.NewStyle().Width(promptWidth).Background(styles.SlateDark)

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		row.Foreground(styles.White).Bold(true).Render(m.title),
		row.Render(""),
		row.Render(m.input.View()),
		row.Render(""),
		row.Inherit(styles.DimStyle).Render(m.hint),
	))
}
