package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeInto(m InputModal, s string) InputModal {
	for _, r := range s {
		m, _, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestInputModal_QuantityAcceptsDigitsOnly(t *testing.T) {
	m := NewInputModal()
	m.ShowQuantity("ThinkPad X1", 2)
	require.True(t, m.IsVisible())
	assert.Equal(t, PromptQuantity, m.Kind())
	assert.Equal(t, "2", m.Value())

	m = typeInto(m, "x5-")
	assert.Equal(t, "25", m.Value())

	m, _, submitted := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, submitted)
	qty, err := m.Quantity()
	require.NoError(t, err)
	assert.Equal(t, 25, qty)
}

func TestInputModal_EmptyQuantity(t *testing.T) {
	m := NewInputModal()
	m.ShowQuantity("ThinkPad X1", 0)
	m, _, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	_, err := m.Quantity()
	assert.Error(t, err)
}

func TestInputModal_FilterKeepsText(t *testing.T) {
	m := NewInputModal()
	m.ShowFilter("mac")
	assert.Equal(t, PromptFilter, m.Kind())

	m = typeInto(m, " air")
	assert.Equal(t, "mac air", m.Value())
	assert.Contains(t, m.View(), "Filter cart")

	m, _, submitted := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, submitted)
	assert.False(t, m.IsVisible())
	assert.Empty(t, m.View())
}
