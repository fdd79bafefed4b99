package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/laptophub/internal/domain"
)

// ChannelObserver adapts domain.CartObserver to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- domain.CartEvent
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- domain.CartEvent) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnCartEvent sends the event to the channel (non-blocking if full).
func (o *ChannelObserver) OnCartEvent(event domain.CartEvent) {
	select {
	case o.ch <- event:
	default: // Non-blocking if channel full
	}
}

// WaitForCartEventCmd blocks until the next cart event arrives.
// The model re-arms it after every CartEventMsg.
func WaitForCartEventCmd(ch <-chan domain.CartEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return CartEventMsg{Event: event}
	}
}
