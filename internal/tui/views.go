package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/laptophub/internal/domain"
	"github.com/mmcdole/laptophub/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmClear:
		return m.renderConfirm("Clear cart?", "Every line will be removed.")
	case StateConfirmLogout:
		return m.renderConfirm("Log Out?", "This will clear your credentials\nand the cached cart.")
	}

	contentHeight := m.Height - ChromeHeight
	var content string

	if m.ProductID != 0 {
		productWidth := m.Width * ProductPanePercent / 100
		cartWidth := m.Width - productWidth
		m.CartList.SetSize(cartWidth, contentHeight)
		m.CartList.SetFocused(m.Focus == PaneCart)
		content = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderProductPane(productWidth, contentHeight),
			m.CartList.View(),
		)
	} else {
		m.CartList.SetSize(m.Width, contentHeight)
		m.CartList.SetFocused(true)
		content = m.CartList.View()
	}

	if m.InputModal.IsVisible() {
		content = lipgloss.Place(m.Width, contentHeight,
			lipgloss.Center, lipgloss.Center,
			m.InputModal.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		content,
		m.renderFooter(),
	)
}

// renderHeader renders the title bar with the cart badge
func (m Model) renderHeader() string {
	left := styles.TitleStyle.Render("LaptopHub")

	user := styles.DimStyle.Render("not logged in")
	if m.SessionSvc != nil && m.SessionSvc.LoggedIn() {
		user = styles.SubtitleStyle.Render(m.SessionSvc.Email())
	}

	badge := styles.DimBadgeStyle.Render("Cart 0")
	if n := m.BadgeCount(); n > 0 {
		badge = styles.BadgeStyle.Render(fmt.Sprintf("Cart %d", n))
	}
	if m.Loading {
		badge = styles.SpinnerStyle.Render(m.spinner()) + " " + badge
	}

	right := user + "  " + badge
	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return " " + left + strings.Repeat(" ", gap) + right + " "
}

// renderProductPane renders the product detail and the add-to-cart control
func (m Model) renderProductPane(width, height int) string {
	style := styles.InactiveBorder
	if m.Focus == PaneProduct {
		style = styles.ActiveBorder
	}
	frameW, frameH := style.GetFrameSize()
	innerW := width - frameW

	var rows []string
	if m.Product == nil {
		rows = append(rows, styles.SpinnerStyle.Render(m.spinner())+" Loading product...")
	} else {
		p := m.Product
		rows = append(rows,
			styles.TitleStyle.Render(styles.Truncate(p.Name, innerW)),
			styles.SubtitleStyle.Render(p.Brand),
			"",
			styles.AccentStyle.Render(domain.FormattedPrice(p.Price)),
			m.renderStock(p),
			"",
		)
		if p.Description != "" {
			rows = append(rows,
				lipgloss.NewStyle().Width(innerW).Render(p.Description),
				"",
			)
		}
		if len(p.Images) > 0 {
			rows = append(rows, styles.DimStyle.Render(styles.Truncate(p.Images[0].URL, innerW)), "")
		}
		rows = append(rows,
			fmt.Sprintf("Quantity  - %d +", m.Quantity),
			"",
			m.renderAddButton(),
		)
	}

	return style.
		Width(innerW).
		Height(height - frameH).
		Render(strings.Join(rows, "\n"))
}

func (m Model) renderStock(p *domain.Product) string {
	if !p.InStock() {
		return styles.ErrorStyle.Render("Out of stock")
	}
	return styles.SuccessStyle.Render(fmt.Sprintf("%d in stock", p.Stock))
}

func (m Model) renderAddButton() string {
	switch {
	case m.Guard == nil:
		return ""
	case m.Guard.Busy():
		return styles.DisabledButtonStyle.Render(m.spinner() + " Adding...")
	case m.Guard.InCart():
		return styles.DisabledButtonStyle.Render("✓ In your cart")
	case !m.Product.InStock():
		return styles.DisabledButtonStyle.Render("Out of stock")
	default:
		return styles.ButtonStyle.Render("Add to cart")
	}
}

// renderFooter renders the status line or key hints, with the cart total
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render("✗ " + m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.SuccessStyle.Render("✓ " + m.StatusMsg)
	case m.Focus == PaneProduct && m.Product != nil:
		left = styles.DimStyle.Render("+/- quantity  enter add  tab cart  ? help  q quit")
	default:
		left = styles.DimStyle.Render("+/- quantity  e set  x remove  / filter  ? help  q quit")
	}

	right := "Total " + styles.TitleStyle.Render(domain.FormattedPrice(m.DisplayTotal()))
	if len(m.CartSvc.PendingUpdates()) > 0 {
		right = styles.PendingStyle.Render("saving… ") + right
	}

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return " " + left + strings.Repeat(" ", gap) + right + " "
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
PRODUCT                         CART
  +/-        Quantity             j/k     Up/down
  Enter/a    Add to cart          +/-     Change quantity
  Tab        Switch pane          e       Set quantity
                                  x       Remove line
                                  C       Clear cart
                                  /       Filter
                                  Esc     Clear filter

OTHER
  r          Refresh              L       Logout
  ?          This help            q       Quit

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderConfirm renders a yes/no confirmation modal
func (m Model) renderConfirm(title, body string) string {
	modal := lipgloss.JoinVertical(lipgloss.Center,
		styles.TitleStyle.Render(title),
		"",
		body,
		"",
		"[Y] Yes      [N] No",
	)

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

func (m Model) spinner() string {
	return styles.SpinnerFrames[m.SpinnerFrame%len(styles.SpinnerFrames)]
}
