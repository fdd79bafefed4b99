package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/laptophub/internal/domain"
	"github.com/mmcdole/laptophub/internal/service"
	"github.com/mmcdole/laptophub/internal/tui/styles"
)

// CartList is a scrollable, filterable list of cart lines
type CartList struct {
	lines   []service.CartLine
	visible []service.FilterResult
	query   string

	cursor int
	offset int

	width   int
	height  int
	focused bool
}

// NewCartList creates an empty cart list
func NewCartList() *CartList {
	return &CartList{}
}

// SetLines replaces the lines, keeping the cursor on the same item if it
// is still present
func (c *CartList) SetLines(lines []service.CartLine) {
	var selectedID int64
	if line, ok := c.Selected(); ok {
		selectedID = line.ID
	}

	c.lines = lines
	c.applyFilter()

	for i, r := range c.visible {
		if r.Line.ID == selectedID {
			c.cursor = i
			break
		}
	}
	c.clampCursor()
}

// Lines returns every line, ignoring the filter
func (c *CartList) Lines() []service.CartLine {
	return c.lines
}

// SetQuantity applies a quantity change to one line without a reload
func (c *CartList) SetQuantity(itemID int64, quantity int, pending bool) bool {
	for i := range c.lines {
		if c.lines[i].ID == itemID {
			c.lines[i].Quantity = quantity
			c.lines[i].Pending = pending
			c.applyFilter()
			return true
		}
	}
	return false
}

// SetFilter narrows the list to lines matching query
func (c *CartList) SetFilter(query string) {
	c.query = query
	c.applyFilter()
	c.cursor = 0
	c.offset = 0
}

// FilterQuery returns the active filter
func (c *CartList) FilterQuery() string {
	return c.query
}

// Selected returns the line under the cursor
func (c *CartList) Selected() (service.CartLine, bool) {
	if c.cursor < 0 || c.cursor >= len(c.visible) {
		return service.CartLine{}, false
	}
	return c.visible[c.cursor].Line, true
}

// Len returns the number of visible lines
func (c *CartList) Len() int {
	return len(c.visible)
}

// Cursor returns the cursor position among visible lines
func (c *CartList) Cursor() int {
	return c.cursor
}

func (c *CartList) MoveUp() {
	c.cursor--
	c.clampCursor()
}

func (c *CartList) MoveDown() {
	c.cursor++
	c.clampCursor()
}

func (c *CartList) Home() {
	c.cursor = 0
	c.clampCursor()
}

func (c *CartList) End() {
	c.cursor = len(c.visible) - 1
	c.clampCursor()
}

func (c *CartList) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.clampCursor()
}

func (c *CartList) SetFocused(focused bool) {
	c.focused = focused
}

func (c *CartList) View() string {
	style := styles.InactiveBorder
	if c.focused {
		style = styles.ActiveBorder
	}
	frameW, frameH := style.GetFrameSize()
	innerW := c.width - frameW

	var rows []string
	title := styles.TitleStyle.Render("Cart")
	if c.query != "" {
		title += " " + styles.FilterPromptStyle.Render("/"+c.query)
	}
	rows = append(rows, title, "")

	if len(c.visible) == 0 {
		msg := "Your cart is empty"
		if c.query != "" {
			msg = "No lines match the filter"
		}
		rows = append(rows, styles.DimStyle.Render(msg))
	}

	end := c.offset + c.maxVisible()
	if end > len(c.visible) {
		end = len(c.visible)
	}
	for i := c.offset; i < end; i++ {
		rows = append(rows, c.renderRow(c.visible[i], i == c.cursor && c.focused, innerW))
	}

	return style.
		Width(innerW).
		Height(c.height - frameH).
		Render(strings.Join(rows, "\n"))
}

func (c *CartList) renderRow(r service.FilterResult, selected bool, width int) string {
	line := r.Line

	qty := fmt.Sprintf("×%d", line.Quantity)
	price := domain.FormattedPrice(line.Subtotal())
	marker := " "
	var markerColor *lipgloss.Color
	if line.Pending {
		marker = "…"
		markerColor = &styles.Amber
	}

	// name, qty, price, marker plus separating spaces
	nameW := width - lipgloss.Width(qty) - lipgloss.Width(price) - 6
	name := styles.Truncate(line.Name, nameW)

	parts := highlightParts(name, r.MatchedIndexes)
	if pad := nameW - lipgloss.Width(name); pad > 0 {
		parts = append(parts, styles.RowPart{Text: strings.Repeat(" ", pad)})
	}
	parts = append(parts,
		styles.RowPart{Text: " " + qty + " "},
		styles.RowPart{Text: price},
		styles.RowPart{Text: " " + marker, Foreground: markerColor},
	)

	return styles.RenderListRow(parts, selected, width)
}

// highlightParts splits name into runs so matched characters stand out
func highlightParts(name string, matched []int) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: name}}
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	var parts []styles.RowPart
	var run strings.Builder
	runHit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		part := styles.RowPart{Text: run.String()}
		if runHit {
			part.Foreground = &styles.HubBlue
		}
		parts = append(parts, part)
		run.Reset()
	}

	for i, r := range name {
		if hit[i] != runHit {
			flush()
			runHit = hit[i]
		}
		run.WriteRune(r)
	}
	flush()
	return parts
}

func (c *CartList) applyFilter() {
	c.visible = service.FilterLines(c.lines, c.query)
	c.clampCursor()
}

func (c *CartList) maxVisible() int {
	// title, blank line and the border
	n := c.height - 4
	if n < 1 {
		n = 1
	}
	return n
}

func (c *CartList) clampCursor() {
	if c.cursor >= len(c.visible) {
		c.cursor = len(c.visible) - 1
	}
	if c.cursor < 0 {
		c.cursor = 0
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if limit := c.maxVisible(); c.cursor >= c.offset+limit {
		c.offset = c.cursor - limit + 1
	}
}
