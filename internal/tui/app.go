package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/mmcdole/laptophub/internal/domain"
	"github.com/mmcdole/laptophub/internal/service"
	"github.com/mmcdole/laptophub/internal/tui/components"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFiltering
	StateEditQuantity
	StateHelp
	StateConfirmClear
	StateConfirmLogout
)

// Pane identifies the focused pane
type Pane int

const (
	PaneProduct Pane = iota
	PaneCart
)

const (
	statusTimeout = 4 * time.Second
	tickInterval  = 100 * time.Millisecond

	// Vertical layout: header and footer lines
	ChromeHeight = 2

	ProductPanePercent = 45
)

// Options wires the model to the services it drives
type Options struct {
	Cart      *service.CartService
	Session   *service.SessionService
	Products  domain.ProductRepository
	Identity  domain.Identity
	ProductID int64 // Product pane target; 0 shows the cart only
	Logger    *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Focus Pane
	Ready bool

	// Services
	CartSvc    *service.CartService
	SessionSvc *service.SessionService
	products   domain.ProductRepository
	identity   domain.Identity
	logger     *slog.Logger

	// Cart bus subscription
	events chan domain.CartEvent
	sub    *service.Subscription

	// Product pane
	ProductID int64
	Product   *domain.Product
	Guard     *service.AddToCartGuard
	Quantity  int

	// Cart pane
	Cart       *domain.Cart
	CartList   *components.CartList
	InputModal components.InputModal

	// Quantity changes: one request per item at a time; later presses
	// are coalesced into queued and sent when the outstanding one returns
	inFlight map[int64]bool
	queued   map[int64]int

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	LoginURL     string
	Loading      bool
	SpinnerFrame int
}

// NewModel creates a new application model and subscribes it to the cart bus
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	events := make(chan domain.CartEvent, 64)
	sub := opts.Cart.Bus().SubscribeObserver(NewChannelObserver(events))

	focus := PaneCart
	if opts.ProductID != 0 {
		focus = PaneProduct
	}

	return Model{
		State:      StateBrowsing,
		Focus:      focus,
		CartSvc:    opts.Cart,
		SessionSvc: opts.Session,
		products:   opts.Products,
		identity:   opts.Identity,
		logger:     logger,
		events:     events,
		sub:        sub,
		ProductID:  opts.ProductID,
		Quantity:   1,
		CartList:   components.NewCartList(),
		InputModal: components.NewInputModal(),
		inFlight:   make(map[int64]bool),
		queued:     make(map[int64]int),
		Loading:    true,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		LoadCartCmd(m.CartSvc),
		WaitForCartEventCmd(m.events),
		TickCmd(tickInterval),
	}
	if m.ProductID != 0 && m.products != nil {
		cmds = append(cmds, LoadProductCmd(m.products, m.ProductID))
	}
	return tea.Batch(cmds...)
}

// Close detaches the model from the cart bus
func (m Model) Close() {
	m.sub.Unsubscribe()
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(tickInterval)

	case CartEventMsg:
		return m.handleCartEvent(msg.Event)

	case CartLoadedMsg:
		m.Loading = false
		m.Cart = msg.Cart
		m.CartList.SetLines(m.CartSvc.Merged(msg.Cart))
		return m, nil

	case ProductLoadedMsg:
		m.Product = msg.Product
		m.Guard = service.NewAddToCartGuard(m.CartSvc, m.identity, *msg.Product, "", m.logger)
		m.Quantity = m.Guard.Clamp(m.Quantity)
		return m, CheckMembershipCmd(m.Guard)

	case MembershipCheckedMsg:
		return m, nil

	case AddResultMsg:
		return m.handleAddResult(msg)

	case QuantityUpdatedMsg:
		return m.handleQuantityUpdated(msg)

	case ItemRemovedMsg:
		if msg.Err != nil {
			return m.setError(fmt.Errorf("remove failed: %w", msg.Err))
		}
		return m.setStatus("Item removed")

	case CartClearedMsg:
		if msg.Err != nil {
			return m.setError(fmt.Errorf("clear failed: %w", msg.Err))
		}
		return m.setStatus("Cart cleared")

	case LogoutCompleteMsg:
		if msg.Error != nil {
			return m.setError(fmt.Errorf("logout: %w", msg.Error))
		}
		return m.setStatus("Logged out")

	case ErrMsg:
		m.Loading = false
		return m.setError(msg)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

// handleCartEvent reacts to a bus notification and re-arms the listener
func (m Model) handleCartEvent(event domain.CartEvent) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{WaitForCartEventCmd(m.events)}

	switch event.Kind {
	case domain.EventItemUpdated:
		_, pending := m.CartSvc.PendingUpdates()[event.ItemID]
		m.CartList.SetQuantity(event.ItemID, event.Quantity, pending)
	case domain.EventRefresh:
		cmds = append(cmds, LoadCartCmd(m.CartSvc))
		if m.Guard != nil && !m.Guard.Busy() {
			cmds = append(cmds, CheckMembershipCmd(m.Guard))
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleAddResult(msg AddResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if errors.Is(msg.Err, domain.ErrOutOfStock) {
			return m.setError(fmt.Errorf("%s is out of stock", msg.Name))
		}
		return m.setError(msg.Err)
	}

	switch msg.Result.Outcome {
	case service.AddDone:
		return m.setStatus(fmt.Sprintf("Added %d × %s", msg.Result.Quantity, msg.Name))
	case service.AddLoginRequired:
		m.LoginURL = msg.Result.RedirectURL
		return m.setError(fmt.Errorf("log in to add items: %s", msg.Result.RedirectURL))
	case service.AddSkippedInCart:
		return m.setStatus(msg.Name + " is already in your cart")
	default:
		return m, nil
	}
}

// === Keyboard ===

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil
	case StateConfirmClear:
		return m.handleConfirm(msg, func(m Model) (Model, tea.Cmd) {
			return m, ClearCartCmd(m.CartSvc)
		})
	case StateConfirmLogout:
		return m.handleConfirm(msg, func(m Model) (Model, tea.Cmd) {
			return m, LogoutCmd(m.SessionSvc)
		})
	case StateFiltering, StateEditQuantity:
		return m.handleInputKeys(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil
	case key.Matches(msg, Keys.NextPane):
		if m.Product != nil {
			if m.Focus == PaneProduct {
				m.Focus = PaneCart
			} else {
				m.Focus = PaneProduct
			}
		}
		return m, nil
	case key.Matches(msg, Keys.Refresh):
		m.CartSvc.NotifyChanged()
		return m, nil
	case key.Matches(msg, Keys.Logout):
		if m.SessionSvc != nil && m.SessionSvc.LoggedIn() {
			m.State = StateConfirmLogout
		}
		return m, nil
	}

	if m.Focus == PaneProduct {
		return m.handleProductKeys(msg)
	}
	return m.handleCartKeys(msg)
}

func (m Model) handleProductKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Guard == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Increase):
		m.Quantity = m.Guard.Clamp(m.Quantity + 1)
	case key.Matches(msg, Keys.Decrease):
		m.Quantity = m.Guard.Clamp(m.Quantity - 1)
	case key.Matches(msg, Keys.Add):
		if m.Guard.Busy() {
			return m, nil
		}
		return m, AddToCartCmd(m.Guard, m.Quantity)
	}
	return m, nil
}

func (m Model) handleCartKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Up):
		m.CartList.MoveUp()
	case key.Matches(msg, Keys.Down):
		m.CartList.MoveDown()
	case key.Matches(msg, Keys.Home):
		m.CartList.Home()
	case key.Matches(msg, Keys.End):
		m.CartList.End()
	case key.Matches(msg, Keys.Increase):
		return m.changeQuantity(+1)
	case key.Matches(msg, Keys.Decrease):
		return m.changeQuantity(-1)
	case key.Matches(msg, Keys.SetQuantity):
		if line, ok := m.CartList.Selected(); ok {
			m.State = StateEditQuantity
			m.InputModal.ShowQuantity(line.Name, m.latestQuantity(line.ID, line.Quantity))
		}
	case key.Matches(msg, Keys.Remove):
		if line, ok := m.CartList.Selected(); ok {
			return m, RemoveItemCmd(m.CartSvc, line.ID)
		}
	case key.Matches(msg, Keys.ClearCart):
		if len(m.CartList.Lines()) > 0 {
			m.State = StateConfirmClear
		}
	case key.Matches(msg, Keys.Filter):
		m.State = StateFiltering
		m.InputModal.ShowFilter(m.CartList.FilterQuery())
	case key.Matches(msg, Keys.Escape):
		m.CartList.SetFilter("")
	}
	return m, nil
}

// changeQuantity shows the new quantity right away and sends it in the background.
// The step applies to the newest proposed quantity, not the last rendered one.
func (m Model) changeQuantity(delta int) (tea.Model, tea.Cmd) {
	line, ok := m.CartList.Selected()
	if !ok {
		return m, nil
	}
	return m.proposeQuantity(line.ID, m.latestQuantity(line.ID, line.Quantity)+delta)
}

func (m Model) latestQuantity(itemID int64, shown int) int {
	if q, ok := m.queued[itemID]; ok {
		return q
	}
	if q, ok := m.CartSvc.PendingUpdates()[itemID]; ok {
		return q
	}
	return shown
}

// proposeQuantity marks quantity pending and sends it, unless a change for
// the item is already outstanding; then it waits in queued.
func (m Model) proposeQuantity(itemID int64, quantity int) (tea.Model, tea.Cmd) {
	m.CartSvc.MarkPending(itemID, quantity)
	if m.inFlight[itemID] {
		m.queued[itemID] = quantity
		return m, nil
	}
	m.inFlight[itemID] = true
	return m, UpdateQuantityCmd(m.CartSvc, itemID, quantity)
}

// handleQuantityUpdated releases the item and sends the newest queued
// quantity, which also settles its ledger entry.
func (m Model) handleQuantityUpdated(msg QuantityUpdatedMsg) (tea.Model, tea.Cmd) {
	delete(m.inFlight, msg.ItemID)
	next, queued := m.queued[msg.ItemID]
	delete(m.queued, msg.ItemID)

	var cmds []tea.Cmd
	if queued {
		var cmd tea.Cmd
		m, cmd = m.sendQueued(msg.ItemID, next)
		cmds = append(cmds, cmd)
	}
	if msg.Err != nil {
		updated, cmd := m.setError(fmt.Errorf("quantity not saved: %w", msg.Err))
		m = updated.(Model)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) sendQueued(itemID int64, quantity int) (Model, tea.Cmd) {
	next, cmd := m.proposeQuantity(itemID, quantity)
	return next.(Model), cmd
}

func (m Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.State
	modal, cmd, submitted := m.InputModal.Update(msg)
	m.InputModal = modal

	if !m.InputModal.IsVisible() {
		// Dismissed with esc
		if state == StateFiltering {
			m.CartList.SetFilter("")
		}
		m.State = StateBrowsing
		return m, cmd
	}

	if state == StateFiltering {
		m.CartList.SetFilter(m.InputModal.Value())
		if submitted {
			m.InputModal.Hide()
			m.State = StateBrowsing
		}
		return m, cmd
	}

	if !submitted {
		return m, cmd
	}

	m.InputModal.Hide()
	m.State = StateBrowsing
	qty, err := m.InputModal.Quantity()
	if err != nil {
		return m.setError(fmt.Errorf("not a quantity: %w", err))
	}
	line, ok := m.CartList.Selected()
	if !ok {
		return m, nil
	}
	return m.proposeQuantity(line.ID, qty)
}

func (m Model) handleConfirm(msg tea.KeyMsg, onYes func(Model) (Model, tea.Cmd)) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Confirm):
		m.State = StateBrowsing
		return onYes(m)
	case key.Matches(msg, Keys.Deny):
		m.State = StateBrowsing
	}
	return m, nil
}

// === Status ===

func (m Model) setStatus(text string) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = false
	return m, ClearStatusCmd(statusTimeout)
}

func (m Model) setError(err error) (tea.Model, tea.Cmd) {
	m.logger.Warn("ui error", "error", err)
	m.StatusMsg = err.Error()
	m.StatusIsErr = true
	return m, ClearStatusCmd(statusTimeout)
}

// === Derived state ===

// BadgeCount returns the number of units in the cart, pending changes included
func (m Model) BadgeCount() int {
	n := 0
	for _, l := range m.CartList.Lines() {
		n += l.Quantity
	}
	return n
}

// DisplayTotal returns the cart total, pending changes included
func (m Model) DisplayTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range m.CartList.Lines() {
		total = total.Add(l.Subtotal())
	}
	return total
}
