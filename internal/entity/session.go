package domain

import (
	"errors"
	"fmt"
	"time"
)

// State is the storefront interaction state of one session.
type State string

const (
	StateAnonymous      State = "ANONYMOUS"
	StateAuthenticating State = "AUTHENTICATING"
	StateBrowsing       State = "BROWSING"
	StateCartReview     State = "CART_REVIEW"
	StateCheckingOut    State = "CHECKING_OUT"
)

// Page is the screen the client should render.
type Page string

const (
	PageLogin    Page = "login"
	PageRegister Page = "registro"
	PageCatalog  Page = "catalogo"
	PageCart     Page = "carrito"
)

var (
	ErrNotAuthenticated  = errors.New("session is not authenticated")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Session is the per-user interaction state. It is owned by exactly one
// client and persisted between interactions by a session store.
type Session struct {
	ID        string    `json:"id"`
	LoggedIn  bool      `json:"logged_in"`
	User      *Identity `json:"user,omitempty"`
	Page      Page      `json:"page"`
	State     State     `json:"state"`
	Cart      Cart      `json:"cart"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns an anonymous session on the login page.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Page:      PageLogin,
		State:     StateAnonymous,
		Cart:      Cart{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Authenticated() bool {
	return s.LoggedIn && s.User != nil
}

// RequireAuth is the page-routing guard. An unauthenticated session is
// pushed back to the login page.
func (s *Session) RequireAuth() error {
	if s.Authenticated() {
		return nil
	}
	s.State = StateAnonymous
	s.Page = PageLogin
	return ErrNotAuthenticated
}

// ShowPage switches between the anonymous pages.
func (s *Session) ShowPage(p Page) error {
	if s.Authenticated() {
		return fmt.Errorf("%w: %s while logged in", ErrInvalidTransition, p)
	}
	if p != PageLogin && p != PageRegister {
		return fmt.Errorf("%w: page %q", ErrInvalidTransition, p)
	}
	s.Page = p
	return nil
}

// BeginLogin marks a credential check in progress.
func (s *Session) BeginLogin() error {
	if s.Authenticated() {
		return fmt.Errorf("%w: already logged in", ErrInvalidTransition)
	}
	s.State = StateAuthenticating
	return nil
}

// LoginSucceeded sets the identity and opens the catalog.
func (s *Session) LoginSucceeded(who *Identity) {
	s.LoggedIn = true
	s.User = who
	s.State = StateBrowsing
	s.Page = PageCatalog
}

// LoginFailed keeps the session anonymous on the login page.
func (s *Session) LoginFailed() {
	s.LoggedIn = false
	s.User = nil
	s.State = StateAnonymous
	s.Page = PageLogin
}

// Registered routes a freshly registered visitor to the login page.
func (s *Session) Registered() {
	s.State = StateAnonymous
	s.Page = PageLogin
}

func (s *Session) Browse() error {
	if err := s.RequireAuth(); err != nil {
		return err
	}
	s.State = StateBrowsing
	s.Page = PageCatalog
	return nil
}

// AddToCart appends one line. Allowed from the catalog and the cart review.
func (s *Session) AddToCart(m Medication) error {
	if err := s.Browse(); err != nil {
		return err
	}
	s.Cart = s.Cart.Add(m)
	return nil
}

func (s *Session) ReviewCart() error {
	if err := s.RequireAuth(); err != nil {
		return err
	}
	s.State = StateCartReview
	s.Page = PageCart
	return nil
}

// BeginCheckout requires the cart review screen.
func (s *Session) BeginCheckout() error {
	if err := s.RequireAuth(); err != nil {
		return err
	}
	if s.State != StateCartReview {
		return fmt.Errorf("%w: checkout from %s", ErrInvalidTransition, s.State)
	}
	s.State = StateCheckingOut
	return nil
}

// CheckoutSucceeded clears the cart and returns to the catalog.
func (s *Session) CheckoutSucceeded() {
	s.Cart = Cart{}
	s.State = StateBrowsing
	s.Page = PageCatalog
}

// CheckoutFailed keeps the cart for a manual retry.
func (s *Session) CheckoutFailed() {
	s.State = StateCartReview
	s.Page = PageCart
}

// Reset discards identity and cart.
func (s *Session) Reset() {
	s.LoggedIn = false
	s.User = nil
	s.Cart = Cart{}
	s.State = StateAnonymous
	s.Page = PageLogin
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	cp := *s
	if s.User != nil {
		u := *s.User
		cp.User = &u
	}
	cp.Cart = s.Cart.Clone()
	return &cp
}
