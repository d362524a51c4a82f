package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/mecber11/farmacia/internal/logging"
	"go.uber.org/zap"
)

// Storefront drives the login/catalog/cart/checkout state machine. Every
// operation loads the session, applies one transition, saves it and returns
// the resulting View.
type Storefront struct {
	sessions  SessionStore
	customers CustomerRepo
	catalog   CatalogRepo
	hasher    PasswordHasher
	checkout  *Checkout
	metrics   Metrics
	locks     *keyedMutex
	newID     func() string
	now       func() time.Time

	saveBackoff time.Duration
}

const saveAttempts = 3

func NewStorefront(sessions SessionStore, customers CustomerRepo, catalog CatalogRepo,
	hasher PasswordHasher, checkout *Checkout, metrics Metrics) *Storefront {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Storefront{
		sessions:  sessions,
		customers: customers,
		catalog:   catalog,
		hasher:    hasher,
		checkout:  checkout,
		metrics:   metrics,
		locks:     newKeyedMutex(),
		newID:     uuid.NewString,
		now:       time.Now,

		saveBackoff: 50 * time.Millisecond,
	}
}

// Start creates an anonymous session on the login page.
func (s *Storefront) Start(ctx context.Context) (*View, error) {
	sess := domain.NewSession(s.newID(), s.now())
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, storeErr("save session", err)
	}
	logging.FromCtx(ctx).Debug("session started", zap.String("session_id", sess.ID))
	return &View{Session: sess}, nil
}

// Current returns the session as it is, without a transition.
func (s *Storefront) Current(ctx context.Context, sid string) (*View, error) {
	return s.interact(ctx, sid, func(context.Context, *domain.Session, *View) error { return nil })
}

// ShowPage switches an anonymous session between login and registro.
func (s *Storefront) ShowPage(ctx context.Context, sid string, page domain.Page) (*View, error) {
	return s.interact(ctx, sid, func(_ context.Context, sess *domain.Session, v *View) error {
		if err := sess.ShowPage(page); err != nil {
			v.notify(NoticeWarning, "Página no disponible.")
			return err
		}
		return nil
	})
}

func (s *Storefront) Login(ctx context.Context, sid, phone, password string) (*View, error) {
	return s.interact(ctx, sid, func(ctx context.Context, sess *domain.Session, v *View) error {
		if err := sess.BeginLogin(); err != nil {
			v.notify(NoticeWarning, "Ya has iniciado sesión.")
			return err
		}

		cust, err := s.customers.FindByPhone(ctx, strings.TrimSpace(phone))
		if err != nil && !errors.Is(err, ErrNotFound) {
			sess.LoginFailed()
			s.metrics.LoginAttempt("error")
			v.notify(NoticeError, "No se pudo verificar tus datos. Intenta de nuevo.")
			return storeErr("find customer", err)
		}
		if cust == nil || !s.hasher.Verify(cust.PasswordHash, password) {
			sess.LoginFailed()
			s.metrics.LoginAttempt("invalid")
			v.notify(NoticeError, "Teléfono o contraseña incorrectos")
			return ErrInvalidCredentials
		}

		sess.LoginSucceeded(cust.Identity())
		s.metrics.LoginAttempt("success")
		logging.FromCtx(ctx).Info("customer logged in",
			zap.String("session_id", sess.ID), zap.Int64("customer_id", cust.ID))
		return nil
	})
}

func (s *Storefront) Register(ctx context.Context, sid string, reg domain.Registration) (*View, error) {
	return s.interact(ctx, sid, func(ctx context.Context, sess *domain.Session, v *View) error {
		if sess.Authenticated() {
			v.notify(NoticeWarning, "Cierra sesión para crear otra cuenta.")
			return fmt.Errorf("%w: register while logged in", ErrInvalidTransition)
		}
		reg.Normalize()
		if err := reg.Validate(); err != nil {
			if errors.Is(err, domain.ErrPasswordTooLong) {
				v.notify(NoticeError, "La contraseña no puede tener más de %d caracteres.", domain.MaxPasswordBytes)
			} else {
				v.notify(NoticeError, "Completa nombre, teléfono y contraseña.")
			}
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		hash, err := s.hasher.Hash(reg.Password)
		if err != nil {
			v.notify(NoticeError, "Error al registrar: %v", err)
			return fmt.Errorf("hash password: %w", err)
		}
		id, err := s.customers.Create(ctx, &domain.Customer{
			Nombre:       reg.Nombre,
			Telefono:     reg.Telefono,
			Email:        reg.Email,
			Direccion:    reg.Direccion,
			PasswordHash: hash,
		})
		if errors.Is(err, ErrPhoneTaken) {
			v.notify(NoticeError, "Error al registrar: el teléfono ya está registrado.")
			return err
		}
		if err != nil {
			v.notify(NoticeError, "Error al registrar: %v", err)
			return storeErr("create customer", err)
		}

		sess.Registered()
		v.notify(NoticeSuccess, "¡Registro exitoso! Ahora puedes iniciar sesión.")
		logging.FromCtx(ctx).Info("customer registered", zap.Int64("customer_id", id))
		return nil
	})
}

// Browse opens the catalog of active, in-stock medications.
func (s *Storefront) Browse(ctx context.Context, sid string) (*View, error) {
	return s.interact(ctx, sid, func(ctx context.Context, sess *domain.Session, v *View) error {
		if err := sess.Browse(); err != nil {
			v.notify(NoticeWarning, "Inicia sesión para continuar.")
			return err
		}
		items, err := s.catalog.ListAvailable(ctx)
		if err != nil {
			v.notify(NoticeError, "No se pudo cargar el catálogo. Intenta de nuevo.")
			return storeErr("list catalog", err)
		}
		v.Catalog = items
		if len(items) == 0 {
			v.notify(NoticeInfo, "No hay medicamentos disponibles por ahora.")
		}
		return nil
	})
}

func (s *Storefront) AddToCart(ctx context.Context, sid string, medicationID int64) (*View, error) {
	return s.interact(ctx, sid, func(ctx context.Context, sess *domain.Session, v *View) error {
		if err := sess.RequireAuth(); err != nil {
			v.notify(NoticeWarning, "Inicia sesión para continuar.")
			return err
		}
		m, err := s.catalog.FindAvailable(ctx, medicationID)
		if errors.Is(err, ErrNotFound) {
			v.notify(NoticeError, "El medicamento ya no está disponible.")
			return fmt.Errorf("%w: id %d", ErrMedicationUnavailable, medicationID)
		}
		if err != nil {
			v.notify(NoticeError, "No se pudo añadir al carrito. Intenta de nuevo.")
			return storeErr("find medication", err)
		}
		if err := sess.AddToCart(*m); err != nil {
			return err
		}
		v.notify(NoticeSuccess, "'%s' añadido al carrito!", m.Nombre)
		return nil
	})
}

func (s *Storefront) ReviewCart(ctx context.Context, sid string) (*View, error) {
	return s.interact(ctx, sid, func(_ context.Context, sess *domain.Session, v *View) error {
		if err := sess.ReviewCart(); err != nil {
			v.notify(NoticeWarning, "Inicia sesión para continuar.")
			return err
		}
		if sess.Cart.IsEmpty() {
			v.notify(NoticeWarning, "Tu carrito está vacío.")
		}
		return nil
	})
}

// Checkout dispatches the cart. An empty cart never reaches the dispatcher.
func (s *Storefront) Checkout(ctx context.Context, sid string) (*View, error) {
	return s.interact(ctx, sid, func(ctx context.Context, sess *domain.Session, v *View) error {
		if err := sess.BeginCheckout(); err != nil {
			if errors.Is(err, ErrNotAuthenticated) {
				v.notify(NoticeWarning, "Inicia sesión para continuar.")
			} else {
				v.notify(NoticeWarning, "Revisa tu carrito antes de pagar.")
			}
			return err
		}
		if sess.Cart.IsEmpty() {
			sess.CheckoutFailed()
			s.metrics.CheckoutAttempt("empty")
			v.notify(NoticeWarning, "Tu carrito está vacío.")
			return nil
		}

		url, err := s.checkout.Execute(ctx, CheckoutInput{SessionID: sess.ID, Who: sess.User, Cart: sess.Cart})
		if err != nil {
			sess.CheckoutFailed()
			switch {
			case errors.Is(err, ErrMissingRedirect):
				v.notify(NoticeError, "Hubo un problema al crear la orden de pago. Intenta de nuevo.")
			case errors.Is(err, ErrDuplicateCheckout):
				v.notify(NoticeWarning, "Ya enviamos este pedido hace un momento. Revisa tu enlace de pago.")
			default:
				v.notify(NoticeError, "Error de comunicación con el servidor: %v", err)
			}
			return err
		}

		sess.CheckoutSucceeded()
		v.ApproveURL = url
		v.notify(NoticeSuccess, "¡Orden creada! Serás redirigido a PayPal para completar el pago.")
		return nil
	})
}

// Logout destroys the session and hands out a fresh anonymous one.
func (s *Storefront) Logout(ctx context.Context, sid string) (*View, error) {
	unlock := s.locks.Lock(sid)
	defer unlock()

	sess, err := s.sessions.Get(ctx, sid)
	switch {
	case errors.Is(err, ErrSessionNotFound):
	case err != nil:
		return nil, storeErr("load session", err)
	default:
		sess.Reset()
		if err := s.sessions.Delete(ctx, sid); err != nil {
			return nil, storeErr("delete session", err)
		}
	}

	v, err := s.Start(ctx)
	if err != nil {
		return nil, err
	}
	v.notify(NoticeInfo, "Sesión cerrada.")
	return v, nil
}

func (s *Storefront) interact(ctx context.Context, sid string,
	fn func(context.Context, *domain.Session, *View) error) (*View, error) {
	unlock := s.locks.Lock(sid)
	defer unlock()

	sess, err := s.sessions.Get(ctx, sid)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, storeErr("load session", err)
	}

	v := &View{Session: sess}
	opErr := fn(ctx, sess, v)

	sess.UpdatedAt = s.now()
	if err := s.save(ctx, sess); err != nil {
		// the view describes a state the store never recorded
		if v.ApproveURL != "" {
			logging.FromCtx(ctx).Error("order dispatched but session not saved",
				zap.String("session_id", sess.ID), zap.String("approve_url", v.ApproveURL), zap.Error(err))
		}
		return nil, storeErr("save session", err)
	}
	return v, opErr
}

func (s *Storefront) save(ctx context.Context, sess *domain.Session) error {
	var err error
	for i := 0; i < saveAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(time.Duration(i) * s.saveBackoff):
			}
		}
		if err = s.sessions.Save(ctx, sess); err == nil {
			return nil
		}
	}
	return err
}
