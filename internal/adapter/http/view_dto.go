package http

import (
	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/mecber11/farmacia/internal/usecase"
)

type identityDTO struct {
	ID       int64  `json:"id"`
	Nombre   string `json:"nombre"`
	Telefono string `json:"telefono"`
}

type sessionDTO struct {
	ID       string       `json:"id"`
	State    string       `json:"state"`
	Page     string       `json:"page"`
	LoggedIn bool         `json:"logged_in"`
	User     *identityDTO `json:"user,omitempty"`
}

type medicationDTO struct {
	ID           int64   `json:"id"`
	Nombre       string  `json:"nombre"`
	Presentacion string  `json:"presentacion"`
	Precio       float64 `json:"precio"`
	Stock        int     `json:"stock"`
}

type cartItemDTO struct {
	ID       int64   `json:"id"`
	Nombre   string  `json:"nombre"`
	Precio   float64 `json:"precio"`
	Cantidad int     `json:"cantidad"`
}

type noticeDTO struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// viewResp is what the storefront client renders after every interaction.
type viewResp struct {
	Token      string          `json:"token,omitempty"`
	Error      string          `json:"error,omitempty"`
	Session    sessionDTO      `json:"session"`
	Greeting   string          `json:"greeting,omitempty"`
	Catalog    []medicationDTO `json:"catalog,omitempty"`
	Cart       []cartItemDTO   `json:"cart"`
	Total      float64         `json:"total"`
	ApproveURL string          `json:"approve_url,omitempty"`
	Notice     *noticeDTO      `json:"notice,omitempty"`
}

func toViewResp(v *usecase.View) viewResp {
	s := v.Session
	out := viewResp{
		Session: sessionDTO{
			ID:       s.ID,
			State:    string(s.State),
			Page:     string(s.Page),
			LoggedIn: s.Authenticated(),
		},
		Greeting:   v.Greeting(),
		Cart:       toCartDTO(s.Cart),
		Total:      s.Cart.Total().InexactFloat64(),
		ApproveURL: v.ApproveURL,
	}
	if s.User != nil {
		out.Session.User = &identityDTO{ID: s.User.ID, Nombre: s.User.Nombre, Telefono: s.User.Telefono}
	}
	for _, m := range v.Catalog {
		out.Catalog = append(out.Catalog, medicationDTO{
			ID:           m.ID,
			Nombre:       m.Nombre,
			Presentacion: m.Presentacion,
			Precio:       m.PrecioUnitario.InexactFloat64(),
			Stock:        m.Stock,
		})
	}
	if v.Notice != nil {
		out.Notice = &noticeDTO{Level: string(v.Notice.Level), Text: v.Notice.Text}
	}
	return out
}

func toCartDTO(cart domain.Cart) []cartItemDTO {
	out := make([]cartItemDTO, 0, len(cart))
	for _, it := range cart {
		out = append(out, cartItemDTO{
			ID:       it.MedicationID,
			Nombre:   it.Nombre,
			Precio:   it.Precio.InexactFloat64(),
			Cantidad: it.Cantidad,
		})
	}
	return out
}
