package usecase

import (
	"fmt"

	domain "github.com/mecber11/farmacia/internal/entity"
)

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is the one message shown to the user after an interaction.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// View is the outcome of one interaction: the new session state plus what
// the client has to render.
type View struct {
	Session    *domain.Session
	Catalog    []domain.Medication
	ApproveURL string
	Notice     *Notice
}

// Greeting is empty for anonymous sessions.
func (v *View) Greeting() string {
	if v.Session == nil || !v.Session.Authenticated() {
		return ""
	}
	return fmt.Sprintf("¡Hola, %s!", v.Session.User.Nombre)
}

func (v *View) notify(level NoticeLevel, format string, args ...any) {
	v.Notice = &Notice{Level: level, Text: fmt.Sprintf(format, args...)}
}
