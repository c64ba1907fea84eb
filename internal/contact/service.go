// Package contact forwards storefront contact forms to the shop inbox.
package contact

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/mailer"
)

// Request is the body of POST /api/contact/email.
type Request struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Message string `json:"message" validate:"required,max=5000"`
}

type Service struct {
	mail  mailer.Sender
	inbox string
}

func NewService(mail mailer.Sender, inbox string) (*Service, error) {
	if mail == nil {
		return nil, errors.New("mailer required")
	}
	if strings.TrimSpace(inbox) == "" {
		return nil, errors.New("contact inbox required")
	}
	return &Service{mail: mail, inbox: inbox}, nil
}

func (s *Service) Send(ctx context.Context, req Request) error {
	form := mailer.ContactForm{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   req.Phone,
		Message: strings.TrimSpace(req.Message),
	}
	if form.Name == "" || form.Email == "" || form.Message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "nombre, correo y mensaje son requeridos")
	}
	if err := s.mail.Send(ctx, mailer.ContactMessage(s.inbox, form)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "no se pudo enviar el mensaje")
	}
	return nil
}
