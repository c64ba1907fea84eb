package mailer

import (
	"fmt"
	"html"
	"strings"
)

// ContactForm is a storefront contact request.
type ContactForm struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// WelcomeMessage thanks a new newsletter subscriber.
func WelcomeMessage(to, shopURL string) Message {
	body := fmt.Sprintf(`<h2>¡Gracias por suscribirte!</h2>
<p>A partir de ahora recibirás nuestras novedades y promociones para tu mascota.</p>
<p><a href="%s">Visita la tienda</a></p>`, html.EscapeString(shopURL))
	return Message{
		To:      []string{to},
		Subject: "Bienvenido a nuestro boletín",
		HTML:    body,
	}
}

// ContactMessage forwards a contact form to the shop inbox. Replies go to the
// customer.
func ContactMessage(inbox string, form ContactForm) Message {
	phone := strings.TrimSpace(form.Phone)
	if phone == "" {
		phone = "No proporcionado"
	}
	body := fmt.Sprintf(`<h2>Nuevo mensaje de contacto</h2>
<p><strong>Nombre:</strong> %s</p>
<p><strong>Correo:</strong> %s</p>
<p><strong>Teléfono:</strong> %s</p>
<p><strong>Mensaje:</strong></p>
<p>%s</p>`,
		html.EscapeString(form.Name),
		html.EscapeString(form.Email),
		html.EscapeString(phone),
		strings.ReplaceAll(html.EscapeString(form.Message), "\n", "<br>"),
	)
	return Message{
		To:      []string{inbox},
		ReplyTo: form.Email,
		Subject: "Contacto: " + form.Name,
		HTML:    body,
	}
}
