package artifact

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/url"

	"boxoffice/entities"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

var ticketTemplate = template.Must(template.New("ticket").Parse(`<!DOCTYPE html>
<html>
	<head>
		<meta charset="utf-8">
		<title>{{.EventName}} - {{.Code}}</title>
	</head>
	<body>
		<h1>{{.EventName}}</h1>
		<p>{{.Venue}}, {{.StartsAt.Format "Mon 2 Jan 2006 15:04"}}</p>
		<h2>{{.TierName}}</h2>
		<img alt="{{.Code}}" src="{{.QR}}">
		<p><strong>{{.Code}}</strong></p>
		<p>Issued to {{.Email}}. Valid for one entry.</p>
	</body>
</html>
`))

// Renderer turns an issued ticket into an HTML page carrying a QR code of its validation URL.
type Renderer struct {
	validateURL *url.URL
}

func NewRenderer(publicBaseURL string) (Renderer, error) {
	base, err := url.Parse(publicBaseURL)
	if err != nil {
		return Renderer{}, fmt.Errorf("invalid public base url: %w", err)
	}

	return Renderer{validateURL: base.JoinPath("validate")}, nil
}

func (r Renderer) ValidationURL(code string) string {
	return r.validateURL.JoinPath(code).String()
}

func (r Renderer) RenderTicket(ctx context.Context, ticket entities.TicketDetails) (entities.Artifact, error) {
	if ticket.Code == "" {
		return entities.Artifact{}, entities.PermanentError{Err: fmt.Errorf("ticket without code")}
	}

	png, err := qrcode.Encode(r.ValidationURL(ticket.Code), qrcode.Medium, qrSize)
	if err != nil {
		return entities.Artifact{}, entities.PermanentError{Err: fmt.Errorf("could not encode qr code for %s: %w", ticket.Code, err)}
	}

	var page bytes.Buffer
	err = ticketTemplate.Execute(&page, struct {
		entities.TicketDetails
		QR template.URL
	}{
		TicketDetails: ticket,
		QR:            template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
	})
	if err != nil {
		return entities.Artifact{}, entities.PermanentError{Err: fmt.Errorf("could not render ticket %s: %w", ticket.Code, err)}
	}

	return entities.Artifact{
		FileName:    ticket.Code + ".html",
		ContentType: "text/html; charset=utf-8",
		Content:     page.Bytes(),
	}, nil
}
