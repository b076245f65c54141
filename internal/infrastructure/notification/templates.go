// Package notification renders transactional emails and hands them to a Sender.
package notification

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Template names
const (
	TemplateOrderPlaced    = "order_placed"
	TemplateOrderCanceled  = "order_canceled"
	TemplateReturnReceived = "return_received"
	TemplatePasswordReset  = "password_reset"
)

// ErrUnknownTemplate is returned when rendering a template that was not loaded
var ErrUnknownTemplate = errors.New("unknown notification template")

//go:embed templates/*.tmpl
var builtin embed.FS

// Template is the source of one email
type Template struct {
	Name    string
	Subject string
	Body    string
}

type compiled struct {
	subject *texttemplate.Template
	body    *htmltemplate.Template
}

// Renderer turns template data into subject and HTML body
type Renderer struct {
	templates map[string]compiled
	funcs     map[string]any
}

// NewRenderer loads the built-in templates. Files in overrideDir named
// <name>.subject.tmpl and <name>.html.tmpl replace the built-in ones.
func NewRenderer(overrideDir string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]compiled),
		funcs: map[string]any{
			"formatMoney":    formatMoney,
			"formatDateTime": formatDateTime,
			"upper":          strings.ToUpper,
			"title":          cases.Title(language.English).String,
			"default":        defaultString,
		},
	}

	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		return nil, err
	}
	if err := r.loadFS(sub); err != nil {
		return nil, err
	}
	if overrideDir != "" {
		if _, err := os.Stat(overrideDir); err != nil {
			return nil, fmt.Errorf("notification templates dir: %w", err)
		}
		if err := r.loadFS(os.DirFS(overrideDir)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) loadFS(fsys fs.FS) error {
	subjects, err := fs.Glob(fsys, "*.subject.tmpl")
	if err != nil {
		return err
	}
	for _, subjectFile := range subjects {
		name := strings.TrimSuffix(filepath.Base(subjectFile), ".subject.tmpl")
		subject, err := fs.ReadFile(fsys, subjectFile)
		if err != nil {
			return err
		}
		body, err := fs.ReadFile(fsys, name+".html.tmpl")
		if err != nil {
			return fmt.Errorf("template %s has no html body: %w", name, err)
		}
		if err := r.Register(Template{Name: name, Subject: string(subject), Body: string(body)}); err != nil {
			return err
		}
	}
	return nil
}

// Register compiles t, replacing any template with the same name
func (r *Renderer) Register(t Template) error {
	subject, err := texttemplate.New(t.Name + ".subject").Funcs(r.funcs).Parse(strings.TrimSpace(t.Subject))
	if err != nil {
		return fmt.Errorf("parse %s subject: %w", t.Name, err)
	}
	body, err := htmltemplate.New(t.Name + ".body").Funcs(r.funcs).Parse(t.Body)
	if err != nil {
		return fmt.Errorf("parse %s body: %w", t.Name, err)
	}
	r.templates[t.Name] = compiled{subject: subject, body: body}
	return nil
}

// Render executes the named template with data
func (r *Renderer) Render(name string, data any) (subject, body string, err error) {
	t, ok := r.templates[name]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var sb, bb bytes.Buffer
	if err := t.subject.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := t.body.Execute(&bb, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return sb.String(), bb.String(), nil
}

// formatMoney prints "USD 12.50", rounded to the currency's minor units
func formatMoney(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	return code + " " + valueobject.RoundAmount(amount, code).StringFixed(valueobject.CurrencyDigits(code))
}

func formatDateTime(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006 15:04 MST")
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
