// Package reports renders the printable Test Request Report.
package reports

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"testlab/config"
	"testlab/internal/logger"
	. "testlab/internal/models"
	"time"
)

const (
	DateLayout = "January 2, 2006"
	TimeLayout = "3:04 PM"
)

//go:embed templates/*.html
var templateFS embed.FS

type Company struct {
	Name    string
	Address string
	Email   string
	Phones  []string
	GSTIN   string
}

func CompanyFromConfig(cfg config.Config) Company {
	parts := []string{}
	for _, part := range []string{
		cfg.CompanyAddressLine1,
		cfg.CompanyAddressLine2,
		cfg.CompanyCity,
	} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	address := strings.Join(parts, ", ")
	if state := strings.TrimSpace(cfg.CompanyState); state != "" {
		address += ", " + state
	}
	if pincode := strings.TrimSpace(cfg.CompanyPincode); pincode != "" {
		address += " - " + pincode
	}

	return Company{
		Name:    cfg.CompanyName,
		Address: strings.TrimPrefix(address, ", "),
		Email:   cfg.CompanyEmail,
		Phones:  cfg.Phones(),
		GSTIN:   cfg.CompanyGSTIN,
	}
}

type field struct {
	Label string
	Value string
}

type reportData struct {
	Company       Company
	Request       TestRequest
	GeneratedDate string
	GeneratedTime string
}

type Renderer struct {
	company  Company
	tmpl     *template.Template
	location *time.Location
	now      func() time.Time
	log      logger.Logger
}

// NewRenderer formats dates in location, or the local zone when nil.
func NewRenderer(company Company, location *time.Location) (*Renderer, error) {
	log := logger.New("reports").Function("NewRenderer")
	if location == nil {
		location = time.Local
	}

	r := &Renderer{
		company:  company,
		location: location,
		now:      time.Now,
		log:      logger.New("reports"),
	}

	tmpl, err := template.New("testRequest.html").Funcs(template.FuncMap{
		"join": strings.Join,
		"row": func(label, value string) field {
			return field{Label: label, Value: value}
		},
		"some": func(o Optional[string]) string {
			return o.OrElse("")
		},
		"someDate": func(o Optional[int64]) string {
			if v, ok := o.Get(); ok {
				return r.formatDate(v)
			}
			return ""
		},
		"date":     r.formatDate,
		"itemType": TestItemTypeLabel,
	}).ParseFS(templateFS, "templates/testRequest.html")
	if err != nil {
		return nil, log.Err("failed to parse report template", err)
	}
	r.tmpl = tmpl

	return r, nil
}

func (r *Renderer) formatDate(nanos int64) string {
	return time.Unix(0, nanos).In(r.location).Format(DateLayout)
}

func (r *Renderer) TestRequest(testRequest TestRequest) ([]byte, error) {
	now := r.now().In(r.location)

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, reportData{
		Company:       r.company,
		Request:       testRequest,
		GeneratedDate: now.Format(DateLayout),
		GeneratedTime: now.Format(TimeLayout),
	})
	if err != nil {
		return nil, r.log.Function("TestRequest").Err("failed to render report", err, "testRequestID", testRequest.ID)
	}
	return buf.Bytes(), nil
}
