package letter

import (
	"fmt"
	"os"
	"strings"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"gopkg.in/yaml.v3"
)

// DefaultCurrency prefixes both amount lines.
const DefaultCurrency = "KShs"

// Template holds the fixed text of a salary-review letter and its email.
// Multi-line fields may use real newlines or the two-character "\n"
// sequence, which is how they arrive from environment variables.
type Template struct {
	CompanyName string `yaml:"company_name"`
	Header      string `yaml:"header"`
	Year        string `yaml:"year"`
	Intro       string `yaml:"intro"`
	Details     string `yaml:"details"`
	Note        string `yaml:"note"`
	Tax         string `yaml:"tax"`
	Conclusion  string `yaml:"conclusion"`
	Signature   string `yaml:"signature"`
	Footer      string `yaml:"footer"`
	Currency    string `yaml:"currency"`

	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
	Body2   string `yaml:"body2"`
}

// Validate reports every required field that is empty.
func (t Template) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"COMPANY_NAME", t.CompanyName},
		{"SALARY_REVIEW_HEADER", t.Header},
		{"SALARY_REVIEW_INTRO", t.Intro},
		{"SALARY_REVIEW_DETAILS", t.Details},
		{"SALARY_REVIEW_NOTE", t.Note},
		{"SALARY_REVIEW_TAX", t.Tax},
		{"SALARY_REVIEW_CONCLUSION", t.Conclusion},
		{"SALARY_REVIEW_SIGNATURE", t.Signature},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", core.ErrMissingTemplateField, strings.Join(missing, ", "))
	}
	return nil
}

// Merge returns t with every non-empty field of o applied on top.
func (t Template) Merge(o Template) Template {
	pick := func(base, over string) string {
		if over != "" {
			return over
		}
		return base
	}
	return Template{
		CompanyName: pick(t.CompanyName, o.CompanyName),
		Header:      pick(t.Header, o.Header),
		Year:        pick(t.Year, o.Year),
		Intro:       pick(t.Intro, o.Intro),
		Details:     pick(t.Details, o.Details),
		Note:        pick(t.Note, o.Note),
		Tax:         pick(t.Tax, o.Tax),
		Conclusion:  pick(t.Conclusion, o.Conclusion),
		Signature:   pick(t.Signature, o.Signature),
		Footer:      pick(t.Footer, o.Footer),
		Currency:    pick(t.Currency, o.Currency),
		Subject:     pick(t.Subject, o.Subject),
		Body:        pick(t.Body, o.Body),
		Body2:       pick(t.Body2, o.Body2),
	}
}

// LoadTemplateFile reads a YAML template file. Keys match the yaml tags of
// Template; unknown keys are rejected so typos surface at startup.
func LoadTemplateFile(path string) (Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return Template{}, fmt.Errorf("open letter template: %w", err)
	}
	defer f.Close()

	var t Template
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return Template{}, fmt.Errorf("parse letter template %s: %w", path, err)
	}
	return t, nil
}

// splitLines expands escaped newlines and splits a multi-line field.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}
