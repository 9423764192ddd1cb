package contact

import (
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

// phonePattern accepts an optional leading + followed by digits, spaces,
// hyphens and parentheses only.
var phonePattern = regexp.MustCompile(`^[+]?[\d\s\-()]+$`)

var registerPhoneValidationOnce sync.Once

// RegisterPhoneValidation installs the "phone" tag on gin's shared validator.
// Safe to call from multiple controllers; registration happens once.
func RegisterPhoneValidation() {
	registerPhoneValidationOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
				return phonePattern.MatchString(fl.Field().String())
			})
		}
	})
}

// SubmitContactRequest is the wire shape of a form submission. Website is the
// hidden honeypot field: humans never see it, so a non-empty value marks the
// submission as bot traffic.
type SubmitContactRequest struct {
	Company    string   `json:"company" binding:"required"`
	Name       string   `json:"name" binding:"required"`
	Phone      string   `json:"phone" binding:"required,phone"`
	Email      string   `json:"email" binding:"required,email"`
	Needs      string   `json:"needs" binding:"omitempty"`
	LookingFor []string `json:"lookingFor" binding:"omitempty"`
	Lang       string   `json:"lang" binding:"omitempty"`
	Website    string   `json:"website" binding:"omitempty"`
}

// Submission is the sanitized form of a request: free-text fields stripped of
// angle brackets, trimmed and capped in length, with the language tag
// normalized. It lives for the duration of one request only.
type Submission struct {
	Company    string
	Name       string
	Phone      string
	Email      string
	Needs      string
	LookingFor []string
	Lang       string
}

// IsBot reports whether the honeypot field was filled in.
func (req *SubmitContactRequest) IsBot() bool {
	return strings.TrimSpace(req.Website) != ""
}

// ToSubmission sanitizes every free-text field and normalizes the language.
func ToSubmission(req *SubmitContactRequest) *Submission {
	if req == nil {
		return nil
	}

	submission := &Submission{
		Company: SanitizeText(req.Company),
		Name:    SanitizeText(req.Name),
		Phone:   SanitizeText(req.Phone),
		Email:   SanitizeText(req.Email),
		Needs:   SanitizeText(req.Needs),
		Lang:    NormalizeLang(req.Lang),
	}

	if len(req.LookingFor) > 0 {
		submission.LookingFor = make([]string, 0, len(req.LookingFor))
		for _, tag := range req.LookingFor {
			if sanitized := SanitizeText(tag); sanitized != "" {
				submission.LookingFor = append(submission.LookingFor, sanitized)
			}
		}
	}

	return submission
}

// NormalizeLang canonicalizes a BCP 47 tag to its base language ("en-US"
// becomes "en"). Unparseable or empty values fall back to "en".
func NormalizeLang(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "en"
	}

	tag, err := language.Parse(lang)
	if err != nil {
		return "en"
	}

	base, confidence := tag.Base()
	if confidence == language.No {
		return "en"
	}

	return base.String()
}
