package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/edu-resource-portal/internal/models"
)

// FieldError names a failed rule for one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of a schema check. Never returned as a bare error:
// callers inspect Valid and surface Errors to the user.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

func (r *Result) add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// Rule is one declarative constraint in an entity schema.
type Rule struct {
	Required bool
	Enum     []string
	Pattern  *regexp.Regexp
	MinInt   int
	MaxInt   int
	Numeric  bool
	MaxLen   int
	URL      bool
}

// Schema maps field names to their rules; one generic routine consumes it so
// every call site shares identical constraints for the same entity.
type Schema map[string]Rule

var (
	fileSizePattern = regexp.MustCompile(`(?i)^\d+(\.\d+)?\s*(B|KB|MB|GB)$`)
	yearPattern     = regexp.MustCompile(`^\d{4}$`)
	tagPattern      = regexp.MustCompile(`^[a-zA-Z0-9 -]+$`)
	filenamePattern = regexp.MustCompile(`^[^<>:"/\\|?*\x00-\x1f]+$`)
)

// ResourceSchema is the single source of truth for Resource shape checks.
var ResourceSchema = Schema{
	"title":       {Required: true, MaxLen: 200},
	"description": {MaxLen: 2000},
	"category":    {Required: true, Enum: []string{"textbook", "past-paper", "notes", "guide"}},
	"subject":     {Required: true, MaxLen: 100},
	"grade":       {Required: true, Numeric: true, MinInt: 9, MaxInt: 12},
	"year":        {Required: true, Pattern: yearPattern},
	"fileUrl":     {Required: true, URL: true},
	"previewUrl":  {URL: true},
	"fileSize":    {Required: true, Pattern: fileSizePattern},
}

const maxTags = 10

// Validator bundles the schema routine with a go-playground instance for
// request struct tags.
type Validator struct {
	structs *validator.Validate
}

// New constructs a Validator.
func New() *Validator {
	return &Validator{structs: validator.New()}
}

// Struct applies go-playground tag validation to a request payload.
func (v *Validator) Struct(payload interface{}) error {
	return v.structs.Struct(payload)
}

// Apply runs a schema over a field map. Absent non-required fields pass.
func (v *Validator) Apply(schema Schema, fields map[string]string) Result {
	result := Result{Valid: true}
	for name, rule := range schema {
		value, ok := fields[name]
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			if rule.Required {
				result.add(name, "is required")
			}
			continue
		}
		if rule.MaxLen > 0 && len(value) > rule.MaxLen {
			result.add(name, fmt.Sprintf("must be at most %d characters", rule.MaxLen))
		}
		if len(rule.Enum) > 0 && !contains(rule.Enum, value) {
			result.add(name, fmt.Sprintf("must be one of %s", strings.Join(rule.Enum, ", ")))
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
			result.add(name, "has an invalid format")
		}
		if rule.Numeric {
			n, err := strconv.Atoi(value)
			if err != nil {
				result.add(name, "must be numeric")
			} else if (rule.MinInt != 0 || rule.MaxInt != 0) && (n < rule.MinInt || n > rule.MaxInt) {
				result.add(name, fmt.Sprintf("must be between %d and %d", rule.MinInt, rule.MaxInt))
			}
		}
		if rule.URL && !IsURL(value) {
			result.add(name, "must be a valid http(s) URL")
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// Resource validates a full resource record, including the tag set.
func (v *Validator) Resource(r *models.Resource) Result {
	fields := map[string]string{
		"title":       r.Title,
		"description": r.Description,
		"category":    string(r.Category),
		"subject":     r.Subject,
		"grade":       r.Grade,
		"year":        r.Year,
		"fileUrl":     r.FileURL,
		"fileSize":    r.FileSize,
	}
	if r.PreviewURL != nil {
		fields["previewUrl"] = *r.PreviewURL
	}
	result := v.Apply(ResourceSchema, fields)

	if len(r.Tags) > maxTags {
		result.add("tags", fmt.Sprintf("at most %d tags allowed", maxTags))
	}
	for _, tag := range r.Tags {
		if !tagPattern.MatchString(tag) {
			result.add("tags", fmt.Sprintf("tag %q may only contain letters, digits, spaces and hyphens", tag))
			break
		}
	}
	if r.Downloads < 0 {
		result.add("downloads", "must not be negative")
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// IsURL reports whether the value parses as an absolute http(s) URL.
func IsURL(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsEmail performs a light-weight shape check suitable for form feedback.
func IsEmail(value string) bool {
	at := strings.Index(value, "@")
	if at <= 0 || at == len(value)-1 {
		return false
	}
	domain := value[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(value, " \t")
}

// IsFilename rejects path separators and control characters.
func IsFilename(value string) bool {
	return value != "" && filenamePattern.MatchString(value)
}

func contains(values []string, needle string) bool {
	for _, v := range values {
		if v == needle {
			return true
		}
	}
	return false
}
