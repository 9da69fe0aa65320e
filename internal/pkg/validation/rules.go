package validation

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Course codes look like ENV101 or CLM340A
	CourseCodePattern = `^[A-Za-z]{2,4}\d{3}[A-Za-z]?$`
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	CourseCode *regexp.Regexp
}{
	CourseCode: regexp.MustCompile(CourseCodePattern),
}

// TagCourseCode is the binding tag checking CourseCodePattern
const TagCourseCode = "coursecode"

// Register adds the custom rules to v
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(TagCourseCode, func(fl validator.FieldLevel) bool {
		return CompiledPatterns.CourseCode.MatchString(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register %s rule: %w", TagCourseCode, err)
	}
	return nil
}

// RegisterWithGin adds the custom rules to gin's binding validator
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}
