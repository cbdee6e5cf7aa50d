package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a search fails validation.
var ErrInvalid = errors.New("invalid search")

// Code is a dropdown option value. The site uses numbers for most of them, but
// some service desks are identified by strings, so both YAML forms are accepted.
type Code string

func (c *Code) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar option code", node.Line)
	}
	if node.Tag == "!!null" {
		*c = ""
		return nil
	}
	*c = Code(strings.TrimSpace(node.Value))
	return nil
}

func (c Code) String() string {
	return string(c)
}

type ServiceOption struct {
	Tema    int `yaml:"tema" validate:"gt=0"`
	Subtema int `yaml:"subtema" validate:"gt=0"`
	Motivo  int `yaml:"motivo" validate:"gt=0"`
}

type LocationOption struct {
	Distrito int `yaml:"distrito" validate:"gt=0"`
	// Localidade is 0 when the search covers the whole district.
	Localidade       int  `yaml:"localidade" validate:"gte=0"`
	LocalAtendimento Code `yaml:"local_atendimento"`
}

// Search is one configured search for free slots.
type Search struct {
	Title     string         `yaml:"title" validate:"required"`
	EntityOpt int            `yaml:"entity_opt" validate:"gt=0"`
	Service   ServiceOption  `yaml:"service_opt" validate:"required"`
	Location  LocationOption `yaml:"location_opt" validate:"required"`
	MaxDays   int            `yaml:"max_days" validate:"gte=0"`
	StartTime string         `yaml:"start_time" validate:"required,clock"`
	EndTime   string         `yaml:"end_time" validate:"required,clock"`
	// Frequency is the interval between runs in minutes.
	Frequency int `yaml:"frequency" validate:"gte=1"`
}

// clockPattern is a zero-padded 24h HH:MM, the active window is compared as text.
var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks every field of the search, the returned error wraps ErrInvalid.
func (s Search) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("%w %q: %s", ErrInvalid, s.Title, strings.Join(fields, ", "))
}

// HasServiceDesk reports whether the search narrows down to a single service desk,
// which is only possible once a locality has been chosen.
func (s Search) HasServiceDesk() bool {
	return s.Location.Localidade > 0 && s.Location.LocalAtendimento != ""
}

// EntityID is the value of the id attribute of the entity button.
func (s Search) EntityID() string {
	return strconv.Itoa(s.EntityOpt)
}
