// Package validation runs the per-field checks applied to request values
// before they reach the update and query engines.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/optional"
)

var validate = validator.New()

// Presence is implemented by optional request values.
type Presence interface {
	Present() bool
	Err() error
}

// Lookup reports whether a referenced row exists.
type Lookup func(ctx context.Context, id uint64) (bool, error)

// Chain collects every failed check of one request. Each field reports at
// most one failure.
type Chain struct {
	ctx    context.Context
	errs   apierrors.ValidationError
	failed map[string]bool
	err    error
}

// New starts an empty chain. ctx is used by existence lookups.
func New(ctx context.Context) *Chain {
	return &Chain{ctx: ctx, failed: map[string]bool{}}
}

func (c *Chain) fail(field, message string) {
	if c.failed[field] {
		return
	}
	c.failed[field] = true
	c.errs.Add(field, message)
}

func (c *Chain) usable(field string, v Presence) bool {
	return v.Present() && !c.failed[field] && c.err == nil
}

// Required fails when the value is absent.
func (c *Chain) Required(field string, v Presence) *Chain {
	if !v.Present() {
		c.fail(field, "is required")
	}
	return c
}

// String checks a present string against validator rules such as
// "min=3,max=64".
func (c *Chain) String(field string, v optional.String, rules string) *Chain {
	if !c.usable(field, v) {
		return c
	}
	s, ok := v.Get()
	if !ok {
		c.fail(field, "must be a string")
		return c
	}
	c.check(field, s, rules)
	return c
}

// Int checks a present integer against validator rules such as "min=0,max=5".
func (c *Chain) Int(field string, v optional.Int, rules string) *Chain {
	if !c.usable(field, v) {
		return c
	}
	n, ok := v.Get()
	if !ok {
		c.fail(field, "must be an integer")
		return c
	}
	c.check(field, n, rules)
	return c
}

// Bool checks that a present value is a boolean.
func (c *Chain) Bool(field string, v optional.Bool) *Chain {
	if !c.usable(field, v) {
		return c
	}
	if _, ok := v.Get(); !ok {
		c.fail(field, "must be a boolean")
	}
	return c
}

// Exists fails when a present, otherwise valid id has no matching row.
// Lookup failures are not field failures; they are returned by Validate.
func (c *Chain) Exists(field string, v optional.Int, lookup Lookup) *Chain {
	if !c.usable(field, v) {
		return c
	}
	id, ok := v.Get()
	if !ok || id < 1 {
		return c
	}
	found, err := lookup(c.ctx, uint64(id))
	if err != nil {
		c.err = fmt.Errorf("failed to look up %s: %w", field, err)
		return c
	}
	if !found {
		c.fail(field, "does not exist")
	}
	return c
}

// AtLeastOne fails unless one of values is present.
func (c *Chain) AtLeastOne(fields []string, values ...Presence) *Chain {
	for _, v := range values {
		if v.Present() {
			return c
		}
	}
	c.fail("body", "require at least one value of: "+strings.Join(fields, ", "))
	return c
}

// Validate returns a lookup error if one happened, then the aggregated
// *apierrors.ValidationError if any check failed, and nil otherwise.
func (c *Chain) Validate() error {
	if c.err != nil {
		return c.err
	}
	if len(c.errs.Fields) == 0 {
		return nil
	}
	out := c.errs
	return &out
}

func (c *Chain) check(field string, value any, rules string) {
	if rules == "" {
		return
	}
	err := validate.Var(value, rules)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		c.fail(field, message(verrs[0]))
		return
	}
	c.fail(field, "is invalid")
}

func message(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit)
	case "max", "lte":
		return fmt.Sprintf("must be at most %s%s", fe.Param(), unit)
	case "len":
		return fmt.Sprintf("must be exactly %s%s", fe.Param(), unit)
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url", "http_url":
		return "must be a valid URL"
	case "alphanum":
		return "must contain only letters and digits"
	default:
		return fmt.Sprintf("failed validation (%s)", fe.Tag())
	}
}
