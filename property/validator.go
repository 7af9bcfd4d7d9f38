package property

import (
	"fmt"

	"github.com/c360/nodeflow/errors"
)

func numeric(v Value) (float64, bool) {
	switch v.kind {
	case KindInt, KindEnum:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// InRange accepts numeric values within [min, max].
func InRange(min, max float64) Validator {
	return func(v Value) error {
		n, ok := numeric(v)
		if !ok {
			return fmt.Errorf("%w: %s is not numeric", errors.ErrPropertyKind, v.kind)
		}
		if n < min || n > max {
			return fmt.Errorf("%w: %v not in [%v, %v]", errors.ErrOutOfRange, n, min, max)
		}
		return nil
	}
}

// AtLeast accepts numeric values greater than or equal to min.
func AtLeast(min float64) Validator {
	return func(v Value) error {
		n, ok := numeric(v)
		if !ok {
			return fmt.Errorf("%w: %s is not numeric", errors.ErrPropertyKind, v.kind)
		}
		if n < min {
			return fmt.Errorf("%w: %v below %v", errors.ErrOutOfRange, n, min)
		}
		return nil
	}
}

// Odd accepts odd integers, as required by aperture sizes.
func Odd() Validator {
	return func(v Value) error {
		if v.kind != KindInt || v.i%2 == 0 {
			return fmt.Errorf("%w: %s must be odd", errors.ErrOutOfRange, v)
		}
		return nil
	}
}

// OneOf accepts enum indices in [0, n).
func OneOf(n int) Validator {
	return func(v Value) error {
		if v.kind != KindEnum {
			return fmt.Errorf("%w: %s is not an enum", errors.ErrPropertyKind, v.kind)
		}
		if v.i < 0 || v.i >= n {
			return fmt.Errorf("%w: item %d of %d", errors.ErrOutOfRange, v.i, n)
		}
		return nil
	}
}
