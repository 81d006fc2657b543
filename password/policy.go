package password

import (
	"errors"
	"fmt"
)

var (
	ErrTooShort = errors.New("password too short")
	ErrTooLong  = errors.New("password too long")
)

// Policy bounds password length in bytes.
type Policy struct {
	MinLength int
	MaxLength int
}

// DefaultPolicy accepts passwords between 8 and 128 bytes.
func DefaultPolicy() Policy {
	return Policy{MinLength: 8, MaxLength: 128}
}

func (p Policy) Check(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("%w: minimum is %d characters", ErrTooShort, p.MinLength)
	}
	if p.MaxLength > 0 && len(password) > p.MaxLength {
		return fmt.Errorf("%w: maximum is %d characters", ErrTooLong, p.MaxLength)
	}
	return nil
}

// Validate reports whether the policy itself is coherent.
func (p Policy) Validate() error {
	if p.MinLength < 1 {
		return errors.New("password policy minimum must be positive")
	}
	if p.MaxLength != 0 && p.MaxLength < p.MinLength {
		return errors.New("password policy maximum below minimum")
	}
	if p.MaxLength > maxInputBytes {
		return fmt.Errorf("password policy maximum exceeds %d bytes", maxInputBytes)
	}
	return nil
}
