package util

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
)

// ErrConversion matches every error returned by FromString.
var ErrConversion = errors.New("conversion failed")

// ConversionError reports text that could not be read as a value of Type.
type ConversionError struct {
	Type string
	Text string
	Err  error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %q to %s: %v", e.Text, e.Type, e.Err)
	}
	return fmt.Sprintf("cannot convert %q to %s", e.Text, e.Type)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// ToString renders v with its default format, honouring fmt.Stringer.
func ToString[T any](v T) string {
	return fmt.Sprint(v)
}

// FromString parses text as a T. Types whose pointer implements
// encoding.TextUnmarshaler decode through it, integers are read as plain
// decimal, and everything else goes through fmt scanning. The value must
// account for the whole text apart from surrounding whitespace, so
// FromString[int]("12abc") and FromString[int]("0x1f") fail while
// FromString[int]("010") is 10.
func FromString[T any](text string) (T, error) {
	var value T
	if u, ok := any(&value).(encoding.TextUnmarshaler); ok {
		if err := u.UnmarshalText([]byte(strings.TrimSpace(text))); err != nil {
			var zero T
			return zero, newConversionError(zero, text, err)
		}
		return value, nil
	}

	if ok, err := parseDecimal(reflect.ValueOf(&value).Elem(), strings.TrimSpace(text)); ok {
		if err != nil {
			var zero T
			return zero, newConversionError(zero, text, err)
		}
		return value, nil
	}

	r := strings.NewReader(text)
	if _, err := fmt.Fscan(r, &value); err != nil {
		var zero T
		return zero, newConversionError(zero, text, err)
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		var zero T
		return zero, newConversionError(zero, text, err)
	}
	if trailing := strings.TrimSpace(string(rest)); trailing != "" {
		var zero T
		return zero, newConversionError(zero, text, fmt.Errorf("unexpected trailing input %q", trailing))
	}
	return value, nil
}

// parseDecimal stores text into v when v has an integer kind. fmt's %v
// scanning would accept base prefixes and digit separators, so "010"
// would read as 8. It reports false for every other kind.
func parseDecimal(v reflect.Value, text string) (bool, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, v.Type().Bits())
		if err != nil {
			return true, numError(err)
		}
		v.SetInt(n)
		return true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(text, 10, v.Type().Bits())
		if err != nil {
			return true, numError(err)
		}
		v.SetUint(n)
		return true, nil
	default:
		return false, nil
	}
}

// numError drops strconv's function and input prefix; ConversionError
// already names the text.
func numError(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}

func newConversionError(v any, text string, err error) *ConversionError {
	return &ConversionError{
		Type: fmt.Sprintf("%T", v),
		Text: text,
		Err:  err,
	}
}
