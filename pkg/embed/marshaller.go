package malgeul

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"

	"github.com/cockroachdb/apd"

	"github.com/funvibe/malgeul/internal/evaluator"
)

var (
	bigIntType  = reflect.TypeOf((*big.Int)(nil))
	bigRatType  = reflect.TypeOf((*big.Rat)(nil))
	decimalType = reflect.TypeOf((*apd.Decimal)(nil))
	valueType   = reflect.TypeOf((*evaluator.Value)(nil)).Elem()
	valuesType  = reflect.TypeOf(evaluator.Values(nil))
)

// Marshaller handles conversion between Go and Malgeul values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// ToValue converts a Go value to a Malgeul value.
func (m *Marshaller) ToValue(val interface{}) (evaluator.Value, error) {
	if val == nil {
		return nil, fmt.Errorf("cannot convert nil")
	}

	// Check if already a value
	if v, ok := val.(evaluator.Value); ok {
		return v, nil
	}

	switch x := val.(type) {
	case *big.Int:
		return &evaluator.Integer{Value: new(big.Int).Set(x)}, nil
	case *big.Rat:
		return &evaluator.Fraction{Value: new(big.Rat).Set(x)}, nil
	case *apd.Decimal:
		return &evaluator.Number{Value: new(apd.Decimal).Set(x)}, nil
	case evaluator.Values:
		return &evaluator.List{Elements: x}, nil
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return evaluator.NewInteger(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &evaluator.Integer{Value: new(big.Int).SetUint64(v.Uint())}, nil
	case reflect.Float32, reflect.Float64:
		d, _, err := apd.NewFromString(strconv.FormatFloat(v.Float(), 'g', -1, 64))
		if err != nil {
			return nil, fmt.Errorf("cannot convert %v: %w", val, err)
		}
		return &evaluator.Number{Value: d}, nil
	case reflect.Bool:
		return evaluator.NewBoolean(v.Bool()), nil
	case reflect.String:
		return evaluator.NewText(v.String()), nil
	case reflect.Slice, reflect.Array:
		return m.sliceToList(v)
	}
	return nil, fmt.Errorf("unsupported Go type %T", val)
}

// ToValues converts a Go value to the values of one argument. Slices
// become several values, everything else one.
func (m *Marshaller) ToValues(val interface{}) (evaluator.Values, error) {
	if vs, ok := val.(evaluator.Values); ok {
		return vs, nil
	}
	rv := reflect.ValueOf(val)
	if val != nil && rv.Kind() == reflect.Slice {
		l, err := m.sliceToList(rv)
		if err != nil {
			return nil, err
		}
		return l.Elements, nil
	}
	v, err := m.ToValue(val)
	if err != nil {
		return nil, err
	}
	return evaluator.Single(v), nil
}

// FromValue converts a Malgeul value to a Go value.
// targetType is optional; if provided, tries to convert to that type.
func (m *Marshaller) FromValue(val evaluator.Value, targetType reflect.Type) (interface{}, error) {
	if val == nil {
		return nil, nil
	}
	if targetType != nil && targetType == valueType {
		return val, nil
	}

	switch o := val.(type) {
	case *evaluator.Integer:
		if targetType != nil {
			switch {
			case targetType == bigIntType:
				return new(big.Int).Set(o.Value), nil
			case targetType == bigRatType:
				return new(big.Rat).SetInt(o.Value), nil
			case targetType.Kind() == reflect.Float64 || targetType.Kind() == reflect.Float32:
				f, _ := new(big.Float).SetInt(o.Value).Float64()
				return reflect.ValueOf(f).Convert(targetType).Interface(), nil
			case targetType.Kind() >= reflect.Int && targetType.Kind() <= reflect.Int64:
				if !o.Value.IsInt64() {
					return nil, fmt.Errorf("%s overflows %s", o.Value, targetType)
				}
				return reflect.ValueOf(o.Value.Int64()).Convert(targetType).Interface(), nil
			}
		}
		if !o.Value.IsInt64() {
			return new(big.Int).Set(o.Value), nil
		}
		return int(o.Value.Int64()), nil // Default to int
	case *evaluator.Fraction:
		if targetType != nil && (targetType.Kind() == reflect.Float64 || targetType.Kind() == reflect.Float32) {
			f, _ := o.Value.Float64()
			return reflect.ValueOf(f).Convert(targetType).Interface(), nil
		}
		return new(big.Rat).Set(o.Value), nil
	case *evaluator.Number:
		if targetType == decimalType {
			return new(apd.Decimal).Set(o.Value), nil
		}
		f, err := o.Value.Float64()
		if err != nil {
			return nil, fmt.Errorf("cannot convert %s: %w", o.Inspect(), err)
		}
		if targetType != nil && targetType.Kind() == reflect.Float32 {
			return float32(f), nil
		}
		return f, nil
	case *evaluator.Boolean:
		return o.Value, nil
	case *evaluator.Text:
		return o.Value, nil
	case *evaluator.List:
		return m.valuesToSlice(o.Elements, targetType)
	default:
		return nil, fmt.Errorf("unsupported type for conversion: %s", o.Type())
	}
}

// FromValues converts the values of one argument or result: a single value
// converts on its own, several become a slice.
func (m *Marshaller) FromValues(vs evaluator.Values, targetType reflect.Type) (interface{}, error) {
	if targetType == valuesType {
		return vs, nil
	}
	if len(vs) == 1 && (targetType == nil || targetType.Kind() != reflect.Slice) {
		return m.FromValue(vs[0], targetType)
	}
	if len(vs) == 0 && targetType == nil {
		return nil, nil
	}
	return m.valuesToSlice(vs, targetType)
}

func (m *Marshaller) sliceToList(v reflect.Value) (*evaluator.List, error) {
	elements := make(evaluator.Values, v.Len())
	for i := 0; i < v.Len(); i++ {
		val, err := m.ToValue(v.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		elements[i] = val
	}
	return &evaluator.List{Elements: elements}, nil
}

func (m *Marshaller) valuesToSlice(vs evaluator.Values, targetType reflect.Type) (interface{}, error) {
	// If targetType is nil, default to []interface{}
	elemType := reflect.TypeOf((*interface{})(nil)).Elem()
	if targetType != nil && targetType.Kind() == reflect.Slice {
		elemType = targetType.Elem()
	}

	slice := reflect.MakeSlice(reflect.SliceOf(elemType), 0, len(vs))
	for _, el := range vs {
		val, err := m.FromValue(el, elemType)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(val)
		switch {
		case rv.Type().AssignableTo(elemType):
			slice = reflect.Append(slice, rv)
		case rv.Type().ConvertibleTo(elemType):
			slice = reflect.Append(slice, rv.Convert(elemType))
		default:
			return nil, fmt.Errorf("cannot convert %s to %s", rv.Type(), elemType)
		}
	}
	return slice.Interface(), nil
}
