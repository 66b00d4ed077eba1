package runtime

import (
	"fmt"
	"math"

	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// DecodeParams reads the declared parameters from the store.
// Missing or mistyped values are reported as *domain.ParameterError.
func DecodeParams(store ports.ParameterStore) (domain.Params, error) {
	raw := make(map[string]any, 2)
	for _, md := range domain.DeclaredParameters() {
		v, ok := store.Parameter(md.Name)
		if !ok {
			return domain.Params{}, &domain.ParameterError{Name: md.Name, Reason: "missing"}
		}
		if err := checkType(md, v); err != nil {
			return domain.Params{}, err
		}
		raw[md.Name] = v
	}

	var params domain.Params
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &params,
		TagName: "mapstructure",
	})
	if err != nil {
		return domain.Params{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	if err := decoder.Decode(raw); err != nil {
		return domain.Params{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	if params.ConnectionName == "" {
		return domain.Params{}, &domain.ParameterError{Name: domain.ParamConnectionName, Reason: "must not be empty"}
	}
	return params, nil
}

func checkType(md domain.ParameterMetadata, v any) error {
	switch md.Type {
	case domain.ParameterString:
		if _, ok := v.(string); !ok {
			return &domain.ParameterError{Name: md.Name, Reason: "must be a string", Value: v}
		}
	case domain.ParameterInt:
		if !fitsInt(v) {
			return &domain.ParameterError{Name: md.Name, Reason: "must be an integer", Value: v}
		}
	}
	return nil
}

// fitsInt reports whether v is an integral value representable as int.
func fitsInt(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, uint8, uint16:
		return true
	case int64:
		return n >= math.MinInt && n <= math.MaxInt
	case uint:
		return uint64(n) <= math.MaxInt
	case uint32:
		return uint64(n) <= math.MaxInt
	case uint64:
		return n <= math.MaxInt
	case float32:
		return fitsFloat(float64(n))
	case float64:
		return fitsFloat(n)
	}
	return false
}

func fitsFloat(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	// float64(math.MaxInt) rounds up to a power of two, so the upper bound is exclusive.
	return f >= float64(math.MinInt) && f < -float64(math.MinInt)
}
