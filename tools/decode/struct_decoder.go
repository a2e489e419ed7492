package decode

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Options controls decode behavior.
type Options struct {
	// WeaklyTypedInput enables lenient decoding (default true):
	// "123" -> int, 1.0 -> int64, and so on. Inbound event payloads
	// cross a JSON boundary where numbers arrive as float64.
	WeaklyTypedInput bool
}

func DefaultOptions() Options {
	return Options{WeaklyTypedInput: true}
}

// Decode maps a generic JSON-shaped value (map[string]any) onto T,
// honoring `json` tags on the target struct.
func Decode[T any](src any, opts Options) (*T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: opts.WeaklyTypedInput,
		Squash:           true,
		DecodeHook:       jsonUnmarshalerHook(),
	})
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(src); err != nil {
		return nil, fmt.Errorf("decode into %T: %w", out, err)
	}
	return &out, nil
}

// DecodeStruct decodes with default options.
func DecodeStruct[T any](src any) (*T, error) {
	return Decode[T](src, DefaultOptions())
}

var jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

// jsonUnmarshalerHook routes string values through the target type's
// own UnmarshalJSON. Timestamps and similar wrapper types keep their
// JSON parsing rules when the source has already been decoded to a map.
func jsonUnmarshalerHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		if !reflect.PointerTo(to).Implements(jsonUnmarshalerType) {
			return data, nil
		}
		v := reflect.New(to)
		quoted := strconv.Quote(data.(string))
		if err := v.Interface().(json.Unmarshaler).UnmarshalJSON([]byte(quoted)); err != nil {
			return nil, err
		}
		return v.Elem().Interface(), nil
	}
}
