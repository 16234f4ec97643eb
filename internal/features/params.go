package features

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// decodeParams binds extractor parameters onto target. Values arriving as
// strings (environment overrides, flags) are coerced: JSON arrays and
// objects are parsed, numbers and booleans are converted. Unknown keys are
// rejected so typos in the configuration surface at build time.
func decodeParams(params map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonStringHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		Result: target,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	return nil
}

func jsonStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return data, nil
	}

	switch to.Kind() {
	case reflect.Slice:
		if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
			var result []any
			if err := json.Unmarshal([]byte(raw), &result); err == nil {
				return result, nil
			}
		}
	case reflect.Map, reflect.Struct:
		if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
			var result map[string]any
			if err := json.Unmarshal([]byte(raw), &result); err == nil {
				return result, nil
			}
		}
	}
	return data, nil
}
