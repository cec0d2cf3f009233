package ops

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// decodeConfig раскладывает сырые настройки узла в структуру out.
//
// Типы приводятся мягко ("5" → 5, 1 → true), ключи берутся из тегов json.
// Значения по умолчанию задаются в out до вызова.
func decodeConfig(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook:       stringToSliceHook,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := dec.Decode(pruneEmpty(raw)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// pruneEmpty убирает ключи с пустыми строками: формы UI отправляют ""
// вместо отсутствующего значения, и такие поля должны сохранить значение
// по умолчанию.
func pruneEmpty(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case string:
			if strings.TrimSpace(x) == "" {
				continue
			}
		case map[string]any:
			v = pruneEmpty(x)
		case []any:
			items := make([]any, len(x))
			for i, item := range x {
				if m, ok := item.(map[string]any); ok {
					item = pruneEmpty(m)
				}
				items[i] = item
			}
			v = items
		}
		out[k] = v
	}
	return out
}

// stringToSliceHook принимает "a, b" там, где ожидается список строк.
func stringToSliceHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(reflect.ValueOf(data).String())
	if s == "" {
		return []string{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// literal приводит значение из настроек к типу ячейки: числовые строки
// становятся числами, остальное остаётся строкой.
func literal(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
		return x
	case float64, bool:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	return fmt.Sprint(v)
}
