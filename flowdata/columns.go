package flowdata

import (
	"fmt"
	"reflect"
	"strings"
)

// Columns lists the column names that the struct tag key assigns to the
// element type of out, which must be a pointer to a slice of structs. Every
// tagged field is required in the input.
func Columns(out interface{}, key string) ([]string, error) {
	t := reflect.TypeOf(out)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Slice || t.Elem().Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a pointer to a slice of structs, got %T", out)
	}
	row := t.Elem().Elem()

	cols := make([]string, 0, row.NumField())
	for i := 0; i < row.NumField(); i++ {
		name := strings.Split(row.Field(i).Tag.Get(key), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, name)
	}

	return cols, nil
}

// MissingColumns returns the entries of required that are absent from header,
// in the order of required.
func MissingColumns(header, required []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, v := range header {
		present[strings.TrimPrefix(strings.TrimSpace(v), "\ufeff")] = struct{}{}
	}

	var missing []string
	for _, v := range required {
		if _, ok := present[v]; !ok {
			missing = append(missing, v)
		}
	}

	return missing
}

func checkColumns(header []string, out interface{}, key string) error {
	required, err := Columns(out, key)
	if err != nil {
		return err
	}

	if missing := MissingColumns(header, required); len(missing) > 0 {
		return fmt.Errorf("Expected to find %d header columns (%s), but %s missing. Header: %v",
			len(required), strings.Join(required, ", "), strings.Join(missing, ", "), header)
	}

	return nil
}
