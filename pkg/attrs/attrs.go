// Package attrs reads values back out of slog-style argument lists, so a
// helper that logs an event can also label a metric from the same arguments.
package attrs

import "log/slog"

// ExtractString returns the string value for key in args, which may mix
// key/value pairs and slog.Attr entries as slog.Logger.Log accepts them.
// It returns "" when the key is absent or its value is not a string.
func ExtractString(args []any, key string) string {
	for i := 0; i < len(args); i++ {
		switch a := args[i].(type) {
		case slog.Attr:
			if a.Key == key && a.Value.Kind() == slog.KindString {
				return a.Value.String()
			}
		case string:
			if i+1 >= len(args) {
				return ""
			}
			v := args[i+1]
			i++
			if a != key {
				continue
			}
			if s, ok := v.(string); ok {
				return s
			}
			return ""
		}
	}
	return ""
}
