package console

import "context"

type verboseKey struct{}

// SetVerbose marks ctx so that commands add diagnostic output.
func SetVerbose(parent context.Context, value bool) context.Context {
	return context.WithValue(parent, verboseKey{}, value)
}

func IsVerbose(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(verboseKey{}).(bool)
	return v
}
