package executor

import "github.com/declarch-sh/declarch/internal/identity"

func newKey(backendName, name string) (identity.Key, error) {
	return identity.NewKey(backendName, name)
}
