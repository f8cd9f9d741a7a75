// backend.go - registriert alle eingebauten Backends
package backend

import (
	_ "github.com/ollama/adaptor/ml/backend/cpu"
)
