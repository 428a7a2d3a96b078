package output

// EnvPort exposes process configuration (environment + .env files).
type EnvPort interface {
	Get(key string) string
	MustGet(key string) string
	GetBool(key string, defaultValue bool) bool
	GetInt(key string, defaultValue int) int
}
