package config

// APIConfig enables the status HTTP API when Addr is set. Requests to the
// readings endpoint must carry "Bearer <token>" when Token is non-empty.
type APIConfig struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
}
