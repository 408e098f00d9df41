package dto

type ServiceRefDTO struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Cluster   string `json:"cluster,omitempty"`
	Type      string `json:"type"`
	// Selector is nil when the service routes by name (no selector) and an
	// empty map when the selector matches every pod in the namespace.
	Selector map[string]string `json:"selector"`
}
