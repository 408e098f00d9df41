package dto

// PodSummaryDTO is the list projection of a pod used by the selected pods
// section.
type PodSummaryDTO struct {
	Name       string   `json:"name"`
	Namespace  string   `json:"namespace"`
	Node       string   `json:"node,omitempty"`
	Phase      string   `json:"phase"`
	Ready      string   `json:"ready"`
	Restarts   int32    `json:"restarts"`
	Containers []string `json:"containers,omitempty"`
	CreatedAt  int64    `json:"createdAt,omitempty"`
}
