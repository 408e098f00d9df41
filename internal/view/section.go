package view

const (
	SectionTitle         = "Selected Pods"
	EmptySelectorWarning = "This service has an empty selector, which matches all pods in the namespace."
	NoPodsMessage        = "No pods match this service's selector"
	LoadingMessage       = "Loading pods..."
)

// Section is the render model of the selected pods block. A nil *Section
// means nothing is shown.
type Section struct {
	Title    string    `json:"title"`
	Warning  string    `json:"warning,omitempty"`
	Error    string    `json:"error,omitempty"`
	Loading  bool      `json:"loading,omitempty"`
	Empty    string    `json:"empty,omitempty"`
	Table    *Table    `json:"table,omitempty"`
	LoadMore *LoadMore `json:"loadMore,omitempty"`
	Total    int       `json:"total"`
}

type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type Row struct {
	Name      string   `json:"name"`
	Namespace string   `json:"namespace"`
	Link      string   `json:"link"`
	Status    string   `json:"status"`
	Age       string   `json:"age"`
	Node      string   `json:"node"`
	Actions   []Action `json:"actions,omitempty"`
}

type Action struct {
	Kind   string `json:"kind"`
	Method string `json:"method"`
	Href   string `json:"href"`
}

type LoadMore struct {
	Remaining int    `json:"remaining"`
	Label     string `json:"label"`
}

var podColumns = []Column{
	{Key: "name", Label: "Name"},
	{Key: "status", Label: "Status"},
	{Key: "age", Label: "Age"},
	{Key: "node", Label: "Node"},
	{Key: "actions", Label: ""},
}
