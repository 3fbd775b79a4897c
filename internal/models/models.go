package models

// Project represents a project entry in the registry database. Each project
// owns one graph snapshot file under the data directory.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	GraphPath   string `json:"graph_path"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
