package model

// TaskResponse representa a resposta da API do ClickUp para listagem de tarefas
type TaskResponse struct {
	Tasks    []Task `json:"tasks"`
	LastPage bool   `json:"last_page"`
}

// Task representa uma tarefa do ClickUp. Só os campos usados na linha do
// tempo são decodificados.
type Task struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Status    Status   `json:"status"`
	DueDate   string   `json:"due_date"`
	StartDate string   `json:"start_date"`
	List      ListInfo `json:"list"`
	URL       string   `json:"url"`
}

// Status representa o status de uma tarefa
type Status struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

// ListInfo identifica a lista de uma tarefa
type ListInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Closed reports whether the task sits in a closed status.
func (t Task) Closed() bool {
	return t.Status.Type == "closed"
}
