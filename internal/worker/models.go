package worker

import "github.com/queueworks/tabq/internal/jsoncodec"

// Queue names shared with the task producer and the downstream consumers of
// status and result messages. All three are declared durable at startup.
const (
	QueueTasks      = "tasks"
	QueueResults    = "results"
	QueueTaskStatus = "task_status"
)

// TaskKindAnalyze is the only task kind with a registered processor today.
// Deliveries carrying any other kind are acknowledged and reported as skipped.
const TaskKindAnalyze = "analyze"

// Task is the inbound unit of work. Field names follow the wire format of the
// task producer.
type Task struct {
	ID      string `json:"taskId"`
	Kind    string `json:"type"`
	Payload string `json:"data"`
}

// Status is the lifecycle state reported to the task_status queue.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusSkipped    Status = "skipped"
	StatusError      Status = "error"
)

// StatusEvent is one lifecycle update for a task. Extra entries (reason,
// error, ...) are flattened into the top level of the JSON body, matching the
// shape downstream consumers expect.
type StatusEvent struct {
	TaskID    string
	Status    Status
	Worker    string
	Timestamp string
	Extra     map[string]string
}

func (e StatusEvent) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, 4+len(e.Extra))
	body["taskId"] = e.TaskID
	body["status"] = e.Status
	body["worker"] = e.Worker
	body["timestamp"] = e.Timestamp
	for k, v := range e.Extra {
		if _, reserved := body[k]; !reserved {
			body[k] = v
		}
	}
	return jsoncodec.Marshal(body)
}

// ResultMessage is the terminal signal for an analyzed task. Result holds
// either an analysis.Result or an analysis.ProcessingError.
type ResultMessage struct {
	TaskID      string `json:"taskId"`
	Worker      string `json:"worker"`
	Result      any    `json:"result"`
	CompletedAt string `json:"completedAt"`
}
