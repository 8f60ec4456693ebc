package task

import (
	"encoding/json"

	"slydes/viewer/internal/domain"
)

type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

// DefaultTaskValue provides a common implementation for TaskValue
func DefaultTaskValue(task interface{}) ([]byte, error) {
	return json.Marshal(task)
}

func UnmarshalTask[T Task](task []byte) (T, error) {
	var t T
	err := json.Unmarshal(task, &t)
	return t, err
}

const DeliverEventTaskType = "DeliverEventTask"

// TaskTypes lists every stream the queue provisions
var TaskTypes = []string{DeliverEventTaskType}

// DeliverEventTask carries one analytics batch from a viewer to a delivery worker
type DeliverEventTask struct {
	Batch domain.AnalyticsBatch `json:"batch"`
}

func (t *DeliverEventTask) TaskType() string {
	return DeliverEventTaskType
}

func (t *DeliverEventTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
