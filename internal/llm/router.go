package llm

// TaskType classifies a generation request for model selection.
type TaskType string

const (
	TaskReview     TaskType = "review"
	TaskComparison TaskType = "comparison"
	TaskSummary    TaskType = "summary"
	TaskMeta       TaskType = "meta"
)

// Router selects a model per task: long-form editorial work goes to the
// default model, short metadata tasks to the fast one.
type Router struct {
	defaultModel string
	fastModel    string
}

func NewRouter(defaultModel, fastModel string) *Router {
	if fastModel == "" {
		fastModel = defaultModel
	}
	return &Router{
		defaultModel: defaultModel,
		fastModel:    fastModel,
	}
}

// Select returns the model for a task. Complexity runs 0.0 to 1.0; anything
// above 0.7 always gets the default model.
func (r *Router) Select(task TaskType, complexity float64) string {
	if complexity > 0.7 {
		return r.defaultModel
	}

	switch task {
	case TaskSummary, TaskMeta:
		if complexity < 0.3 {
			return r.fastModel
		}
		return r.defaultModel
	case TaskReview, TaskComparison:
		return r.defaultModel
	}

	return r.defaultModel
}
