package entity

// Result is the output of a completed job. The concrete type is either
// *ReportResult or *TrendsResult and always matches the job's Mode.
type Result interface {
	Mode() Mode
	clone() Result
}

type ReportResult struct {
	Summary           string   `json:"summary"`
	Markdown          string   `json:"markdown"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

func (r *ReportResult) Mode() Mode { return ModeReport }

func (r *ReportResult) clone() Result {
	out := *r
	out.FollowUpQuestions = append([]string(nil), r.FollowUpQuestions...)
	return &out
}

type Trend struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TrendsTarget is how many trends the pipeline is asked for.
const TrendsTarget = 10

type TrendsResult struct {
	Topic   string  `json:"topic"`
	Summary string  `json:"summary"`
	Trends  []Trend `json:"trends"`
}

func (r *TrendsResult) Mode() Mode { return ModeTrends }

func (r *TrendsResult) clone() Result {
	out := *r
	out.Trends = append([]Trend(nil), r.Trends...)
	return &out
}
