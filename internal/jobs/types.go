package jobs

type JobType string

const (
	JobNotifyTaskAssigned  JobType = "notify_task_assigned"
	JobNotifyTaskCompleted JobType = "notify_task_completed"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobNotifyTaskAssigned, JobNotifyTaskCompleted:
		return true
	default:
		return false
	}
}
