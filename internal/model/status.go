package model

// JobState represents the state of a download job
type JobState string

const (
	// JobStateAdmitted means the gate check passed and the job waits for a worker
	JobStateAdmitted JobState = "Admitted"

	// JobStatePreparing means the working directory is being created and purged
	JobStatePreparing JobState = "Preparing"

	// JobStateRunning means the extraction process is running
	JobStateRunning JobState = "Running"

	// JobStateResolving means the produced file is being located
	JobStateResolving JobState = "Resolving"

	// JobStateDelivering means the artifact is being handed to the requester
	JobStateDelivering JobState = "Delivering"

	// JobStateCompleted means the artifact was delivered
	JobStateCompleted JobState = "Completed"

	// JobStateRejected means admission failed (maintenance, ban or full queue)
	JobStateRejected JobState = "Rejected"

	// JobStateRunFailed means the process could not start, exited nonzero, or was cancelled
	JobStateRunFailed JobState = "RunFailed"

	// JobStateArtifactMissing means the process succeeded but left no file
	JobStateArtifactMissing JobState = "ArtifactMissing"

	// JobStateDeliveryFailed means the artifact existed but could not be transferred
	JobStateDeliveryFailed JobState = "DeliveryFailed"
)

// String returns the string representation of JobState
func (s JobState) String() string {
	return string(s)
}

// IsActive returns true while a worker owns the job
func (s JobState) IsActive() bool {
	switch s {
	case JobStatePreparing, JobStateRunning, JobStateResolving, JobStateDelivering:
		return true
	}
	return false
}

// IsFinished returns true for every terminal state
func (s JobState) IsFinished() bool {
	return s == JobStateCompleted || s.IsFailure()
}

// IsFailure returns true for the terminal failure exits
func (s JobState) IsFailure() bool {
	switch s {
	case JobStateRejected, JobStateRunFailed, JobStateArtifactMissing, JobStateDeliveryFailed:
		return true
	}
	return false
}

// CanTransition reports whether a job may move from one state to another.
// Any active state may fail with RunFailed; the other failure exits belong
// to the step that produces them.
func CanTransition(from, to JobState) bool {
	if from.IsActive() && to == JobStateRunFailed {
		return true
	}
	switch from {
	case JobStateAdmitted:
		return to == JobStatePreparing || to == JobStateRejected || to == JobStateRunFailed
	case JobStatePreparing:
		return to == JobStateRunning
	case JobStateRunning:
		return to == JobStateResolving
	case JobStateResolving:
		return to == JobStateDelivering || to == JobStateArtifactMissing
	case JobStateDelivering:
		return to == JobStateCompleted || to == JobStateDeliveryFailed
	}
	return false
}
