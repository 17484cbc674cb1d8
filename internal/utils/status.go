package utils

import "github.com/mahirjain10/imagsharp/internal/types"

const pattern = "status"

func InitStatusData(runId string, result types.JobResult) *types.StatusData {
	return &types.StatusData{
		ID:       result.Job.Id,
		RunID:    runId,
		Source:   result.Job.SourcePath,
		Output:   result.OutputPath,
		Status:   types.StatusFor(result.Outcome),
		ErrorMsg: result.Reason,
	}
}

func InitStatusMessage(data *types.StatusData) *types.StatusMessage {
	return &types.StatusMessage{Pattern: pattern, Data: *data}
}
