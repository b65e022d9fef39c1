package service

import "github.com/proplens/proplens/internal/model"

// mergeTasks collapses rows sharing a task_id within one document. Chunk
// boundaries can split a task across two model calls, so the same id may be
// committed from adjacent chunks with uneven detail. The row with the longer
// name wins; missing dates, a zero duration, and an empty building are filled
// in from the other rows. Order follows first appearance.
func mergeTasks(tasks []model.ProjectTask) []model.ProjectTask {
	if len(tasks) < 2 {
		return tasks
	}
	index := make(map[int]int, len(tasks))
	merged := make([]model.ProjectTask, 0, len(tasks))
	for _, t := range tasks {
		pos, seen := index[t.TaskID]
		if !seen {
			index[t.TaskID] = len(merged)
			merged = append(merged, t)
			continue
		}
		merged[pos] = mergeTaskPair(merged[pos], t)
	}
	return merged
}

func mergeTaskPair(a, b model.ProjectTask) model.ProjectTask {
	winner, loser := a, b
	if len(b.TaskName) > len(a.TaskName) {
		winner, loser = b, a
	}
	if winner.StartDate == nil {
		winner.StartDate = loser.StartDate
	}
	if winner.FinishDate == nil {
		winner.FinishDate = loser.FinishDate
	}
	if winner.DurationDays == 0 {
		winner.DurationDays = loser.DurationDays
	}
	if winner.Building == "" {
		winner.Building = loser.Building
	}
	return winner
}
