package services

// BatchItemResult is the outcome of one item of a bulk operation.
type BatchItemResult struct {
	ID    uint   `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

// BatchResult collects per-item outcomes. Bulk operations are best effort:
// a failing item does not roll back the ones already applied.
type BatchResult struct {
	Items     []BatchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

func (r *BatchResult) record(id uint, err error) {
	item := BatchItemResult{ID: id, OK: err == nil, Err: err}
	if err != nil {
		item.Error = err.Error()
		r.Failed++
	} else {
		r.Succeeded++
	}
	r.Items = append(r.Items, item)
}

// runBatch applies fn to each id in order and records every outcome.
func runBatch(ids []uint, fn func(id uint) error) *BatchResult {
	result := &BatchResult{Items: make([]BatchItemResult, 0, len(ids))}
	for _, id := range ids {
		result.record(id, fn(id))
	}
	return result
}
